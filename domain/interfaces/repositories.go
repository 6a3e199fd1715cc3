package interfaces

import (
	"context"

	"diadesorte/domain/entities"
	"diadesorte/domain/events"
)

// DrawRepository defines the interface for draw persistence
type DrawRepository interface {
	// Upsert inserts a draw or refreshes the stored copy of the same contest
	Upsert(ctx context.Context, draw *entities.Draw) error

	// UpsertMany stores draws atomically and returns how many were written
	UpsertMany(ctx context.Context, draws []*entities.Draw) (int, error)

	// GetByContest returns nil, nil when the contest is not stored
	GetByContest(ctx context.Context, contestNumber int64) (*entities.Draw, error)

	// GetLatest returns the stored draw with the highest contest number
	GetLatest(ctx context.Context) (*entities.Draw, error)

	// List returns up to limit draws, newest first; limit <= 0 returns all
	List(ctx context.Context, limit int) ([]*entities.Draw, error)

	// Count returns how many draws are stored
	Count(ctx context.Context) (int, error)
}

// DrawSource fetches published results from the lottery operator
type DrawSource interface {
	FetchLatest(ctx context.Context) (*entities.Draw, error)
	FetchContest(ctx context.Context, contestNumber int64) (*entities.Draw, error)
}

// DrawCache keeps the latest upstream draw for a short time
type DrawCache interface {
	// GetLatestDraw returns nil, nil on a cache miss
	GetLatestDraw(ctx context.Context) (*entities.Draw, error)
	SetLatestDraw(ctx context.Context, draw *entities.Draw) error
}

// BatchStore keeps the last generated batch for export
type BatchStore interface {
	SaveLastBatch(ctx context.Context, result *entities.GenerationResult) error
	// GetLastBatch returns nil, nil when nothing was generated yet
	GetLastBatch(ctx context.Context) (*entities.GenerationResult, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// ContestNotifier announces new contests to an external channel
type ContestNotifier interface {
	NotifyNewContest(ctx context.Context, draw *entities.Draw) error
}
