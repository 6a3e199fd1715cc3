package interfaces

import (
	"context"
	"time"

	"diadesorte/domain/entities"
)

// LatestDraw is the most recent draw with the source it was read from
type LatestDraw struct {
	Draw   *entities.Draw
	Source string
}

// HistoryService defines the interface for draw history operations
type HistoryService interface {
	// Load ingests the latest limit contests from the upstream source and
	// returns how many were saved
	Load(ctx context.Context, limit int, progress func(done, total int)) (int, error)

	// Latest returns the most recent draw, preferring the upstream source
	Latest(ctx context.Context) (*LatestDraw, error)

	// History returns stored draws newest first; limit <= 0 returns all
	History(ctx context.Context, limit int) (entities.DrawHistory, error)
}

// AnalysisService defines the interface for statistical analyses over history
type AnalysisService interface {
	// Analyse computes one named analysis
	Analyse(ctx context.Context, name entities.AnalysisName) (entities.AnalysisResult, error)

	// Inputs computes the analyses enabled for a generation request
	Inputs(ctx context.Context, history entities.DrawHistory, names []entities.AnalysisName) entities.AnalysisInputs

	// Parity returns the even/odd distribution over the last 100 draws
	Parity(ctx context.Context) (*entities.ParityAnalysis, error)

	// BandStatistics summarises how often each number band is drawn
	BandStatistics(ctx context.Context) (*entities.BandStatistics, error)
}

// GenerationService defines the interface for generating ticket batches
type GenerationService interface {
	Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResult, error)

	// LastBatch returns the most recently generated batch, or nil
	LastBatch(ctx context.Context) (*entities.GenerationResult, error)
}

// GenerationMetrics records generation outcomes
type GenerationMetrics interface {
	RecordBatch(outcome string, quantity int, duration time.Duration)
	RecordTicketAttempts(attempts int)
}

// HistoryMetrics records history refreshes
type HistoryMetrics interface {
	RecordHistoryRefresh(trigger string, saved int, err error)
}
