package services

import (
	"context"
	"fmt"

	"diadesorte/domain/entities"
	"diadesorte/domain/events"
	"diadesorte/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const DefaultHistoryLimit = 100

// historyService implements draw ingestion and lookup
type historyService struct {
	drawRepo interfaces.DrawRepository
	source   interfaces.DrawSource
	cache    interfaces.DrawCache
	bus      *events.Bus
}

// NewHistoryService creates a new history service
func NewHistoryService(
	drawRepo interfaces.DrawRepository,
	source interfaces.DrawSource,
	cache interfaces.DrawCache,
	bus *events.Bus,
) interfaces.HistoryService {
	return &historyService{
		drawRepo: drawRepo,
		source:   source,
		cache:    cache,
		bus:      bus,
	}
}

// Load fetches the latest contest and walks back until limit contests are
// covered. Contests already stored are not fetched again and missing ones are
// skipped. Events are only emitted once the draws are committed.
func (s *historyService) Load(ctx context.Context, limit int, progress func(done, total int)) (int, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	latest, err := s.source.FetchLatest(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest contest: %w: %w", ErrUpstreamDataUnavailable, err)
	}

	previous, err := s.drawRepo.GetLatest(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get stored latest draw: %w", err)
	}

	isNew := previous == nil || latest.ContestNumber > previous.ContestNumber
	var draws []*entities.Draw
	if isNew {
		draws = append(draws, latest)
	}
	total := int(min(int64(limit), latest.ContestNumber))
	if progress != nil {
		progress(1, total)
	}

	for i := 1; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		contest := latest.ContestNumber - int64(i)

		stored, err := s.drawRepo.GetByContest(ctx, contest)
		if err != nil {
			return 0, fmt.Errorf("failed to check contest %d: %w", contest, err)
		}
		if stored == nil {
			draw, err := s.source.FetchContest(ctx, contest)
			if err != nil {
				log.WithFields(log.Fields{
					"contest": contest,
					"error":   err,
				}).Warn("Skipping contest that could not be fetched")
			} else {
				draws = append(draws, draw)
			}
		}
		if progress != nil {
			progress(i+1, total)
		}
	}

	pending := events.NewTransactionalBus(s.bus)
	_ = pending.Publish(events.HistoryRefreshedEvent{
		Saved:          len(draws),
		LatestContest:  latest.ContestNumber,
		PreviousLatest: contestNumberOf(previous),
	})
	if isNew {
		_ = pending.Publish(newContestEvent(latest))
	}

	saved := 0
	if len(draws) > 0 {
		saved, err = s.drawRepo.UpsertMany(ctx, draws)
		if err != nil {
			pending.Discard()
			return 0, fmt.Errorf("failed to save draws: %w", err)
		}
	}
	pending.Flush()

	if err := s.cache.SetLatestDraw(ctx, latest); err != nil {
		log.WithError(err).Warn("Failed to cache latest draw")
	}

	log.WithFields(log.Fields{
		"saved":         saved,
		"latestContest": latest.ContestNumber,
		"limit":         limit,
	}).Info("Draw history loaded")

	return saved, nil
}

// Latest returns the cached or live upstream draw, falling back to the newest
// stored draw when the upstream source is unreachable
func (s *historyService) Latest(ctx context.Context) (*interfaces.LatestDraw, error) {
	cached, err := s.cache.GetLatestDraw(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read latest draw from cache")
	}
	if cached != nil {
		return &interfaces.LatestDraw{Draw: cached, Source: entities.DataSourceUpstream}, nil
	}

	live, err := s.source.FetchLatest(ctx)
	if err == nil {
		if err := s.cache.SetLatestDraw(ctx, live); err != nil {
			log.WithError(err).Warn("Failed to cache latest draw")
		}
		if err := s.drawRepo.Upsert(ctx, live); err != nil {
			log.WithError(err).Warn("Failed to store latest draw")
		}
		return &interfaces.LatestDraw{Draw: live, Source: entities.DataSourceUpstream}, nil
	}
	log.WithError(err).Warn("Upstream unavailable, using local history")

	stored, err := s.drawRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stored latest draw: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("no latest draw from upstream or local history: %w", ErrUpstreamDataUnavailable)
	}
	return &interfaces.LatestDraw{Draw: stored, Source: entities.DataSourceLocal}, nil
}

// History returns stored draws newest first
func (s *historyService) History(ctx context.Context, limit int) (entities.DrawHistory, error) {
	draws, err := s.drawRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	return entities.DrawHistory(draws), nil
}

func contestNumberOf(draw *entities.Draw) int64 {
	if draw == nil {
		return 0
	}
	return draw.ContestNumber
}

func newContestEvent(draw *entities.Draw) events.NewContestEvent {
	return events.NewContestEvent{
		ContestNumber: draw.ContestNumber,
		DrawDate:      draw.DrawDate,
		Numbers:       draw.Numbers,
		LuckyMonth:    draw.LuckyMonth,
		Accumulated:   draw.Accumulated,
		NextContest:   draw.NextContestNumber,
		NextPrize:     draw.NextEstimatedPrize,
	}
}
