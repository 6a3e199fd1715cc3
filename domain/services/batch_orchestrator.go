package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"diadesorte/domain/entities"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchInputs are the materialised inputs of one batch
type BatchInputs struct {
	History    entities.DrawHistory
	LatestDraw *entities.Draw
	Analyses   entities.AnalysisInputs
	DataSource string
}

// BatchOrchestrator runs N independent ticket generations and assembles the result
type BatchOrchestrator struct {
	monthSelector    *LuckyMonthSelector
	triggerExtractor *TriggerNumberExtractor
	generator        *TicketGenerator
	workers          int
}

// NewBatchOrchestrator creates an orchestrator running at most workers generations at once
func NewBatchOrchestrator(
	monthSelector *LuckyMonthSelector,
	triggerExtractor *TriggerNumberExtractor,
	generator *TicketGenerator,
	workers int,
) *BatchOrchestrator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &BatchOrchestrator{
		monthSelector:    monthSelector,
		triggerExtractor: triggerExtractor,
		generator:        generator,
		workers:          workers,
	}
}

// Run generates the whole batch. Any ticket failing its ceiling fails the
// batch; cancelling ctx abandons it. Tickets keep request order.
func (o *BatchOrchestrator) Run(ctx context.Context, req entities.GenerationRequest, in BatchInputs) (*entities.GenerationResult, error) {
	latest := in.LatestDraw
	if latest == nil {
		latest = in.History.Latest()
	}
	if latest == nil {
		return nil, fmt.Errorf("no latest draw available: %w", ErrUpstreamDataUnavailable)
	}

	luckyMonth, err := o.monthSelector.Select(in.History)
	if err != nil {
		return nil, fmt.Errorf("failed to select lucky month: %w", err)
	}

	triggers := o.triggerExtractor.Extract(latest, in.Analyses, req.Rules.Triggers)

	gc := GenerationContext{
		LastDraw:   latest,
		LuckyMonth: luckyMonth,
		Triggers:   triggers,
		Analyses:   in.Analyses.Names(),
		Rules:      req.Rules,
	}

	var seed uint64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed = rand.Uint64()
	}

	tickets := make([]entities.Ticket, req.Quantity)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := 0; i < req.Quantity; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			ticket, err := o.generator.Generate(gc, rng)
			if err != nil {
				return fmt.Errorf("ticket %d: %w", i+1, err)
			}
			tickets[i] = ticket
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithFields(log.Fields{
			"quantity": req.Quantity,
			"error":    err,
		}).Warn("Batch generation failed")
		return nil, err
	}

	withTriggers := 0
	for _, t := range tickets {
		if len(t.Details.TriggersUsed) > 0 {
			withTriggers++
		}
	}

	return &entities.GenerationResult{
		Tickets:             tickets,
		Triggers:            triggers,
		TicketsWithTriggers: withTriggers,
		LuckyMonth:          luckyMonth,
		LatestDraw:          latest,
		DataSource:          in.DataSource,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}
