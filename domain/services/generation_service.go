package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/events"
	"diadesorte/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultQuantity    = 5
	DefaultMaxQuantity = 100
)

// Batch outcomes reported to metrics
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid_request"
	OutcomeExhausted = "exhausted"
	OutcomeNoData    = "upstream_unavailable"
	OutcomeError     = "error"
)

// generationService implements batch generation on top of the stored history
type generationService struct {
	historyService  interfaces.HistoryService
	analysisService interfaces.AnalysisService
	orchestrator    *BatchOrchestrator
	batchStore      interfaces.BatchStore
	eventPublisher  interfaces.EventPublisher
	metrics         interfaces.GenerationMetrics
	maxQuantity     int
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	historyService interfaces.HistoryService,
	analysisService interfaces.AnalysisService,
	orchestrator *BatchOrchestrator,
	batchStore interfaces.BatchStore,
	eventPublisher interfaces.EventPublisher,
	metrics interfaces.GenerationMetrics,
	maxQuantity int,
) interfaces.GenerationService {
	if maxQuantity <= 0 {
		maxQuantity = DefaultMaxQuantity
	}
	return &generationService{
		historyService:  historyService,
		analysisService: analysisService,
		orchestrator:    orchestrator,
		batchStore:      batchStore,
		eventPublisher:  eventPublisher,
		metrics:         metrics,
		maxQuantity:     maxQuantity,
	}
}

// Generate validates the request, materialises history and analyses, and runs
// the batch. Either every ticket is valid or an error is returned.
func (s *generationService) Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResult, error) {
	start := time.Now()

	result, err := s.generate(ctx, req)
	s.recordBatch(outcomeOf(err), req.Quantity, time.Since(start))
	if err != nil {
		return nil, err
	}

	for _, t := range result.Tickets {
		s.recordAttempts(t.Attempts)
	}

	if err := s.batchStore.SaveLastBatch(ctx, result); err != nil {
		log.WithError(err).Warn("Failed to store last batch")
	}

	if err := s.eventPublisher.Publish(events.BatchGeneratedEvent{
		BatchID:             result.BatchID,
		Quantity:            result.Total(),
		LuckyMonth:          result.LuckyMonth.Month.String(),
		TriggerNumbers:      result.Triggers.Numbers,
		TicketsWithTriggers: result.TicketsWithTriggers,
		LatestContest:       result.LatestDraw.ContestNumber,
		DataSource:          result.DataSource,
		GeneratedAt:         result.GeneratedAt,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish batch generated event")
	}

	log.WithFields(log.Fields{
		"batchId":      result.BatchID,
		"quantity":     result.Total(),
		"luckyMonth":   result.LuckyMonth.Month.String(),
		"triggers":     result.Triggers.Numbers,
		"withTriggers": result.TicketsWithTriggers,
		"dataSource":   result.DataSource,
		"duration":     time.Since(start),
	}).Info("Generated ticket batch")

	return result, nil
}

func (s *generationService) generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	latest, err := s.historyService.Latest(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.historyService.History(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("draw history is empty, load it first: %w", ErrUpstreamDataUnavailable)
	}

	inputs := s.analysisService.Inputs(ctx, history, req.Analyses)

	result, err := s.orchestrator.Run(ctx, req, BatchInputs{
		History:    history,
		LatestDraw: latest.Draw,
		Analyses:   inputs,
		DataSource: latest.Source,
	})
	if err != nil {
		return nil, err
	}
	result.BatchID = uuid.NewString()
	return result, nil
}

// LastBatch returns the most recently generated batch
func (s *generationService) LastBatch(ctx context.Context) (*entities.GenerationResult, error) {
	result, err := s.batchStore.GetLastBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last batch: %w", err)
	}
	return result, nil
}

func (s *generationService) validate(req entities.GenerationRequest) error {
	if req.Quantity <= 0 || req.Quantity > s.maxQuantity {
		return fmt.Errorf("quantidade must be between 1 and %d, got %d: %w", s.maxQuantity, req.Quantity, ErrInvalidRequest)
	}
	for _, name := range req.Analyses {
		if _, ok := entities.ParseAnalysisName(string(name)); !ok {
			return fmt.Errorf("unknown analysis %q: %w", name, ErrInvalidRequest)
		}
	}
	return nil
}

func (s *generationService) recordBatch(outcome string, quantity int, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordBatch(outcome, quantity, duration)
	}
}

func (s *generationService) recordAttempts(attempts int) {
	if s.metrics != nil {
		s.metrics.RecordTicketAttempts(attempts)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidRequest):
		return OutcomeInvalid
	case errors.Is(err, ErrGenerationExhausted):
		return OutcomeExhausted
	case errors.Is(err, ErrUpstreamDataUnavailable):
		return OutcomeNoData
	default:
		return OutcomeError
	}
}
