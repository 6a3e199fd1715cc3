package testhelpers

import (
	"context"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Upsert(ctx context.Context, draw *entities.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockDrawRepository) UpsertMany(ctx context.Context, draws []*entities.Draw) (int, error) {
	args := m.Called(ctx, draws)
	return args.Int(0), args.Error(1)
}

func (m *MockDrawRepository) GetByContest(ctx context.Context, contestNumber int64) (*entities.Draw, error) {
	args := m.Called(ctx, contestNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetLatest(ctx context.Context) (*entities.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) List(ctx context.Context, limit int) ([]*entities.Draw, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockDrawSource is a mock implementation of DrawSource
type MockDrawSource struct {
	mock.Mock
}

func (m *MockDrawSource) FetchLatest(ctx context.Context) (*entities.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawSource) FetchContest(ctx context.Context, contestNumber int64) (*entities.Draw, error) {
	args := m.Called(ctx, contestNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

// MockDrawCache is a mock implementation of DrawCache
type MockDrawCache struct {
	mock.Mock
}

func (m *MockDrawCache) GetLatestDraw(ctx context.Context) (*entities.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawCache) SetLatestDraw(ctx context.Context, draw *entities.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

// MockBatchStore is a mock implementation of BatchStore
type MockBatchStore struct {
	mock.Mock
}

func (m *MockBatchStore) SaveLastBatch(ctx context.Context, result *entities.GenerationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockBatchStore) GetLastBatch(ctx context.Context) (*entities.GenerationResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GenerationResult), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockContestNotifier is a mock implementation of ContestNotifier
type MockContestNotifier struct {
	mock.Mock
}

func (m *MockContestNotifier) NotifyNewContest(ctx context.Context, draw *entities.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

// MockGenerationMetrics is a mock implementation of GenerationMetrics
type MockGenerationMetrics struct {
	mock.Mock
}

func (m *MockGenerationMetrics) RecordBatch(outcome string, quantity int, duration time.Duration) {
	m.Called(outcome, quantity, duration)
}

func (m *MockGenerationMetrics) RecordTicketAttempts(attempts int) {
	m.Called(attempts)
}

// MockHistoryMetrics is a mock implementation of HistoryMetrics
type MockHistoryMetrics struct {
	mock.Mock
}

func (m *MockHistoryMetrics) RecordHistoryRefresh(trigger string, saved int, err error) {
	m.Called(trigger, saved, err)
}
