package testhelpers

import (
	"context"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockHistoryService is a mock implementation of HistoryService
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) Load(ctx context.Context, limit int, progress func(done, total int)) (int, error) {
	args := m.Called(ctx, limit, progress)
	return args.Int(0), args.Error(1)
}

func (m *MockHistoryService) Latest(ctx context.Context) (*interfaces.LatestDraw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LatestDraw), args.Error(1)
}

func (m *MockHistoryService) History(ctx context.Context, limit int) (entities.DrawHistory, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.DrawHistory), args.Error(1)
}

// MockAnalysisService is a mock implementation of AnalysisService
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyse(ctx context.Context, name entities.AnalysisName) (entities.AnalysisResult, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(entities.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) Inputs(ctx context.Context, history entities.DrawHistory, names []entities.AnalysisName) entities.AnalysisInputs {
	args := m.Called(ctx, history, names)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(entities.AnalysisInputs)
}

func (m *MockAnalysisService) Parity(ctx context.Context) (*entities.ParityAnalysis, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ParityAnalysis), args.Error(1)
}

func (m *MockAnalysisService) BandStatistics(ctx context.Context) (*entities.BandStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BandStatistics), args.Error(1)
}

// MockGenerationService is a mock implementation of GenerationService
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GenerationResult), args.Error(1)
}

func (m *MockGenerationService) LastBatch(ctx context.Context) (*entities.GenerationResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GenerationResult), args.Error(1)
}
