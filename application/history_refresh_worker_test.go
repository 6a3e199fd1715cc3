package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"diadesorte/domain/testhelpers"
	"diadesorte/infrastructure/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryRefreshWorker_InvalidSchedule(t *testing.T) {
	_, err := NewHistoryRefreshWorker(new(testhelpers.MockHistoryService), nil, "every tuesday", 10)
	assert.ErrorContains(t, err, "invalid history refresh schedule")
}

func TestHistoryRefreshWorker_NextRun(t *testing.T) {
	w, err := NewHistoryRefreshWorker(new(testhelpers.MockHistoryService), nil, "30 21 * * 2,4,6", 10)
	require.NoError(t, err)
	assert.Equal(t, "30 21 * * 2,4,6", w.expr)

	// Monday 2024-06-17 12:00 in São Paulo
	monday := time.Date(2024, time.June, 17, 15, 0, 0, 0, time.UTC)
	next := w.NextRun(monday)

	assert.Equal(t, time.Tuesday, next.Weekday())
	assert.Equal(t, 21, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, DrawTimezone, next.Location().String())
}

func TestHistoryRefreshWorker_Refresh(t *testing.T) {
	t.Run("records success", func(t *testing.T) {
		history := new(testhelpers.MockHistoryService)
		metrics := new(testhelpers.MockHistoryMetrics)
		history.On("Load", mock.Anything, 10, mock.Anything).Return(3, nil)
		metrics.On("RecordHistoryRefresh", observability.TriggerScheduled, 3, nil).Return()

		w, err := NewHistoryRefreshWorker(history, metrics, "30 21 * * 2,4,6", 10)
		require.NoError(t, err)
		w.Refresh(context.Background())

		history.AssertExpectations(t)
		metrics.AssertExpectations(t)
	})

	t.Run("records failure", func(t *testing.T) {
		history := new(testhelpers.MockHistoryService)
		metrics := new(testhelpers.MockHistoryMetrics)
		loadErr := errors.New("upstream down")
		history.On("Load", mock.Anything, 10, mock.Anything).Return(0, loadErr)
		metrics.On("RecordHistoryRefresh", observability.TriggerScheduled, 0, loadErr).Return()

		w, err := NewHistoryRefreshWorker(history, metrics, "30 21 * * 2,4,6", 10)
		require.NoError(t, err)
		w.Refresh(context.Background())

		metrics.AssertExpectations(t)
	})

	t.Run("skips when cancelled", func(t *testing.T) {
		history := new(testhelpers.MockHistoryService)

		w, err := NewHistoryRefreshWorker(history, nil, "30 21 * * 2,4,6", 10)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w.Refresh(ctx)

		history.AssertNotCalled(t, "Load", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHistoryRefreshWorker_StartStop(t *testing.T) {
	history := new(testhelpers.MockHistoryService)
	w, err := NewHistoryRefreshWorker(history, nil, "30 21 * * 2,4,6", 10)
	require.NoError(t, err)

	stop := w.Start(context.Background())
	assert.NotPanics(t, stop)
}
