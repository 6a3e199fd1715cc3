package services

import (
	"testing"

	"diadesorte/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuckyMonthSelector_Select(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		method   string
		history  entities.DrawHistory
		expected entities.LuckyMonth
	}{
		{
			name:     "temperature favours never drawn months, earliest wins ties",
			method:   LuckyMonthMethodTemperature,
			history:  fixtureHistory(5),
			expected: entities.LuckyMonth{Month: entities.Fevereiro, Method: LuckyMonthLabelTemperature},
		},
		{
			name:     "mode picks the most frequent month",
			method:   LuckyMonthMethodMode,
			history:  fixtureHistory(5),
			expected: entities.LuckyMonth{Month: entities.Marco, Method: LuckyMonthLabelMode},
		},
		{
			name:   "mode tie resolves to the earliest month",
			method: LuckyMonthMethodMode,
			history: entities.DrawHistory{
				newDraw(2, []int{1, 2, 3, 4, 5, 6, 7}, "Fevereiro"),
				newDraw(1, []int{1, 2, 3, 4, 5, 6, 7}, "jan"),
			},
			expected: entities.LuckyMonth{Month: entities.Janeiro, Method: LuckyMonthLabelMode},
		},
		{
			name:     "unknown method falls back to temperature",
			method:   "astrologia",
			history:  fixtureHistory(5),
			expected: entities.LuckyMonth{Month: entities.Fevereiro, Method: LuckyMonthLabelTemperature},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			selector := NewLuckyMonthSelector(tt.method)
			got, err := selector.Select(tt.history)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLuckyMonthSelector_Idempotent(t *testing.T) {
	t.Parallel()

	selector := NewLuckyMonthSelector(LuckyMonthMethodTemperature)
	history := fixtureHistory(40)

	first, err := selector.Select(history)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := selector.Select(history)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLuckyMonthSelector_NoData(t *testing.T) {
	t.Parallel()

	selector := NewLuckyMonthSelector(LuckyMonthMethodTemperature)

	_, err := selector.Select(nil)
	assert.ErrorIs(t, err, ErrUpstreamDataUnavailable)

	_, err = selector.Select(entities.DrawHistory{
		newDraw(1, []int{1, 2, 3, 4, 5, 6, 7}, "Flamengo"),
	})
	assert.ErrorIs(t, err, ErrUpstreamDataUnavailable)
}

func TestMonthStatistics(t *testing.T) {
	t.Parallel()

	stats, recognised := MonthStatistics(fixtureHistory(5))
	require.Len(t, stats, 12)
	assert.Equal(t, 5, recognised)

	byMonth := make(map[entities.Month]MonthStatistic)
	for _, st := range stats {
		byMonth[st.Month] = st
	}

	assert.Equal(t, 2, byMonth[entities.Marco].Frequency)
	assert.Equal(t, 0, byMonth[entities.Marco].Gap)
	assert.Equal(t, 3, byMonth[entities.Janeiro].Gap)
	assert.InDelta(t, 26.1, byMonth[entities.Janeiro].Temperature, 0.001)
	assert.Equal(t, 5, byMonth[entities.Fevereiro].Gap)
	assert.InDelta(t, 33.5, byMonth[entities.Fevereiro].Temperature, 0.001)
}
