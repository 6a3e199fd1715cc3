package services

import (
	"slices"
	"testing"

	"diadesorte/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerNumberExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("heat map only keeps hot numbers by temperature", func(t *testing.T) {
		t.Parallel()

		extractor := NewTriggerNumberExtractor(DefaultMaxTriggers, DefaultAbsenceGapThreshold)
		inputs := heatMapInputs(
			hot(7, 90), hot(12, 80), cold(3, 10), hot(20, 75), hot(28, 72),
		)

		set := extractor.Extract(nil, inputs, true)
		assert.True(t, set.Enabled)
		assert.True(t, set.Functional)
		assert.Equal(t, []int{7, 12, 20}, set.Numbers)
		for _, n := range set.Numbers {
			assert.NotEqual(t, 3, n, "cold numbers are never triggers")
		}
	})

	t.Run("echo numbers rank higher", func(t *testing.T) {
		t.Parallel()

		extractor := NewTriggerNumberExtractor(DefaultMaxTriggers, DefaultAbsenceGapThreshold)
		latest := &entities.Draw{ContestNumber: 5}

		set := extractor.Extract(latest, heatMapInputs(hot(10, 95), hot(5, 71)), true)
		assert.Equal(t, []int{5, 10}, set.Numbers)
	})

	t.Run("numbers flagged by several analyses rank higher", func(t *testing.T) {
		t.Parallel()

		extractor := NewTriggerNumberExtractor(2, DefaultAbsenceGapThreshold)
		inputs := heatMapInputs(hot(4, 99), hot(17, 72))
		inputs[entities.AnalysisAbsences] = entities.AnalysisResult{
			Name: entities.AnalysisAbsences,
			Absences: []entities.AbsenceEntry{
				{Number: 17, Absences: 12, Gap: 12},
				{Number: 30, Absences: 3, Gap: 3},
			},
		}

		set := extractor.Extract(nil, inputs, true)
		assert.Equal(t, []int{17, 4}, set.Numbers)
	})

	t.Run("no candidates is non functional", func(t *testing.T) {
		t.Parallel()

		extractor := NewTriggerNumberExtractor(DefaultMaxTriggers, DefaultAbsenceGapThreshold)

		set := extractor.Extract(nil, entities.AnalysisInputs{}, true)
		assert.True(t, set.Enabled)
		assert.False(t, set.Functional)
		assert.Empty(t, set.Numbers)
		assert.False(t, set.Active())

		set = extractor.Extract(nil, heatMapInputs(cold(3, 10)), true)
		assert.False(t, set.Functional)
	})

	t.Run("disabled returns an empty set", func(t *testing.T) {
		t.Parallel()

		extractor := NewTriggerNumberExtractor(DefaultMaxTriggers, DefaultAbsenceGapThreshold)

		set := extractor.Extract(nil, heatMapInputs(hot(7, 90)), false)
		assert.False(t, set.Enabled)
		assert.NotNil(t, set.Numbers)
		assert.Empty(t, set.Numbers)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		t.Parallel()

		extractor := NewTriggerNumberExtractor(DefaultMaxTriggers, DefaultAbsenceGapThreshold)
		latest := newDraw(2345, []int{2, 5, 9, 14, 21, 26, 30}, "Março")
		inputs := heatMapInputs(hot(1, 80), hot(2, 80), hot(3, 80), hot(23, 80), hot(31, 80))

		first := extractor.Extract(latest, inputs, true)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, extractor.Extract(latest, inputs, true))
		}
	})
}

func TestEchoNumbers(t *testing.T) {
	t.Parallel()

	assert.Nil(t, EchoNumbers(nil))

	draw := &entities.Draw{
		ContestNumber: 2345,
		DrawDate:      fixtureDrawDate,
		Arrecadation:  1987654.32,
	}
	echoes := EchoNumbers(draw)
	require.NotEmpty(t, echoes)

	numbers := make([]int, 0, len(echoes))
	for _, e := range echoes {
		assert.GreaterOrEqual(t, e.Number, entities.MinNumber)
		assert.LessOrEqual(t, e.Number, entities.MaxNumber)
		assert.NotEmpty(t, e.Source)
		numbers = append(numbers, e.Number)
	}
	assert.True(t, slices.IsSorted(numbers))
	assert.Len(t, slices.Compact(slices.Clone(numbers)), len(numbers))

	// contest substring, draw day, draw month and year substring
	for _, want := range []int{23, 15, 6, 24} {
		assert.Contains(t, numbers, want)
	}
}
