package services

import (
	"math/rand/v2"
	"slices"
	"testing"

	"diadesorte/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generationContext(triggers entities.TriggerSet) GenerationContext {
	return GenerationContext{
		LastDraw:   newDraw(2900, []int{2, 5, 9, 14, 21, 26, 30}, "Março"),
		LuckyMonth: entities.LuckyMonth{Month: entities.Agosto, Method: LuckyMonthLabelTemperature},
		Triggers:   triggers,
		Analyses:   []entities.AnalysisName{entities.AnalysisHeatMap},
		Rules:      entities.RuleFlags{SumPattern: true, Triggers: triggers.Enabled},
	}
}

func TestTicketGenerator_GeneratesValidTickets(t *testing.T) {
	t.Parallel()

	rs := NewRuleSet(DefaultMinTriggers)
	generator := NewTicketGenerator(rs, DefaultMaxAttempts)
	gc := generationContext(entities.TriggerSet{Numbers: []int{}})

	for seed := uint64(0); seed < 50; seed++ {
		ticket, err := generator.Generate(gc, rand.New(rand.NewPCG(seed, 0)))
		require.NoError(t, err)

		assert.Len(t, ticket.Numbers, entities.NumbersPerDraw)
		assert.True(t, slices.IsSorted(ticket.Numbers))
		assert.NoError(t, entities.ValidateNumbers(ticket.Numbers))
		assert.True(t, rs.Validate(ticket.Numbers, gc.LastDraw, gc.Triggers).Accepted)

		assert.Equal(t, "Agosto", ticket.LuckyMonth)
		assert.GreaterOrEqual(t, ticket.Strength, 80)
		assert.LessOrEqual(t, ticket.Strength, 100)
		assert.GreaterOrEqual(t, ticket.Attempts, 1)
		assert.LessOrEqual(t, ticket.Attempts, DefaultMaxAttempts)
		assert.Equal(t, entities.ParityLabel(ticket.Numbers), ticket.Details.Distribution)
		assert.Equal(t, []entities.AnalysisName{entities.AnalysisHeatMap}, ticket.Details.AnalysesUsed)
		assert.Empty(t, ticket.Details.TriggersUsed)
	}
}

func TestTicketGenerator_SeedsTriggers(t *testing.T) {
	t.Parallel()

	generator := NewTicketGenerator(NewRuleSet(DefaultMinTriggers), DefaultMaxAttempts)
	triggers := entities.TriggerSet{Numbers: []int{7, 18, 23}, Enabled: true, Functional: true}
	gc := generationContext(triggers)

	for seed := uint64(0); seed < 20; seed++ {
		ticket, err := generator.Generate(gc, rand.New(rand.NewPCG(seed, 1)))
		require.NoError(t, err)
		require.NotEmpty(t, ticket.Details.TriggersUsed)
		for _, n := range ticket.Details.TriggersUsed {
			assert.Contains(t, ticket.Numbers, n)
			assert.Contains(t, triggers.Numbers, n)
		}
	}
}

func TestTicketGenerator_Exhausted(t *testing.T) {
	t.Parallel()

	generator := NewTicketGenerator(NewRuleSet(DefaultMinTriggers), 50)
	gc := generationContext(entities.TriggerSet{Numbers: []int{}})
	gc.LastDraw = nil

	_, err := generator.Generate(gc, rand.New(rand.NewPCG(1, 2)))
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestTicketGenerator_Reproducible(t *testing.T) {
	t.Parallel()

	generator := NewTicketGenerator(NewRuleSet(DefaultMinTriggers), DefaultMaxAttempts)
	gc := generationContext(entities.TriggerSet{Numbers: []int{}})

	first, err := generator.Generate(gc, rand.New(rand.NewPCG(42, 7)))
	require.NoError(t, err)
	second, err := generator.Generate(gc, rand.New(rand.NewPCG(42, 7)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		eval     Evaluation
		rules    entities.RuleFlags
		expected int
	}{
		{
			name:     "base",
			eval:     Evaluation{EvenCount: 4, Repeats: 1, Sum: 60},
			expected: 80,
		},
		{
			name:     "favoured parity",
			eval:     Evaluation{EvenCount: 3, Repeats: 1},
			expected: 84,
		},
		{
			name:     "sum bonus only when requested",
			eval:     Evaluation{EvenCount: 4, Repeats: 1, Sum: 100},
			expected: 80,
		},
		{
			name:     "sum bonus",
			eval:     Evaluation{EvenCount: 4, Repeats: 1, Sum: 100},
			rules:    entities.RuleFlags{SumPattern: true},
			expected: 83,
		},
		{
			name:     "trigger bonus is capped",
			eval:     Evaluation{EvenCount: 4, Repeats: 1, TriggersPresent: []int{1, 2, 3}},
			expected: 84,
		},
		{
			name: "everything favoured is capped at 100",
			eval: Evaluation{
				EvenCount:        3,
				EqualEndingPairs: 2,
				ConsecutivePairs: 2,
				Repeats:          2,
				Sum:              110,
				TriggersPresent:  []int{1, 2},
			},
			rules:    entities.RuleFlags{SumPattern: true},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Strength(tt.eval, tt.rules))
		})
	}
}
