package services

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"diadesorte/domain/entities"
)

const (
	DefaultMaxAttempts = 1000

	baseStrength       = 80
	maxStrength        = 100
	maxSeededTriggers  = 3
	triggerBonus       = 2
	maxTriggerBonus    = 4
	parityBonus        = 4
	equalEndingsBonus  = 3
	sequenceBonus      = 3
	repeatBonus        = 3
	sumPatternBonus    = 3
	favouredEvenCount  = 3
	favouredPairsCount = 2
)

// GenerationContext carries the read-only inputs shared by every ticket in a batch
type GenerationContext struct {
	LastDraw   *entities.Draw
	LuckyMonth entities.LuckyMonth
	Triggers   entities.TriggerSet
	Analyses   []entities.AnalysisName
	Rules      entities.RuleFlags
}

// TicketGenerator produces one valid ticket by sampling under the rule set
type TicketGenerator struct {
	ruleSet     *RuleSet
	maxAttempts int
}

// NewTicketGenerator creates a generator bounded by maxAttempts per ticket
func NewTicketGenerator(ruleSet *RuleSet, maxAttempts int) *TicketGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &TicketGenerator{
		ruleSet:     ruleSet,
		maxAttempts: maxAttempts,
	}
}

// Generate samples candidates until one passes every active rule. Reaching the
// attempt ceiling returns ErrGenerationExhausted instead of a partial ticket.
func (g *TicketGenerator) Generate(gc GenerationContext, rng *rand.Rand) (entities.Ticket, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate := g.sample(gc.Triggers, rng)
		eval := g.ruleSet.Validate(candidate, gc.LastDraw, gc.Triggers)
		if !eval.Accepted {
			continue
		}
		return g.buildTicket(candidate, eval, gc, attempt), nil
	}
	return entities.Ticket{}, fmt.Errorf("no valid ticket after %d attempts: %w", g.maxAttempts, ErrGenerationExhausted)
}

// sample draws 7 distinct numbers. With an active trigger set, 1..3 trigger
// numbers are seeded first and the rest drawn uniformly.
func (g *TicketGenerator) sample(triggers entities.TriggerSet, rng *rand.Rand) []int {
	picked := make([]int, 0, entities.NumbersPerDraw)
	used := make([]bool, entities.MaxNumber+1)

	if triggers.Active() {
		limit := min(maxSeededTriggers, len(triggers.Numbers))
		seeds := 1 + rng.IntN(limit)
		for _, idx := range rng.Perm(len(triggers.Numbers))[:seeds] {
			n := triggers.Numbers[idx]
			if !used[n] {
				used[n] = true
				picked = append(picked, n)
			}
		}
	}

	for len(picked) < entities.NumbersPerDraw {
		n := entities.MinNumber + rng.IntN(entities.MaxNumber-entities.MinNumber+1)
		if used[n] {
			continue
		}
		used[n] = true
		picked = append(picked, n)
	}

	slices.Sort(picked)
	return picked
}

func (g *TicketGenerator) buildTicket(numbers []int, eval Evaluation, gc GenerationContext, attempts int) entities.Ticket {
	analyses := slices.Clone(gc.Analyses)
	if analyses == nil {
		analyses = []entities.AnalysisName{}
	}

	return entities.Ticket{
		Numbers:    numbers,
		LuckyMonth: gc.LuckyMonth.Month.String(),
		Strength:   Strength(eval, gc.Rules),
		Attempts:   attempts,
		Details: entities.TicketDetails{
			AnalysesUsed: analyses,
			Distribution: entities.ParityLabel(numbers),
			EqualEndings: eval.EqualEndingPairs,
			Sequences:    eval.ConsecutivePairs,
			RepeatsLast:  eval.Repeats,
			Sum:          eval.Sum,
			TriggersUsed: eval.TriggersPresent,
		},
	}
}

// Strength scores an accepted candidate: 80 for passing every mandatory rule
// plus bonuses for the historically favoured shapes, capped at 100.
func Strength(eval Evaluation, rules entities.RuleFlags) int {
	strength := baseStrength
	if eval.EvenCount == favouredEvenCount {
		strength += parityBonus
	}
	if eval.EqualEndingPairs == favouredPairsCount {
		strength += equalEndingsBonus
	}
	if eval.ConsecutivePairs == favouredPairsCount {
		strength += sequenceBonus
	}
	if eval.Repeats == favouredPairsCount {
		strength += repeatBonus
	}
	if rules.SumPattern && SumInPattern(eval.Sum) {
		strength += sumPatternBonus
	}
	strength += min(len(eval.TriggersPresent)*triggerBonus, maxTriggerBonus)
	return min(strength, maxStrength)
}
