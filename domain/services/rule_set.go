package services

import (
	"slices"

	"diadesorte/domain/entities"
)

// Accepted bands for the mandatory rules
const (
	minEvenNumbers       = 3
	maxEvenNumbers       = 4
	maxSharedEnding      = 2
	maxConsecutiveRun    = 2
	minRepeatsFromLast   = 1
	maxRepeatsFromLast   = 3
	minNumbersPerBand    = 2
	maxNumbersPerBand    = 3
	DefaultMinTriggers   = 1
	sumPatternLowerBound = 90
	sumPatternUpperBound = 135
)

// RuleMeasurement is the measured value of one rule for a candidate
type RuleMeasurement struct {
	Rule     entities.RuleName
	Value    int
	Accepted bool
}

// Evaluation is the outcome of validating one candidate
type Evaluation struct {
	Accepted     bool
	FailedRule   entities.RuleName
	Measurements []RuleMeasurement

	EvenCount        int
	EqualEndingPairs int
	ConsecutivePairs int
	Repeats          int
	Sum              int
	TriggersPresent  []int
}

// Measurement returns the measurement recorded for rule, if any
func (e Evaluation) Measurement(rule entities.RuleName) (RuleMeasurement, bool) {
	for _, m := range e.Measurements {
		if m.Rule == rule {
			return m, true
		}
	}
	return RuleMeasurement{}, false
}

// candidateStats are computed once per candidate and shared by every rule
type candidateStats struct {
	numbers          []int
	valid            bool
	evenCount        int
	largestEnding    int
	equalEndingPairs int
	longestRun       int
	consecutivePairs int
	repeats          int
	bandCounts       []int
	sum              int
	triggersPresent  []int
}

type rule struct {
	name     entities.RuleName
	alwaysOn bool
	check    func(s candidateStats) (int, bool)
}

// RuleSet validates candidate tickets against the structural rules
type RuleSet struct {
	rules       []rule
	minTriggers int
}

// NewRuleSet creates a rule set; minTriggers is the number of trigger numbers a
// candidate must hold when the trigger rule is active (0 makes it a preference)
func NewRuleSet(minTriggers int) *RuleSet {
	if minTriggers < 0 {
		minTriggers = 0
	}
	rs := &RuleSet{minTriggers: minTriggers}
	rs.rules = []rule{
		{name: entities.RuleParity, alwaysOn: true, check: checkParity},
		{name: entities.RuleEndings, alwaysOn: true, check: checkEndings},
		{name: entities.RuleSequences, alwaysOn: true, check: checkSequences},
		{name: entities.RuleRepeats, alwaysOn: true, check: checkRepeats},
		{name: entities.RuleBands, alwaysOn: true, check: checkBands},
	}
	return rs
}

// MinTriggers returns the configured trigger minimum
func (rs *RuleSet) MinTriggers() int {
	return rs.minTriggers
}

// Validate evaluates numbers against every mandatory rule and, when the trigger
// set is active, the trigger inclusion rule. It never mutates its inputs.
func (rs *RuleSet) Validate(numbers []int, lastDraw *entities.Draw, triggers entities.TriggerSet) Evaluation {
	stats := computeStats(numbers, lastDraw, triggers)

	eval := Evaluation{
		Accepted:         true,
		EvenCount:        stats.evenCount,
		EqualEndingPairs: stats.equalEndingPairs,
		ConsecutivePairs: stats.consecutivePairs,
		Repeats:          stats.repeats,
		Sum:              stats.sum,
		TriggersPresent:  stats.triggersPresent,
	}

	if !stats.valid {
		eval.Accepted = false
		eval.FailedRule = entities.RuleStructure
		eval.Measurements = append(eval.Measurements, RuleMeasurement{Rule: entities.RuleStructure, Value: len(numbers)})
		return eval
	}

	active := rs.rules
	if triggers.Active() {
		active = append(slices.Clip(active), rule{name: entities.RuleTriggers, check: rs.checkTriggers})
	}

	for _, r := range active {
		value, ok := r.check(stats)
		eval.Measurements = append(eval.Measurements, RuleMeasurement{Rule: r.name, Value: value, Accepted: ok})
		if !ok && eval.Accepted {
			eval.Accepted = false
			eval.FailedRule = r.name
		}
	}

	return eval
}

// SumInPattern reports whether sum lies in the historically common range
func SumInPattern(sum int) bool {
	return sum >= sumPatternLowerBound && sum <= sumPatternUpperBound
}

func computeStats(numbers []int, lastDraw *entities.Draw, triggers entities.TriggerSet) candidateStats {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	s := candidateStats{
		numbers:    sorted,
		valid:      entities.ValidateNumbers(sorted) == nil,
		bandCounts: make([]int, len(entities.Bands)),
	}

	endings := make(map[int]int)
	for _, n := range sorted {
		if n%2 == 0 {
			s.evenCount++
		}
		endings[n%10]++
		s.sum += n
		if idx := entities.BandIndex(n); idx >= 0 {
			s.bandCounts[idx]++
		}
	}

	for _, count := range endings {
		if count > s.largestEnding {
			s.largestEnding = count
		}
		if count == 2 {
			s.equalEndingPairs++
		}
	}

	run := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			s.consecutivePairs++
			run++
		} else {
			run = 1
		}
		if run > s.longestRun {
			s.longestRun = run
		}
	}
	if len(sorted) > 0 && s.longestRun == 0 {
		s.longestRun = 1
	}

	s.repeats = lastDraw.CountShared(sorted)
	s.triggersPresent = triggers.Present(sorted)
	return s
}

func checkParity(s candidateStats) (int, bool) {
	return s.evenCount, s.evenCount >= minEvenNumbers && s.evenCount <= maxEvenNumbers
}

func checkEndings(s candidateStats) (int, bool) {
	return s.largestEnding, s.largestEnding <= maxSharedEnding
}

func checkSequences(s candidateStats) (int, bool) {
	return s.longestRun, s.longestRun <= maxConsecutiveRun
}

func checkRepeats(s candidateStats) (int, bool) {
	return s.repeats, s.repeats >= minRepeatsFromLast && s.repeats <= maxRepeatsFromLast
}

func checkBands(s candidateStats) (int, bool) {
	covered := 0
	ok := true
	for _, count := range s.bandCounts {
		if count > 0 {
			covered++
		}
		if count < minNumbersPerBand || count > maxNumbersPerBand {
			ok = false
		}
	}
	return covered, ok
}

func (rs *RuleSet) checkTriggers(s candidateStats) (int, bool) {
	return len(s.triggersPresent), len(s.triggersPresent) >= rs.minTriggers
}
