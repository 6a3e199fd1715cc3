package entities

import (
	"slices"
	"time"
)

// RuleName identifies a generation rule
type RuleName string

const (
	RuleStructure  RuleName = "estrutura"
	RuleParity     RuleName = "pares_impares"
	RuleEndings    RuleName = "finais_iguais"
	RuleSequences  RuleName = "sequencias"
	RuleRepeats    RuleName = "repeticoes"
	RuleBands      RuleName = "distribuicao_faixas"
	RuleSumPattern RuleName = "padrao_dezenas"
	RuleTriggers   RuleName = "numeros_gatilho"
)

// MandatoryRules are always enforced whatever the request says
var MandatoryRules = []RuleName{
	RuleParity,
	RuleEndings,
	RuleSequences,
	RuleRepeats,
	RuleBands,
}

// OptionalRules may be switched on per request
var OptionalRules = []RuleName{
	RuleSumPattern,
	RuleTriggers,
}

// IsKnownRule reports whether name is a mandatory or optional rule
func IsKnownRule(name RuleName) bool {
	return slices.Contains(MandatoryRules, name) || slices.Contains(OptionalRules, name)
}

// IsMandatory reports whether name is one of the always-on rules
func (r RuleName) IsMandatory() bool {
	return slices.Contains(MandatoryRules, r)
}

// RuleFlags carries the optional rules requested for a batch
type RuleFlags struct {
	SumPattern bool
	Triggers   bool
}

// GenerationRequest describes one batch to generate
type GenerationRequest struct {
	Quantity int
	Analyses []AnalysisName
	Rules    RuleFlags
	// Seed makes the batch reproducible when set
	Seed *uint64
}

// TriggerSet holds the trigger numbers shared by a batch
type TriggerSet struct {
	Numbers    []int `json:"numbers"`
	Enabled    bool  `json:"enabled"`
	Functional bool  `json:"functional"`
}

// Active reports whether the trigger rule constrains generation
func (t TriggerSet) Active() bool {
	return t.Enabled && t.Functional && len(t.Numbers) > 0
}

// Present returns the trigger numbers found in numbers, in trigger order
func (t TriggerSet) Present(numbers []int) []int {
	present := []int{}
	if !t.Active() {
		return present
	}
	for _, n := range t.Numbers {
		if slices.Contains(numbers, n) {
			present = append(present, n)
		}
	}
	return present
}

// TicketDetails is the diagnostics record of an accepted ticket
type TicketDetails struct {
	AnalysesUsed []AnalysisName `json:"analises_usadas"`
	Distribution string         `json:"distribuicao"`
	EqualEndings int            `json:"finais_iguais"`
	Sequences    int            `json:"sequencias"`
	RepeatsLast  int            `json:"repeticoes_ultimo"`
	Sum          int            `json:"soma"`
	TriggersUsed []int          `json:"numeros_gatilho_usados"`
}

// Ticket is one generated suggestion
type Ticket struct {
	Numbers    []int         `json:"dezenas"`
	LuckyMonth string        `json:"mes_sorte"`
	Strength   int           `json:"forca"`
	Attempts   int           `json:"tentativas"`
	Details    TicketDetails `json:"detalhes"`
}

// GenerationResult is a fully valid batch of tickets
type GenerationResult struct {
	BatchID             string     `json:"batch_id"`
	Tickets             []Ticket   `json:"tickets"`
	Triggers            TriggerSet `json:"triggers"`
	TicketsWithTriggers int        `json:"tickets_with_triggers"`
	LuckyMonth          LuckyMonth `json:"lucky_month"`
	LatestDraw          *Draw      `json:"latest_draw"`
	DataSource          string     `json:"data_source"`
	GeneratedAt         time.Time  `json:"generated_at"`
}

// Total returns the number of tickets in the batch
func (r *GenerationResult) Total() int {
	return len(r.Tickets)
}
