package entities

import (
	"fmt"
	"slices"
	"time"
)

// Draw format constants for Dia de Sorte
const (
	NumbersPerDraw = 7
	MinNumber      = 1
	MaxNumber      = 31
)

// Data source labels reported with each generation result
const (
	DataSourceUpstream = "API_CAIXA"
	DataSourceLocal    = "HISTORICO_LOCAL"
)

// Draw represents one published contest result
type Draw struct {
	ContestNumber      int64      `json:"contest_number"`
	DrawDate           time.Time  `json:"draw_date"`
	Numbers            []int      `json:"numbers"`    // ascending
	DrawOrder          []int      `json:"draw_order"` // order in which the balls came out
	LuckyMonth         string     `json:"lucky_month"`
	Arrecadation       float64    `json:"arrecadation"`
	Accumulated        bool       `json:"accumulated"`
	NextContestNumber  int64      `json:"next_contest_number,omitempty"`
	NextDrawDate       *time.Time `json:"next_draw_date,omitempty"`
	NextEstimatedPrize float64    `json:"next_estimated_prize,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Validate checks the structural invariants of a draw record
func (d *Draw) Validate() error {
	if d.ContestNumber <= 0 {
		return fmt.Errorf("contest number must be positive, got %d", d.ContestNumber)
	}
	return ValidateNumbers(d.Numbers)
}

// Contains reports whether n was drawn in this contest
func (d *Draw) Contains(n int) bool {
	return slices.Contains(d.Numbers, n)
}

// CountShared returns how many of the given numbers also appear in this draw
func (d *Draw) CountShared(numbers []int) int {
	if d == nil {
		return 0
	}
	shared := 0
	for _, n := range numbers {
		if d.Contains(n) {
			shared++
		}
	}
	return shared
}

// EvenCount returns the number of even numbers in the draw
func (d *Draw) EvenCount() int {
	even := 0
	for _, n := range d.Numbers {
		if n%2 == 0 {
			even++
		}
	}
	return even
}

// ParityLabel formats the draw's parity split as "3P/4I"
func (d *Draw) ParityLabel() string {
	return ParityLabel(d.Numbers)
}

// FormattedDate returns the draw date in the dd/mm/yyyy form used upstream
func (d *Draw) FormattedDate() string {
	if d.DrawDate.IsZero() {
		return ""
	}
	return d.DrawDate.Format("02/01/2006")
}

// ValidateNumbers checks that numbers hold 7 distinct values within range
func ValidateNumbers(numbers []int) error {
	if len(numbers) != NumbersPerDraw {
		return fmt.Errorf("expected %d numbers, got %d", NumbersPerDraw, len(numbers))
	}
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("number %d out of range [%d, %d]", n, MinNumber, MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}

// ParityLabel formats the even/odd split of numbers as "<even>P/<odd>I"
func ParityLabel(numbers []int) string {
	even := 0
	for _, n := range numbers {
		if n%2 == 0 {
			even++
		}
	}
	return fmt.Sprintf("%dP/%dI", even, len(numbers)-even)
}

// DrawHistory is an immutable view over draws ordered newest first
type DrawHistory []*Draw

// Latest returns the most recent draw, or nil for an empty history
func (h DrawHistory) Latest() *Draw {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// Chronological returns a copy of the history ordered oldest first
func (h DrawHistory) Chronological() []*Draw {
	out := make([]*Draw, len(h))
	for i, d := range h {
		out[len(h)-1-i] = d
	}
	return out
}

// Window returns at most the n most recent draws
func (h DrawHistory) Window(n int) DrawHistory {
	if n <= 0 || n >= len(h) {
		return h
	}
	return h[:n]
}
