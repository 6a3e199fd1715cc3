package services

import (
	"fmt"
	"math"

	"diadesorte/domain/entities"
)

// Lucky month selection methods and the labels reported for them
const (
	LuckyMonthMethodTemperature = "temperatura"
	LuckyMonthMethodMode        = "moda"

	LuckyMonthLabelTemperature = "ANALISE_COMPLETA_NORMALIZADA"
	LuckyMonthLabelMode        = "MODA_HISTORICA"
)

// MonthStatistic is the frequency, gap and temperature of one month
type MonthStatistic struct {
	Month       entities.Month `json:"-"`
	Name        string         `json:"mes"`
	Frequency   int            `json:"frequencia"`
	Gap         int            `json:"lacuna"`
	Temperature float64        `json:"temperatura"`
}

// LuckyMonthSelector picks the single lucky month of a batch from history
type LuckyMonthSelector struct {
	method string
}

// NewLuckyMonthSelector creates a selector for the given method; unknown
// methods fall back to the temperature method
func NewLuckyMonthSelector(method string) *LuckyMonthSelector {
	if method != LuckyMonthMethodMode {
		method = LuckyMonthMethodTemperature
	}
	return &LuckyMonthSelector{method: method}
}

// Select returns the lucky month for history. It is a pure function of its
// input: ties resolve to the earliest calendar month.
func (s *LuckyMonthSelector) Select(history entities.DrawHistory) (entities.LuckyMonth, error) {
	stats, recognised := MonthStatistics(history)
	if recognised == 0 {
		return entities.LuckyMonth{}, fmt.Errorf("no recognisable lucky month in %d draws: %w", len(history), ErrUpstreamDataUnavailable)
	}

	var best MonthStatistic
	label := LuckyMonthLabelTemperature
	switch s.method {
	case LuckyMonthMethodMode:
		label = LuckyMonthLabelMode
		for _, st := range stats {
			if best.Month == 0 || st.Frequency > best.Frequency {
				best = st
			}
		}
	default:
		for _, st := range stats {
			if best.Month == 0 || st.Temperature > best.Temperature {
				best = st
			}
		}
	}

	return entities.LuckyMonth{Month: best.Month, Method: label}, nil
}

// MonthStatistics walks history oldest first and returns, in calendar order,
// each month's frequency, current gap and temperature, plus the number of
// draws whose month was recognised. Temperature favours long gaps and low
// frequency: 70*min(gap/100, 1) + 30*(1 - freq/total).
func MonthStatistics(history entities.DrawHistory) ([]MonthStatistic, int) {
	frequency := make(map[entities.Month]int, 12)
	gap := make(map[entities.Month]int, 12)
	recognised := 0

	for _, draw := range history.Chronological() {
		month, ok := entities.ParseMonth(draw.LuckyMonth)
		if ok {
			frequency[month]++
			recognised++
		}
		for _, m := range entities.AllMonths {
			if ok && m == month {
				gap[m] = 0
				continue
			}
			gap[m]++
		}
	}

	total := len(history)
	stats := make([]MonthStatistic, 0, len(entities.AllMonths))
	for _, m := range entities.AllMonths {
		st := MonthStatistic{
			Month:     m,
			Name:      m.String(),
			Frequency: frequency[m],
			Gap:       gap[m],
		}
		if total > 0 {
			normalisedGap := math.Min(float64(st.Gap)/100, 1)
			normalisedFreq := float64(st.Frequency) / float64(total)
			st.Temperature = math.Round((70*normalisedGap+30*(1-normalisedFreq))*100) / 100
		}
		stats = append(stats, st)
	}
	return stats, recognised
}
