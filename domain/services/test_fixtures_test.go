package services

import (
	"slices"
	"time"

	"diadesorte/domain/entities"
)

var fixtureDrawDate = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

func newDraw(contest int64, numbers []int, month string) *entities.Draw {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)
	return &entities.Draw{
		ContestNumber: contest,
		DrawDate:      fixtureDrawDate.AddDate(0, 0, -int(1000-contest)),
		Numbers:       sorted,
		DrawOrder:     numbers,
		LuckyMonth:    month,
	}
}

// fixtureHistory returns n well-formed draws, newest first, cycling through a
// fixed set of results and months
func fixtureHistory(n int) entities.DrawHistory {
	results := [][]int{
		{2, 5, 9, 14, 21, 26, 30},
		{1, 7, 12, 15, 18, 24, 29},
		{3, 8, 10, 13, 20, 27, 31},
		{4, 6, 11, 16, 19, 22, 28},
		{2, 9, 12, 17, 20, 23, 25},
	}
	months := []string{"Março", "Julho", "Outubro", "Janeiro", "Março"}

	history := make(entities.DrawHistory, 0, n)
	for i := 0; i < n; i++ {
		history = append(history, newDraw(int64(1000-i), results[i%len(results)], months[i%len(months)]))
	}
	return history
}

// heatMapInputs builds analysis inputs holding only a heat map
func heatMapInputs(entries ...entities.HeatMapEntry) entities.AnalysisInputs {
	return entities.AnalysisInputs{
		entities.AnalysisHeatMap: {Name: entities.AnalysisHeatMap, HeatMap: entries},
	}
}

func hot(n int, temperature float64) entities.HeatMapEntry {
	return entities.HeatMapEntry{Number: n, Status: entities.HeatStatusHot, Temperature: temperature}
}

func cold(n int, temperature float64) entities.HeatMapEntry {
	return entities.HeatMapEntry{Number: n, Status: entities.HeatStatusCold, Temperature: temperature}
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}
