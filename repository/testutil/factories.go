package testutil

import (
	"time"

	"diadesorte/domain/entities"
)

// CreateTestDraw creates a valid draw for contestNumber with default values
func CreateTestDraw(contestNumber int64) *entities.Draw {
	return &entities.Draw{
		ContestNumber: contestNumber,
		DrawDate:      time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(contestNumber)),
		Numbers:       []int{2, 5, 9, 14, 21, 26, 30},
		DrawOrder:     []int{14, 2, 30, 9, 26, 5, 21},
		LuckyMonth:    "Março",
		Arrecadation:  1_234_567.5,
	}
}

// CreateTestDrawWithNumbers creates a test draw with specific numbers
func CreateTestDrawWithNumbers(contestNumber int64, numbers []int) *entities.Draw {
	draw := CreateTestDraw(contestNumber)
	draw.Numbers = numbers
	draw.DrawOrder = numbers
	return draw
}

// CreateTestDrawWithNextContest creates a test draw announcing the next contest
func CreateTestDrawWithNextContest(contestNumber int64, prize float64) *entities.Draw {
	draw := CreateTestDraw(contestNumber)
	next := draw.DrawDate.AddDate(0, 0, 2)
	draw.NextContestNumber = contestNumber + 1
	draw.NextDrawDate = &next
	draw.NextEstimatedPrize = prize
	return draw
}
