package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"
)

const (
	// analysisWindow bounds the draws consulted by the pattern analyses
	analysisWindow     = 100
	parityWindow       = 100
	blocksWindow       = 10
	absenceListSize    = 15
	highlightPairs     = 3
	highlightRepeaters = 5
	minBandStatDraws   = 10
)

// analysisService implements statistical analyses over the stored history
type analysisService struct {
	drawRepo interfaces.DrawRepository
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(drawRepo interfaces.DrawRepository) interfaces.AnalysisService {
	return &analysisService{drawRepo: drawRepo}
}

func (s *analysisService) loadHistory(ctx context.Context, limit int) (entities.DrawHistory, error) {
	draws, err := s.drawRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load draw history: %w", err)
	}
	if len(draws) == 0 {
		return nil, fmt.Errorf("no draws stored: %w", ErrUpstreamDataUnavailable)
	}
	return entities.DrawHistory(draws), nil
}

// Analyse computes one named analysis over the full stored history
func (s *analysisService) Analyse(ctx context.Context, name entities.AnalysisName) (entities.AnalysisResult, error) {
	history, err := s.loadHistory(ctx, 0)
	if err != nil {
		return entities.AnalysisResult{}, err
	}
	return ComputeAnalysis(history, name), nil
}

// Inputs computes only the requested analyses
func (s *analysisService) Inputs(ctx context.Context, history entities.DrawHistory, names []entities.AnalysisName) entities.AnalysisInputs {
	inputs := make(entities.AnalysisInputs, len(names))
	for _, name := range names {
		inputs[name] = ComputeAnalysis(history, name)
	}
	return inputs
}

// Parity returns the even/odd distribution over the last 100 draws
func (s *analysisService) Parity(ctx context.Context) (*entities.ParityAnalysis, error) {
	history, err := s.loadHistory(ctx, parityWindow)
	if err != nil {
		return nil, err
	}
	return ParityDistribution(history), nil
}

// BandStatistics summarises low, middle and high band frequencies
func (s *analysisService) BandStatistics(ctx context.Context) (*entities.BandStatistics, error) {
	history, err := s.loadHistory(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(history) < minBandStatDraws {
		return nil, fmt.Errorf("need at least %d draws for band statistics, have %d: %w",
			minBandStatDraws, len(history), ErrUpstreamDataUnavailable)
	}
	return ComputeBandStatistics(history), nil
}

// ComputeAnalysis dispatches to the analysis named
func ComputeAnalysis(history entities.DrawHistory, name entities.AnalysisName) entities.AnalysisResult {
	window := history.Window(analysisWindow)
	result := entities.AnalysisResult{Name: name}

	switch name {
	case entities.AnalysisHeatMap:
		result.HeatMap = HeatMap(history)
		result.Description = "Temperatura por frequencia e lacuna"
	case entities.AnalysisAbsences:
		result.Absences = Absences(history)
		result.Description = "Dezenas ha mais tempo sem sair"
	case entities.AnalysisPositions:
		result.Positions = Positions(window)
		result.Description = "Dezena mais frequente em cada posicao do sorteio"
	case entities.AnalysisSisters:
		result.Highlighted = sisterNumbers(window)
		result.Description = "Pares de dezenas que mais saem juntas"
	case entities.AnalysisTubular:
		result.Highlighted = tubularNumbers(window)
		result.Description = "Dezenas consecutivas que mais saem juntas"
	case entities.AnalysisEndings:
		result.Highlighted = endingNumbers(window)
		result.Description = "Dezenas com o final mais frequente"
	case entities.AnalysisRepeats:
		result.Highlighted = repeaterNumbers(window)
		result.Description = "Dezenas que mais repetem do concurso anterior"
	case entities.AnalysisBlocks:
		result.Highlighted = blockNumbers(history.Window(blocksWindow), window)
		result.Description = "Faixa menos sorteada nos ultimos concursos"
	}
	return result
}

// numberStats returns per-number frequency and current gap (draws since the
// last appearance, or the history length when never drawn)
func numberStats(history entities.DrawHistory) (freq, gap [entities.MaxNumber + 1]int) {
	for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
		gap[n] = len(history)
	}
	for idx, draw := range history {
		for _, n := range draw.Numbers {
			if n < entities.MinNumber || n > entities.MaxNumber {
				continue
			}
			freq[n]++
			if gap[n] == len(history) {
				gap[n] = idx
			}
		}
	}
	return freq, gap
}

// HeatMap scores every number with 100*(0.7*freq/total + 0.3*(1-gap/total)),
// hottest first
func HeatMap(history entities.DrawHistory) []entities.HeatMapEntry {
	freq, gap := numberStats(history)
	total := float64(len(history))

	entries := make([]entities.HeatMapEntry, 0, entities.MaxNumber)
	for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
		var temperature float64
		if total > 0 {
			temperature = (float64(freq[n])/total)*0.7 + (1-float64(gap[n])/total)*0.3
			temperature = math.Round(temperature*100*100) / 100
		}
		entries = append(entries, entities.HeatMapEntry{
			Number:      n,
			Status:      entities.HeatStatusFor(temperature),
			Frequency:   freq[n],
			Gap:         gap[n],
			Temperature: temperature,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Temperature > entries[j].Temperature
	})
	return entries
}

// Absences lists the 15 numbers missing for the longest time
func Absences(history entities.DrawHistory) []entities.AbsenceEntry {
	freq, gap := numberStats(history)

	entries := make([]entities.AbsenceEntry, 0, entities.MaxNumber)
	for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
		entries = append(entries, entities.AbsenceEntry{
			Number:   n,
			Absences: len(history) - freq[n],
			Gap:      gap[n],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Gap != entries[j].Gap {
			return entries[i].Gap > entries[j].Gap
		}
		return entries[i].Absences > entries[j].Absences
	})
	if len(entries) > absenceListSize {
		entries = entries[:absenceListSize]
	}
	return entries
}

// Positions finds the most frequent number at each draw-order position
func Positions(history entities.DrawHistory) []entities.PositionEntry {
	counts := make([][entities.MaxNumber + 1]int, entities.NumbersPerDraw)
	for _, draw := range history {
		order := draw.DrawOrder
		if len(order) != entities.NumbersPerDraw {
			order = draw.Numbers
		}
		for pos, n := range order {
			if pos < entities.NumbersPerDraw && n >= entities.MinNumber && n <= entities.MaxNumber {
				counts[pos][n]++
			}
		}
	}

	entries := make([]entities.PositionEntry, 0, entities.NumbersPerDraw)
	for pos := range counts {
		best, bestCount := 0, 0
		for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
			if counts[pos][n] > bestCount {
				best, bestCount = n, counts[pos][n]
			}
		}
		if bestCount > 0 {
			entries = append(entries, entities.PositionEntry{Position: pos + 1, Number: best, Frequency: bestCount})
		}
	}
	return entries
}

// ParityDistribution counts the "xP/yI" split of each draw
func ParityDistribution(history entities.DrawHistory) *entities.ParityAnalysis {
	dist := make(map[string]int)
	for _, draw := range history {
		dist[draw.ParityLabel()]++
	}

	var best entities.ParityPattern
	for label, count := range dist {
		if count > best.Count || (count == best.Count && label < best.Label) {
			best = entities.ParityPattern{Label: label, Count: count}
		}
	}

	return &entities.ParityAnalysis{
		Distributions:  dist,
		MostCommon:     best,
		Recommendation: fmt.Sprintf("Use a distribuicao %s (mais comum historicamente)", best.Label),
		DrawsAnalysed:  len(history),
	}
}

// ComputeBandStatistics reports per-band averages, top numbers and per-draw distributions
func ComputeBandStatistics(history entities.DrawHistory) *entities.BandStatistics {
	freq, _ := numberStats(history)
	total := len(history)

	perDraw := make([]map[int]int, len(entities.Bands))
	sums := make([]int, len(entities.Bands))
	for i := range perDraw {
		perDraw[i] = make(map[int]int)
	}
	for _, draw := range history {
		counts := make([]int, len(entities.Bands))
		for _, n := range draw.Numbers {
			if idx := entities.BandIndex(n); idx >= 0 {
				counts[idx]++
			}
		}
		for i, c := range counts {
			perDraw[i][c]++
			sums[i] += c
		}
	}

	ranked := make([][]entities.NumberFrequency, len(entities.Bands))
	for i, band := range entities.Bands {
		for n := band.Low; n <= band.High; n++ {
			ranked[i] = append(ranked[i], entities.NumberFrequency{
				Number:     n,
				Frequency:  freq[n],
				Percentage: round1(float64(freq[n]) / float64(total) * 100),
			})
		}
		sort.SliceStable(ranked[i], func(a, b int) bool {
			return ranked[i][a].Frequency > ranked[i][b].Frequency
		})
	}

	averages := make(map[string]float64, len(entities.Bands))
	for i, band := range entities.Bands {
		averages[band.Name] = round1(float64(sums[i]) / float64(total))
	}

	return &entities.BandStatistics{
		TotalDraws:         total,
		Averages:           averages,
		TopLow:             ranked[0][:5],
		TopMiddle:          ranked[1][:5],
		TopHigh:            ranked[2][:5],
		LowDistribution:    perDraw[0],
		MiddleDistribution: perDraw[1],
		HighDistribution:   perDraw[2],
		AllLow:             ranked[0],
		AllMiddle:          ranked[1],
		AllHigh:            ranked[2],
	}
}

type pairCount struct {
	a, b  int
	count int
}

func topPairs(counts map[[2]int]int, k int) []int {
	pairs := make([]pairCount, 0, len(counts))
	for p, c := range counts {
		pairs = append(pairs, pairCount{a: p[0], b: p[1], count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	seen := make(map[int]bool)
	var out []int
	for i := 0; i < len(pairs) && i < k; i++ {
		for _, n := range []int{pairs[i].a, pairs[i].b} {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Ints(out)
	return out
}

// sisterNumbers returns the numbers of the pairs drawn together most often
func sisterNumbers(history entities.DrawHistory) []int {
	counts := make(map[[2]int]int)
	for _, draw := range history {
		for i := 0; i < len(draw.Numbers); i++ {
			for j := i + 1; j < len(draw.Numbers); j++ {
				a, b := draw.Numbers[i], draw.Numbers[j]
				if a > b {
					a, b = b, a
				}
				counts[[2]int{a, b}]++
			}
		}
	}
	return topPairs(counts, highlightPairs)
}

// tubularNumbers returns the numbers of the consecutive pairs drawn most often
func tubularNumbers(history entities.DrawHistory) []int {
	counts := make(map[[2]int]int)
	for _, draw := range history {
		for _, n := range draw.Numbers {
			if draw.Contains(n + 1) {
				counts[[2]int{n, n + 1}]++
			}
		}
	}
	return topPairs(counts, highlightPairs)
}

// endingNumbers returns every number sharing the most frequent last digit
func endingNumbers(history entities.DrawHistory) []int {
	var endings [10]int
	for _, draw := range history {
		for _, n := range draw.Numbers {
			endings[n%10]++
		}
	}
	best := 0
	for d := 1; d < 10; d++ {
		if endings[d] > endings[best] {
			best = d
		}
	}
	if endings[best] == 0 {
		return nil
	}

	var out []int
	for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
		if n%10 == best {
			out = append(out, n)
		}
	}
	return out
}

// repeaterNumbers returns the numbers most often repeated from the previous contest
func repeaterNumbers(history entities.DrawHistory) []int {
	var repeats [entities.MaxNumber + 1]int
	for i := 0; i+1 < len(history); i++ {
		for _, n := range history[i].Numbers {
			if history[i+1].Contains(n) && n >= entities.MinNumber && n <= entities.MaxNumber {
				repeats[n]++
			}
		}
	}

	numbers := make([]int, 0, entities.MaxNumber)
	for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
		if repeats[n] > 0 {
			numbers = append(numbers, n)
		}
	}
	sort.SliceStable(numbers, func(i, j int) bool {
		return repeats[numbers[i]] > repeats[numbers[j]]
	})
	if len(numbers) > highlightRepeaters {
		numbers = numbers[:highlightRepeaters]
	}
	sort.Ints(numbers)
	return numbers
}

// blockNumbers finds the band least drawn recently and returns its three most
// frequent numbers over the wider window
func blockNumbers(recent, window entities.DrawHistory) []int {
	if len(recent) == 0 {
		return nil
	}
	bandTotals := make([]int, len(entities.Bands))
	for _, draw := range recent {
		for _, n := range draw.Numbers {
			if idx := entities.BandIndex(n); idx >= 0 {
				bandTotals[idx]++
			}
		}
	}
	coldest := 0
	for i := range bandTotals {
		if bandTotals[i] < bandTotals[coldest] {
			coldest = i
		}
	}

	freq, _ := numberStats(window)
	band := entities.Bands[coldest]
	numbers := make([]int, 0, band.High-band.Low+1)
	for n := band.Low; n <= band.High; n++ {
		numbers = append(numbers, n)
	}
	sort.SliceStable(numbers, func(i, j int) bool {
		return freq[numbers[i]] > freq[numbers[j]]
	})
	numbers = numbers[:3]
	sort.Ints(numbers)
	return numbers
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}
