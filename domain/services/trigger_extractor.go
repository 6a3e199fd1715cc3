package services

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"diadesorte/domain/entities"
)

const (
	DefaultMaxTriggers         = 3
	DefaultAbsenceGapThreshold = 8
)

// EchoNumber is a number derived from the latest draw's metadata
type EchoNumber struct {
	Number int    `json:"numero"`
	Source string `json:"origem"`
}

// TriggerNumberExtractor derives the trigger numbers shared by a batch
type TriggerNumberExtractor struct {
	maxTriggers         int
	absenceGapThreshold int
}

// NewTriggerNumberExtractor creates an extractor keeping at most maxTriggers numbers
func NewTriggerNumberExtractor(maxTriggers, absenceGapThreshold int) *TriggerNumberExtractor {
	if maxTriggers <= 0 {
		maxTriggers = DefaultMaxTriggers
	}
	if absenceGapThreshold <= 0 {
		absenceGapThreshold = DefaultAbsenceGapThreshold
	}
	return &TriggerNumberExtractor{
		maxTriggers:         maxTriggers,
		absenceGapThreshold: absenceGapThreshold,
	}
}

// Extract picks the trigger numbers for a batch. Candidates come only from the
// enabled analyses; numbers echoing the latest draw's contest number, date or
// amount rank higher. Ties fall back to heat-map temperature, then to the
// lower number, so identical inputs always give the same set.
func (e *TriggerNumberExtractor) Extract(latest *entities.Draw, inputs entities.AnalysisInputs, enabled bool) entities.TriggerSet {
	set := entities.TriggerSet{Numbers: []int{}, Enabled: enabled}
	if !enabled {
		return set
	}

	scores := make(map[int]int)
	for _, name := range inputs.Names() {
		for _, n := range inputs[name].Candidates(e.absenceGapThreshold) {
			if n >= entities.MinNumber && n <= entities.MaxNumber {
				scores[n]++
			}
		}
	}
	if len(scores) == 0 {
		return set
	}

	echoes := make(map[int]bool)
	for _, echo := range EchoNumbers(latest) {
		echoes[echo.Number] = true
	}

	candidates := make([]int, 0, len(scores))
	for n := range scores {
		if echoes[n] {
			scores[n]++
		}
		candidates = append(candidates, n)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		ta, tb := inputs.Temperature(a), inputs.Temperature(b)
		if ta != tb {
			return ta > tb
		}
		return a < b
	})

	if len(candidates) > e.maxTriggers {
		candidates = candidates[:e.maxTriggers]
	}
	set.Numbers = candidates
	set.Functional = true
	return set
}

// EchoNumbers derives the numbers in range hidden in a draw's contest number,
// date and arrecadation amount: digit substrings, reversals and the four
// arithmetic operations between digits and date parts. The result is sorted
// by number and keeps the first source found for each.
func EchoNumbers(draw *entities.Draw) []EchoNumber {
	if draw == nil {
		return nil
	}

	found := make(map[int]string)
	add := func(n int, source string) {
		if n < entities.MinNumber || n > entities.MaxNumber {
			return
		}
		if _, ok := found[n]; !ok {
			found[n] = source
		}
	}

	if draw.ContestNumber > 0 {
		contest := strconv.FormatInt(draw.ContestNumber, 10)
		addSubstrings(contest, "concurso", add)
		addReversals(contest, "concurso", add)
		addDigitOperations(digitsOf(contest), "concurso", add)
		addHalves(contest, add)
		addDigitPairs(contest, add)
	}

	if !draw.DrawDate.IsZero() {
		day, month, year := draw.DrawDate.Day(), int(draw.DrawDate.Month()), draw.DrawDate.Year()
		add(day, fmt.Sprintf("dia %d", day))
		add(month, fmt.Sprintf("mes %d", month))
		addSubstrings(strconv.Itoa(year), "ano", add)
		for _, n := range []int{day, month} {
			add(reverseNumber(n), fmt.Sprintf("%d invertido", n))
		}
		addElementOperations([]int{day, month, year % 100, year / 100}, "data", add)

		if draw.ContestNumber > 0 {
			for _, c := range digitsOf(strconv.FormatInt(draw.ContestNumber, 10)) {
				for _, d := range []int{day, month, year % 100} {
					add(c+d, fmt.Sprintf("%d(concurso) + %d(data)", c, d))
					if c > d {
						add(c-d, fmt.Sprintf("%d(concurso) - %d(data)", c, d))
					}
					if c <= 5 && d <= 6 {
						add(c*d, fmt.Sprintf("%d(concurso) x %d(data)", c, d))
					}
				}
			}
		}
	}

	if draw.Arrecadation >= 1 {
		amount := strconv.FormatInt(int64(draw.Arrecadation), 10)
		addSubstrings(amount, "valor", add)
		for digit := '0'; digit <= '9'; digit++ {
			without := strings.ReplaceAll(amount, string(digit), "")
			addSubstrings(without, fmt.Sprintf("valor sem '%c'", digit), add)
		}
		addDigitOperations(digitsOf(amount), "valor", add)
	}

	out := make([]EchoNumber, 0, len(found))
	for n, source := range found {
		out = append(out, EchoNumber{Number: n, Source: source})
	}
	slices.SortFunc(out, func(a, b EchoNumber) int { return a.Number - b.Number })
	return out
}

func addSubstrings(s, label string, add func(int, string)) {
	for i := 0; i < len(s); i++ {
		for j := i + 1; j <= len(s) && j-i <= 2; j++ {
			piece := s[i:j]
			if strings.HasPrefix(piece, "0") {
				continue
			}
			if n, err := strconv.Atoi(piece); err == nil {
				add(n, fmt.Sprintf("%s de %s (%s)", piece, s, label))
			}
		}
	}
}

func addReversals(s, label string, add func(int, string)) {
	for i := 0; i < len(s); i++ {
		for j := i + 1; j <= len(s) && j-i <= 2; j++ {
			reversed := reverseString(s[i:j])
			if strings.HasPrefix(reversed, "0") {
				continue
			}
			if n, err := strconv.Atoi(reversed); err == nil {
				add(n, fmt.Sprintf("%s invertido (%s)", s[i:j], label))
			}
		}
	}
}

func addDigitOperations(digits []int, label string, add func(int, string)) {
	for i := range digits {
		for j := range digits {
			if i == j {
				continue
			}
			a, b := digits[i], digits[j]
			if i < j {
				add(a+b, fmt.Sprintf("%d + %d (%s)", a, b, label))
				if a > 0 && b > 0 {
					add(a*b, fmt.Sprintf("%d x %d (%s)", a, b, label))
				}
			}
			if a > b {
				add(a-b, fmt.Sprintf("%d - %d (%s)", a, b, label))
			}
			if b > 0 && a%b == 0 {
				add(a/b, fmt.Sprintf("%d / %d (%s)", a, b, label))
			}
		}
	}
}

func addElementOperations(elements []int, label string, add func(int, string)) {
	for i, a := range elements {
		for j, b := range elements {
			if i == j {
				continue
			}
			add(a+b, fmt.Sprintf("%d + %d (%s)", a, b, label))
			if a > b {
				add(a-b, fmt.Sprintf("%d - %d (%s)", a, b, label))
			}
			if a <= 5 && b <= 6 {
				add(a*b, fmt.Sprintf("%d x %d (%s)", a, b, label))
			}
			if b > 0 && a%b == 0 {
				add(a/b, fmt.Sprintf("%d / %d (%s)", a, b, label))
			}
		}
	}
}

// addHalves combines the first and second digit pairs of a 4+ digit contest
func addHalves(contest string, add func(int, string)) {
	if len(contest) < 4 {
		return
	}
	first, _ := strconv.Atoi(contest[:2])
	second, _ := strconv.Atoi(contest[2:4])
	add(first+second, fmt.Sprintf("%d + %d (concurso)", first, second))
	if first > second {
		add(first-second, fmt.Sprintf("%d - %d (concurso)", first, second))
	}
	add(first*second, fmt.Sprintf("%d x %d (concurso)", first, second))
	if second > 0 && first%second == 0 {
		add(first/second, fmt.Sprintf("%d / %d (concurso)", first, second))
	}
}

// addDigitPairs joins non-adjacent digits in order ("1122" -> 12)
func addDigitPairs(contest string, add func(int, string)) {
	if len(contest) < 4 {
		return
	}
	for i := 0; i < len(contest); i++ {
		for j := i + 1; j < len(contest); j++ {
			pair := string([]byte{contest[i], contest[j]})
			if strings.HasPrefix(pair, "0") {
				continue
			}
			if n, err := strconv.Atoi(pair); err == nil {
				add(n, fmt.Sprintf("combinacao %s (concurso)", pair))
			}
		}
	}
}

func digitsOf(s string) []int {
	digits := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	return digits
}

func reverseString(s string) string {
	b := []byte(s)
	slices.Reverse(b)
	return string(b)
}

func reverseNumber(n int) int {
	reversed, _ := strconv.Atoi(reverseString(strconv.Itoa(n)))
	return reversed
}
