package entities

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Month is a calendar month in 1..12
type Month int

const (
	Janeiro Month = iota + 1
	Fevereiro
	Marco
	Abril
	Maio
	Junho
	Julho
	Agosto
	Setembro
	Outubro
	Novembro
	Dezembro
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

var monthAbbreviations = [...]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// AllMonths lists the months in calendar order
var AllMonths = []Month{
	Janeiro, Fevereiro, Marco, Abril, Maio, Junho,
	Julho, Agosto, Setembro, Outubro, Novembro, Dezembro,
}

// Valid reports whether m is a calendar month
func (m Month) Valid() bool {
	return m >= Janeiro && m <= Dezembro
}

// String returns the Portuguese month name
func (m Month) String() string {
	if !m.Valid() {
		return ""
	}
	return monthNames[m-1]
}

// Abbrev returns the three letter abbreviation used on betting slips
func (m Month) Abbrev() string {
	if !m.Valid() {
		return ""
	}
	return monthAbbreviations[m-1]
}

// LuckyMonth is the month shared by every ticket in a batch
type LuckyMonth struct {
	Month  Month  `json:"month"`
	Method string `json:"method"`
}

var digitsPattern = regexp.MustCompile(`\d+`)

// foldedMonths maps accent-free lowercase names and abbreviations to months
var foldedMonths = func() map[string]Month {
	m := make(map[string]Month, 24)
	for _, month := range AllMonths {
		m[foldAccents(month.String())] = month
		m[foldAccents(month.Abbrev())] = month
	}
	return m
}()

// ParseMonth normalises the many spellings used upstream ("3", "03", "mar",
// "MARCO", "Março", "Março de 2024") into a Month
func ParseMonth(raw string) (Month, bool) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(clean); err == nil {
		if Month(n).Valid() {
			return Month(n), true
		}
		return 0, false
	}

	folded := foldAccents(clean)
	if month, ok := foldedMonths[folded]; ok {
		return month, true
	}

	// Full names embedded in longer strings
	for _, month := range AllMonths {
		if strings.Contains(folded, foldAccents(month.String())) {
			return month, true
		}
	}

	// Abbreviations as standalone words
	for _, word := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if month, ok := foldedMonths[word]; ok {
			return month, true
		}
	}

	if digits := digitsPattern.FindString(clean); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil && Month(n).Valid() {
			return Month(n), true
		}
	}

	return 0, false
}

// foldAccents lowercases s and strips diacritics ("Março" -> "marco")
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
