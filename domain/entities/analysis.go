package entities

import (
	"encoding/json"
	"slices"
)

// AnalysisName identifies a statistical analysis that can feed generation
type AnalysisName string

const (
	AnalysisHeatMap   AnalysisName = "mapa_calor"
	AnalysisAbsences  AnalysisName = "ausencias"
	AnalysisPositions AnalysisName = "posicoes"
	AnalysisSisters   AnalysisName = "irmas"
	AnalysisTubular   AnalysisName = "sequencias_tubulares"
	AnalysisEndings   AnalysisName = "finais"
	AnalysisRepeats   AnalysisName = "repiques"
	AnalysisBlocks    AnalysisName = "blocos"
)

// AllAnalyses lists the known analyses in their canonical order
var AllAnalyses = []AnalysisName{
	AnalysisHeatMap,
	AnalysisAbsences,
	AnalysisPositions,
	AnalysisSisters,
	AnalysisTubular,
	AnalysisEndings,
	AnalysisRepeats,
	AnalysisBlocks,
}

// ParseAnalysisName validates an analysis name from a request
func ParseAnalysisName(name string) (AnalysisName, bool) {
	candidate := AnalysisName(name)
	if slices.Contains(AllAnalyses, candidate) {
		return candidate, true
	}
	return "", false
}

// HeatStatus classifies a number's temperature
type HeatStatus string

const (
	HeatStatusHot  HeatStatus = "quente"
	HeatStatusWarm HeatStatus = "morno"
	HeatStatusCold HeatStatus = "frio"
)

// HeatStatusFor maps a temperature in [0, 100] to its status
func HeatStatusFor(temperature float64) HeatStatus {
	switch {
	case temperature > 70:
		return HeatStatusHot
	case temperature > 40:
		return HeatStatusWarm
	default:
		return HeatStatusCold
	}
}

// HeatMapEntry is one number's row in the heat map
type HeatMapEntry struct {
	Number      int        `json:"numero"`
	Status      HeatStatus `json:"status"`
	Frequency   int        `json:"frequencia"`
	Gap         int        `json:"lacuna"`
	Temperature float64    `json:"temperatura"`
}

// AbsenceEntry reports how long a number has been missing
type AbsenceEntry struct {
	Number   int `json:"numero"`
	Absences int `json:"ausencias"`
	Gap      int `json:"lacuna"`
}

// PositionEntry is the most frequent number seen at a draw-order position
type PositionEntry struct {
	Position  int `json:"posicao"`
	Number    int `json:"numero"`
	Frequency int `json:"frequencia"`
}

// AnalysisResult is the read-only payload of one analysis
type AnalysisResult struct {
	Name        AnalysisName    `json:"nome"`
	HeatMap     []HeatMapEntry  `json:"mapa_calor,omitempty"`
	Absences    []AbsenceEntry  `json:"ausencias,omitempty"`
	Positions   []PositionEntry `json:"posicoes,omitempty"`
	Highlighted []int           `json:"destaques,omitempty"`
	Description string          `json:"descricao,omitempty"`
}

// Candidates returns the numbers this analysis flags for trigger selection
func (r AnalysisResult) Candidates(absenceGapThreshold int) []int {
	var out []int
	switch r.Name {
	case AnalysisHeatMap:
		for _, e := range r.HeatMap {
			if e.Status == HeatStatusHot {
				out = append(out, e.Number)
			}
		}
	case AnalysisAbsences:
		for _, e := range r.Absences {
			if e.Gap >= absenceGapThreshold {
				out = append(out, e.Number)
			}
		}
	case AnalysisPositions:
		for _, e := range r.Positions {
			out = append(out, e.Number)
		}
	default:
		out = append(out, r.Highlighted...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// AnalysisInputs holds the analyses enabled for one generation request
type AnalysisInputs map[AnalysisName]AnalysisResult

// Names returns the analysis names present, in canonical order
func (in AnalysisInputs) Names() []AnalysisName {
	names := make([]AnalysisName, 0, len(in))
	for _, name := range AllAnalyses {
		if _, ok := in[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Temperature returns the heat-map temperature for n, or 0 without a heat map
func (in AnalysisInputs) Temperature(n int) float64 {
	heat, ok := in[AnalysisHeatMap]
	if !ok {
		return 0
	}
	for _, e := range heat.HeatMap {
		if e.Number == n {
			return e.Temperature
		}
	}
	return 0
}

// ParityPattern is a distribution label with its occurrence count
type ParityPattern struct {
	Label string
	Count int
}

// MarshalJSON encodes the pattern as a [label, count] pair
func (p ParityPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Label, p.Count})
}

// ParityAnalysis summarises even/odd splits over recent draws
type ParityAnalysis struct {
	Distributions  map[string]int `json:"distribuicoes"`
	MostCommon     ParityPattern  `json:"padrao_mais_comum"`
	Recommendation string         `json:"recomendacao"`
	DrawsAnalysed  int            `json:"concursos_analisados"`
}

// NumberFrequency is a number with its frequency within a band
type NumberFrequency struct {
	Number     int     `json:"numero"`
	Frequency  int     `json:"frequencia"`
	Percentage float64 `json:"percentual"`
}

// BandStatistics summarises how often each band (baixos, medios, altos) is drawn
type BandStatistics struct {
	TotalDraws         int                `json:"total_concursos"`
	Averages           map[string]float64 `json:"medias"`
	TopLow             []NumberFrequency  `json:"top_5_baixos"`
	TopMiddle          []NumberFrequency  `json:"top_5_medios"`
	TopHigh            []NumberFrequency  `json:"top_5_altos"`
	LowDistribution    map[int]int        `json:"distribuicao_baixos"`
	MiddleDistribution map[int]int        `json:"distribuicao_medios"`
	HighDistribution   map[int]int        `json:"distribuicao_altos"`
	AllLow             []NumberFrequency  `json:"todos_baixos"`
	AllMiddle          []NumberFrequency  `json:"todos_medios"`
	AllHigh            []NumberFrequency  `json:"todos_altos"`
}

// Band is a fixed sub-range of [MinNumber, MaxNumber]
type Band struct {
	Name string
	Low  int
	High int
}

// Bands partitions the number range into baixos, medios and altos
var Bands = []Band{
	{Name: "baixos", Low: 1, High: 10},
	{Name: "medios", Low: 11, High: 20},
	{Name: "altos", Low: 21, High: 31},
}

// BandIndex returns the index in Bands holding n, or -1
func BandIndex(n int) int {
	for i, b := range Bands {
		if n >= b.Low && n <= b.High {
			return i
		}
	}
	return -1
}
