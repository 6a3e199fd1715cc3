package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"
	"diadesorte/domain/services"
	"diadesorte/domain/testhelpers"
	"diadesorte/infrastructure/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	txt  []byte
	xlsx []byte
	err  error
}

func (f *fakeExporter) TXT(ctx context.Context) ([]byte, error)  { return f.txt, f.err }
func (f *fakeExporter) XLSX(ctx context.Context) ([]byte, error) { return f.xlsx, f.err }

type fakeHealth struct{ err error }

func (f fakeHealth) Healthy(ctx context.Context) error { return f.err }

type testServer struct {
	history    *testhelpers.MockHistoryService
	analysis   *testhelpers.MockAnalysisService
	generation *testhelpers.MockGenerationService
	metrics    *testhelpers.MockHistoryMetrics
	exporter   *fakeExporter
	handlers   *Handlers
	router     http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		history:    new(testhelpers.MockHistoryService),
		analysis:   new(testhelpers.MockAnalysisService),
		generation: new(testhelpers.MockGenerationService),
		metrics:    new(testhelpers.MockHistoryMetrics),
		exporter:   &fakeExporter{},
	}
	s.handlers = NewHandlers(s.history, s.analysis, s.generation, s.exporter, s.metrics, fakeHealth{})
	s.handlers.now = func() time.Time { return time.Date(2024, time.June, 15, 21, 30, 0, 0, time.UTC) }
	s.router = NewRouter(s.handlers, NewHTTPMetrics())

	t.Cleanup(func() {
		s.history.AssertExpectations(t)
		s.analysis.AssertExpectations(t)
		s.generation.AssertExpectations(t)
		s.metrics.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func sampleDraw() *entities.Draw {
	next := time.Date(2024, time.June, 18, 0, 0, 0, 0, time.UTC)
	return &entities.Draw{
		ContestNumber:      1001,
		DrawDate:           time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		Numbers:            []int{2, 5, 9, 14, 21, 26, 30},
		LuckyMonth:         "Março",
		Arrecadation:       1987654.32,
		NextContestNumber:  1002,
		NextDrawDate:       &next,
		NextEstimatedPrize: 1_500_000,
	}
}

func sampleResult() *entities.GenerationResult {
	return &entities.GenerationResult{
		BatchID: "batch-1",
		Tickets: []entities.Ticket{{
			Numbers:    []int{2, 7, 11, 14, 22, 25, 29},
			LuckyMonth: "Fevereiro",
			Strength:   84,
			Attempts:   12,
			Details: entities.TicketDetails{
				Distribution: "3P/4I",
				EqualEndings: 2,
				Sequences:    2,
				RepeatsLast:  2,
				Sum:          110,
				TriggersUsed: []int{7},
			},
		}},
		Triggers:            entities.TriggerSet{Numbers: []int{7, 19}, Enabled: true, Functional: true},
		TicketsWithTriggers: 1,
		LuckyMonth:          entities.LuckyMonth{Month: entities.Fevereiro, Method: services.LuckyMonthLabelTemperature},
		LatestDraw:          sampleDraw(),
		DataSource:          entities.DataSourceUpstream,
	}
}

func TestGenerateRequest_ToGenerationRequest(t *testing.T) {
	t.Parallel()

	three := 3
	tests := []struct {
		name    string
		body    GenerateRequest
		want    entities.GenerationRequest
		wantErr bool
	}{
		{
			name: "defaults",
			body: GenerateRequest{},
			want: entities.GenerationRequest{Quantity: services.DefaultQuantity},
		},
		{
			name: "enabled analyses and optional rules",
			body: GenerateRequest{
				Quantity: &three,
				Analyses: map[string]bool{"mapa_calor": true, "ausencias": false, "blocos": true},
				Rules:    map[string]bool{"pares_impares": true, "numeros_gatilho": true, "padrao_dezenas": false},
			},
			want: entities.GenerationRequest{
				Quantity: 3,
				Analyses: []entities.AnalysisName{entities.AnalysisHeatMap, entities.AnalysisBlocks},
				Rules:    entities.RuleFlags{Triggers: true},
			},
		},
		{
			name: "mandatory rules cannot be disabled",
			body: GenerateRequest{
				Rules: map[string]bool{"pares_impares": false, "distribuicao_faixas": false, "repeticoes": false, "padrao_dezenas": true},
			},
			want: entities.GenerationRequest{
				Quantity: services.DefaultQuantity,
				Rules:    entities.RuleFlags{SumPattern: true},
			},
		},
		{
			name:    "unknown analysis",
			body:    GenerateRequest{Analyses: map[string]bool{"astrologia": true}},
			wantErr: true,
		},
		{
			name:    "unknown rule",
			body:    GenerateRequest{Rules: map[string]bool{"sorte_grande": true}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.body.ToGenerationRequest()
			if tt.wantErr {
				assert.ErrorIs(t, err, services.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateTickets(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.generation.On("Generate", mock.Anything, entities.GenerationRequest{
			Quantity: 1,
			Analyses: []entities.AnalysisName{entities.AnalysisHeatMap},
			Rules:    entities.RuleFlags{Triggers: true},
		}).Return(sampleResult(), nil)

		rec := s.do(http.MethodPost, "/api/gerar-palpites-personalizados",
			`{"quantidade":1,"analises":{"mapa_calor":true},"regras":{"numeros_gatilho":true}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(1), body["total_gerados"])
		assert.Equal(t, "Fevereiro", body["mes_sorte_unico"])
		assert.Equal(t, "ANALISE_COMPLETA_NORMALIZADA", body["metodo_mes_sorte"])
		assert.Equal(t, []any{float64(7), float64(19)}, body["numeros_gatilho_extraidos"])
		assert.Equal(t, true, body["numeros_gatilho_funcionais"])
		assert.Equal(t, float64(1), body["total_jogos_com_gatilho"])
		assert.Equal(t, "API_CAIXA", body["fonte_dados"])

		latest := body["ultimo_sorteio_real"].(map[string]any)
		assert.Equal(t, float64(1001), latest["numero"])
		assert.Equal(t, "15/06/2024", latest["data"])
		assert.Equal(t, "18/06/2024", latest["proximo_data"])

		tickets := body["palpites"].([]any)
		require.Len(t, tickets, 1)
		ticket := tickets[0].(map[string]any)
		assert.Equal(t, "Fevereiro", ticket["mes_sorte"])
		details := ticket["detalhes"].(map[string]any)
		assert.Equal(t, "3P/4I", details["distribuicao"])
		assert.Equal(t, []any{float64(7)}, details["numeros_gatilho_usados"])
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		s := newTestServer(t)
		s.generation.On("Generate", mock.Anything, entities.GenerationRequest{Quantity: 5}).
			Return(sampleResult(), nil)

		rec := s.do(http.MethodPost, "/api/gerar-palpites-personalizados", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown analysis is rejected before generation", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/api/gerar-palpites-personalizados", `{"analises":{"tarot":true}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["message"], "tarot")
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/api/gerar-palpites-personalizados", `{"quantidade":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
	}{
		{"exhausted", fmt.Errorf("ticket 2: %w", services.ErrGenerationExhausted), http.StatusUnprocessableEntity},
		{"no history", fmt.Errorf("empty: %w", services.ErrUpstreamDataUnavailable), http.StatusServiceUnavailable},
		{"invalid quantity", fmt.Errorf("quantidade: %w", services.ErrInvalidRequest), http.StatusBadRequest},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.generation.On("Generate", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := s.do(http.MethodPost, "/api/gerar-palpites-personalizados", `{"quantidade":2}`)
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestLoadHistory(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		s := newTestServer(t)
		s.history.On("Load", mock.Anything, 100, mock.Anything).Return(42, nil)
		s.metrics.On("RecordHistoryRefresh", observability.TriggerManual, 42, nil).Return()

		rec := s.do(http.MethodGet, "/api/carregar-historico", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(42), body["concursos_salvos"])
		assert.Equal(t, "42 concursos carregados com sucesso!", body["message"])
	})

	t.Run("explicit limit", func(t *testing.T) {
		s := newTestServer(t)
		s.history.On("Load", mock.Anything, 10, mock.Anything).Return(0, nil)
		s.metrics.On("RecordHistoryRefresh", observability.TriggerManual, 0, nil).Return()

		rec := s.do(http.MethodGet, "/api/carregar-historico?limite=10", "")
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Nenhum concurso novo foi carregado", body["message"])
	})

	t.Run("invalid limit", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/api/carregar-historico?limite=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		s := newTestServer(t)
		loadErr := fmt.Errorf("fetch: %w", services.ErrUpstreamDataUnavailable)
		s.history.On("Load", mock.Anything, 100, mock.Anything).Return(0, loadErr)
		s.metrics.On("RecordHistoryRefresh", observability.TriggerManual, 0, loadErr).Return()

		rec := s.do(http.MethodGet, "/api/carregar-historico", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, float64(0), body["concursos_salvos"])
	})
}

func TestAdvancedAnalysis(t *testing.T) {
	heat := entities.AnalysisResult{
		Name: entities.AnalysisHeatMap,
		HeatMap: []entities.HeatMapEntry{
			{Number: 1, Status: entities.HeatStatusHot, Frequency: 9, Gap: 0, Temperature: 82.5},
		},
	}

	t.Run("heat map is the default and returns an array", func(t *testing.T) {
		s := newTestServer(t)
		s.analysis.On("Analyse", mock.Anything, entities.AnalysisHeatMap).Return(heat, nil)

		rec := s.do(http.MethodGet, "/api/analise-avancada", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "quente", entries[0]["status"])
		assert.Equal(t, 82.5, entries[0]["temperatura"])
	})

	t.Run("parity", func(t *testing.T) {
		s := newTestServer(t)
		s.analysis.On("Parity", mock.Anything).Return(&entities.ParityAnalysis{
			Distributions:  map[string]int{"3P/4I": 40, "4P/3I": 35},
			MostCommon:     entities.ParityPattern{Label: "3P/4I", Count: 40},
			Recommendation: "3P/4I",
			DrawsAnalysed:  100,
		}, nil)

		rec := s.do(http.MethodGet, "/api/analise-avancada?tipo=pares_impares", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "3P/4I", body["recomendacao"])
		assert.Equal(t, []any{"3P/4I", float64(40)}, body["padrao_mais_comum"])
	})

	t.Run("dashboard alias", func(t *testing.T) {
		s := newTestServer(t)
		s.analysis.On("Analyse", mock.Anything, entities.AnalysisAbsences).Return(entities.AnalysisResult{
			Name:     entities.AnalysisAbsences,
			Absences: []entities.AbsenceEntry{{Number: 4, Absences: 12, Gap: 9}},
		}, nil)

		rec := s.do(http.MethodGet, "/api/analise-avancada?tipo=ausencias_coletivas", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ausencias", body["nome"])
	})

	t.Run("unknown type", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/api/analise-avancada?tipo=horoscopo", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Tipo de análise não encontrado", body["error"])
	})
}

func TestBandStatistics(t *testing.T) {
	s := newTestServer(t)
	s.analysis.On("BandStatistics", mock.Anything).Return(&entities.BandStatistics{
		TotalDraws: 100,
		Averages:   map[string]float64{"baixos": 2.3, "medios": 2.2, "altos": 2.5},
	}, nil)

	rec := s.do(http.MethodGet, "/api/estatisticas-faixas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(100), body["total_concursos"])
}

func TestHeatMapImage(t *testing.T) {
	s := newTestServer(t)
	entries := make([]entities.HeatMapEntry, 0, entities.MaxNumber)
	for n := entities.MinNumber; n <= entities.MaxNumber; n++ {
		temp := float64(n) * 3
		entries = append(entries, entities.HeatMapEntry{Number: n, Temperature: temp, Status: entities.HeatStatusFor(temp)})
	}
	s.analysis.On("Analyse", mock.Anything, entities.AnalysisHeatMap).
		Return(entities.AnalysisResult{Name: entities.AnalysisHeatMap, HeatMap: entries}, nil)

	rec := s.do(http.MethodGet, "/api/mapa-calor.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestTriggerDebug(t *testing.T) {
	s := newTestServer(t)
	s.history.On("Latest", mock.Anything).Return(&interfaces.LatestDraw{
		Draw:   sampleDraw(),
		Source: entities.DataSourceLocal,
	}, nil)

	rec := s.do(http.MethodGet, "/debug/numeros-gatilho", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1001), body["concurso"])
	assert.Equal(t, "HISTORICO_LOCAL", body["fonte_dados"])

	numbers := body["numeros_gatilho"].([]any)
	assert.Equal(t, float64(len(numbers)), body["total"])
	assert.Contains(t, numbers, float64(10), "contest 1001 contains the substring 10")
}

func TestExport(t *testing.T) {
	t.Run("txt", func(t *testing.T) {
		s := newTestServer(t)
		s.exporter.txt = []byte("01 02 03 04 05 06 07 Jan\n")

		rec := s.do(http.MethodGet, "/export/txt", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="DiadeSorte_COMPLETO_20240615_213000.txt"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "01 02 03 04 05 06 07 Jan\n", rec.Body.String())
	})

	t.Run("xlsx", func(t *testing.T) {
		s := newTestServer(t)
		s.exporter.xlsx = []byte("PK")

		rec := s.do(http.MethodGet, "/export/xlsx", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	})

	t.Run("no batch yet", func(t *testing.T) {
		s := newTestServer(t)
		s.exporter.err = services.ErrNoBatch

		rec := s.do(http.MethodGet, "/export/txt", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Nenhum palpite foi gerado ainda. Gere palpites primeiro!", body["message"])
	})
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `diadesorte_http_requests_total{method="GET",route="/health",status="200"} 1`)

	s.handlers.health = fakeHealth{err: fmt.Errorf("database down")}
	rec = s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.NoError(t, HealthChecks{}.Healthy(ctx))
	assert.NoError(t, HealthChecks{fakeHealth{}, fakeHealth{}}.Healthy(ctx))

	natsDown := errors.New("nats disconnected")
	err := HealthChecks{fakeHealth{}, fakeHealth{err: natsDown}, fakeHealth{err: errors.New("database down")}}.Healthy(ctx)
	assert.ErrorIs(t, err, natsDown)

	s := newTestServer(t)
	s.handlers.health = HealthChecks{fakeHealth{}, fakeHealth{err: natsDown}}
	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "nats disconnected", decode(t, rec)["error"])
}
