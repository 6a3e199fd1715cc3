package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"
	"diadesorte/domain/services"
	"diadesorte/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const (
	maxRequestBytes = 1 << 16
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Exporter renders the last generated batch
type Exporter interface {
	TXT(ctx context.Context) ([]byte, error)
	XLSX(ctx context.Context) ([]byte, error)
}

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// HealthChecks reports the first failing dependency, in order
type HealthChecks []HealthChecker

func (hc HealthChecks) Healthy(ctx context.Context) error {
	for _, c := range hc {
		if err := c.Healthy(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Handlers serves the JSON API
type Handlers struct {
	history        interfaces.HistoryService
	analysis       interfaces.AnalysisService
	generation     interfaces.GenerationService
	exporter       Exporter
	historyMetrics interfaces.HistoryMetrics
	health         HealthChecker
	now            func() time.Time
}

// NewHandlers creates the API handlers; historyMetrics and health may be nil
func NewHandlers(
	history interfaces.HistoryService,
	analysis interfaces.AnalysisService,
	generation interfaces.GenerationService,
	exporter Exporter,
	historyMetrics interfaces.HistoryMetrics,
	health HealthChecker,
) *Handlers {
	return &Handlers{
		history:        history,
		analysis:       analysis,
		generation:     generation,
		exporter:       exporter,
		historyMetrics: historyMetrics,
		health:         health,
		now:            time.Now,
	}
}

// GenerateRequest is the body of a generation request
type GenerateRequest struct {
	Quantity *int            `json:"quantidade"`
	Analyses map[string]bool `json:"analises"`
	Rules    map[string]bool `json:"regras"`
	Seed     *uint64         `json:"seed,omitempty"`
}

// ToGenerationRequest validates names and applies defaults
func (r GenerateRequest) ToGenerationRequest() (entities.GenerationRequest, error) {
	req := entities.GenerationRequest{
		Quantity: services.DefaultQuantity,
		Seed:     r.Seed,
	}
	if r.Quantity != nil {
		req.Quantity = *r.Quantity
	}

	for name := range r.Analyses {
		if _, ok := entities.ParseAnalysisName(name); !ok {
			return req, fmt.Errorf("unknown analysis %q: %w", name, services.ErrInvalidRequest)
		}
	}
	for _, analysis := range entities.AllAnalyses {
		if r.Analyses[string(analysis)] {
			req.Analyses = append(req.Analyses, analysis)
		}
	}

	for name, enabled := range r.Rules {
		rule := entities.RuleName(name)
		if !entities.IsKnownRule(rule) {
			return req, fmt.Errorf("unknown rule %q: %w", name, services.ErrInvalidRequest)
		}
		if rule.IsMandatory() {
			// Mandatory rules always apply; a false flag cannot switch them off
			if !enabled {
				log.WithField("rule", name).Debug("Ignoring attempt to disable a mandatory rule")
			}
			continue
		}
		switch rule {
		case entities.RuleSumPattern:
			req.Rules.SumPattern = enabled
		case entities.RuleTriggers:
			req.Rules.Triggers = enabled
		}
	}
	return req, nil
}

// GenerateTickets handles POST /api/gerar-palpites-personalizados
func (h *Handlers) GenerateTickets(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, "Corpo da requisição inválido", http.StatusBadRequest)
		return
	}

	req, err := body.ToGenerationRequest()
	if err != nil {
		respondWithError(w, fmt.Sprintf("Erro ao gerar palpites: %v", err), statusFor(err))
		return
	}

	result, err := h.generation.Generate(r.Context(), req)
	if err != nil {
		log.WithFields(log.Fields{
			"quantity": req.Quantity,
			"error":    err,
		}).Warn("Ticket generation failed")
		respondWithError(w, fmt.Sprintf("Erro ao gerar palpites: %v", err), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, newGenerateResponse(result))
}

// LoadHistory handles GET /api/carregar-historico
func (h *Handlers) LoadHistory(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limite"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondJSON(w, http.StatusBadRequest, HistoryLoadResponse{
				Message: fmt.Sprintf("limite inválido: %q", raw),
			})
			return
		}
		limit = parsed
	}

	saved, err := h.history.Load(r.Context(), limit, nil)
	if h.historyMetrics != nil {
		h.historyMetrics.RecordHistoryRefresh(observability.TriggerManual, saved, err)
	}
	if err != nil {
		log.WithError(err).Error("Failed to load history")
		respondJSON(w, statusFor(err), HistoryLoadResponse{
			Message: fmt.Sprintf("Erro ao carregar histórico: %v", err),
		})
		return
	}

	if saved == 0 {
		respondJSON(w, http.StatusOK, HistoryLoadResponse{
			Message: "Nenhum concurso novo foi carregado",
		})
		return
	}
	respondJSON(w, http.StatusOK, HistoryLoadResponse{
		Success: true,
		Saved:   saved,
		Message: fmt.Sprintf("%d concursos carregados com sucesso!", saved),
	})
}

// analysisAliases maps the dashboard's analysis names to canonical ones
var analysisAliases = map[string]entities.AnalysisName{
	"ausencias_coletivas": entities.AnalysisAbsences,
	"posicoes_fixas":      entities.AnalysisPositions,
}

// AdvancedAnalysis handles GET /api/analise-avancada
func (h *Handlers) AdvancedAnalysis(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("tipo")
	if kind == "" {
		kind = string(entities.AnalysisHeatMap)
	}

	if kind == "pares_impares" {
		parity, err := h.analysis.Parity(r.Context())
		if err != nil {
			respondJSON(w, statusFor(err), StatusResponse{Error: fmt.Sprintf("Erro ao carregar análise: %v", err)})
			return
		}
		respondJSON(w, http.StatusOK, parity)
		return
	}

	name, ok := analysisAliases[kind]
	if !ok {
		name, ok = entities.ParseAnalysisName(kind)
	}
	if !ok {
		respondJSON(w, http.StatusBadRequest, StatusResponse{Error: "Tipo de análise não encontrado"})
		return
	}

	result, err := h.analysis.Analyse(r.Context(), name)
	if err != nil {
		respondJSON(w, statusFor(err), StatusResponse{Error: fmt.Sprintf("Erro ao carregar análise: %v", err)})
		return
	}
	if name == entities.AnalysisHeatMap {
		respondJSON(w, http.StatusOK, result.HeatMap)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// BandStatistics handles GET /api/estatisticas-faixas
func (h *Handlers) BandStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analysis.BandStatistics(r.Context())
	if err != nil {
		respondJSON(w, statusFor(err), StatusResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// HeatMapImage handles GET /api/mapa-calor.png
func (h *Handlers) HeatMapImage(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.Analyse(r.Context(), entities.AnalysisHeatMap)
	if err != nil {
		respondWithError(w, fmt.Sprintf("Erro ao carregar análise: %v", err), statusFor(err))
		return
	}

	png, err := RenderHeatMap(result.HeatMap)
	if err != nil {
		log.WithError(err).Error("Failed to render heat map")
		respondWithError(w, "Erro ao gerar imagem", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// TriggerDebug handles GET /debug/numeros-gatilho
func (h *Handlers) TriggerDebug(w http.ResponseWriter, r *http.Request) {
	latest, err := h.history.Latest(r.Context())
	if err != nil {
		respondJSON(w, statusFor(err), StatusResponse{Error: err.Error()})
		return
	}

	echoes := services.EchoNumbers(latest.Draw)
	numbers := make([]int, len(echoes))
	for i, e := range echoes {
		numbers[i] = e.Number
	}

	respondJSON(w, http.StatusOK, TriggerDebugResponse{
		Success:        true,
		ContestNumber:  latest.Draw.ContestNumber,
		TriggerNumbers: numbers,
		Sources:        echoes,
		Total:          len(numbers),
		DataSource:     latest.Source,
		Timestamp:      h.now().Format(time.RFC3339),
	})
}

// ExportTXT handles GET /export/txt
func (h *Handlers) ExportTXT(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "txt", "text/plain; charset=utf-8", h.exporter.TXT)
}

// ExportXLSX handles GET /export/xlsx
func (h *Handlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", xlsxContentType, h.exporter.XLSX)
}

func (h *Handlers) export(w http.ResponseWriter, r *http.Request, ext, contentType string, render func(context.Context) ([]byte, error)) {
	content, err := render(r.Context())
	if errors.Is(err, services.ErrNoBatch) {
		respondWithError(w, "Nenhum palpite foi gerado ainda. Gere palpites primeiro!", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithFields(log.Fields{
			"format": ext,
			"error":  err,
		}).Error("Failed to export batch")
		respondWithError(w, fmt.Sprintf("Erro ao exportar %s: %v", ext, err), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("DiadeSorte_COMPLETO_%s.%s", h.now().Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(content)
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Healthy(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
