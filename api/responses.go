package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"diadesorte/domain/entities"
	"diadesorte/domain/services"

	log "github.com/sirupsen/logrus"
)

// StatusResponse is the envelope for plain success or failure replies
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LatestDrawResponse is the latest real draw echoed with each batch
type LatestDrawResponse struct {
	Numbers            []int   `json:"dezenas"`
	ContestNumber      int64   `json:"numero"`
	Date               string  `json:"data"`
	Arrecadation       float64 `json:"valor_arrecadado"`
	LuckyMonth         string  `json:"mes_sorte"`
	NextContestNumber  int64   `json:"proximo_numero"`
	NextDate           string  `json:"proximo_data"`
	NextEstimatedPrize float64 `json:"proximo_premio_estimado"`
}

// GenerateResponse is the reply to a successful generation request
type GenerateResponse struct {
	Success             bool                `json:"success"`
	BatchID             string              `json:"batch_id"`
	TotalGenerated      int                 `json:"total_gerados"`
	Tickets             []entities.Ticket   `json:"palpites"`
	TriggerNumbers      []int               `json:"numeros_gatilho_extraidos"`
	TriggersFunctional  bool                `json:"numeros_gatilho_funcionais"`
	TicketsWithTriggers int                 `json:"total_jogos_com_gatilho"`
	LuckyMonth          string              `json:"mes_sorte_unico"`
	LuckyMonthMethod    string              `json:"metodo_mes_sorte"`
	LatestDraw          *LatestDrawResponse `json:"ultimo_sorteio_real"`
	DataSource          string              `json:"fonte_dados"`
}

// HistoryLoadResponse is the reply to a history load
type HistoryLoadResponse struct {
	Success bool   `json:"success"`
	Saved   int    `json:"concursos_salvos"`
	Message string `json:"message"`
}

// TriggerDebugResponse lists the numbers echoed by the latest draw
type TriggerDebugResponse struct {
	Success        bool                  `json:"success"`
	ContestNumber  int64                 `json:"concurso"`
	TriggerNumbers []int                 `json:"numeros_gatilho"`
	Sources        []services.EchoNumber `json:"origens"`
	Total          int                   `json:"total"`
	DataSource     string                `json:"fonte_dados"`
	Timestamp      string                `json:"timestamp"`
}

func newGenerateResponse(result *entities.GenerationResult) GenerateResponse {
	return GenerateResponse{
		Success:             true,
		BatchID:             result.BatchID,
		TotalGenerated:      result.Total(),
		Tickets:             result.Tickets,
		TriggerNumbers:      result.Triggers.Numbers,
		TriggersFunctional:  result.Triggers.Functional,
		TicketsWithTriggers: result.TicketsWithTriggers,
		LuckyMonth:          result.LuckyMonth.Month.String(),
		LuckyMonthMethod:    result.LuckyMonth.Method,
		LatestDraw:          newLatestDrawResponse(result.LatestDraw),
		DataSource:          result.DataSource,
	}
}

func newLatestDrawResponse(draw *entities.Draw) *LatestDrawResponse {
	if draw == nil {
		return nil
	}
	resp := &LatestDrawResponse{
		Numbers:            draw.Numbers,
		ContestNumber:      draw.ContestNumber,
		Date:               draw.FormattedDate(),
		Arrecadation:       draw.Arrecadation,
		LuckyMonth:         draw.LuckyMonth,
		NextContestNumber:  draw.NextContestNumber,
		NextEstimatedPrize: draw.NextEstimatedPrize,
	}
	if draw.NextDrawDate != nil {
		resp.NextDate = draw.NextDrawDate.Format("02/01/2006")
	}
	return resp
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, StatusResponse{Success: false, Message: message})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoBatch):
		return http.StatusNotFound
	case errors.Is(err, services.ErrGenerationExhausted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUpstreamDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
