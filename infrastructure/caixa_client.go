package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	caixaRequestTimeout = 10 * time.Second
	caixaDateLayout     = "02/01/2006"
	maxResponseBytes    = 1 << 20
)

// ErrContestNotFound is returned when the results API has no such contest
var ErrContestNotFound = errors.New("contest not found")

// CaixaClient fetches Dia de Sorte results from the Caixa lottery API
type CaixaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ interfaces.DrawSource = (*CaixaClient)(nil)

// NewCaixaClient creates a client throttled to requestsPerSecond
func NewCaixaClient(baseURL string, requestsPerSecond float64) *CaixaClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &CaixaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: caixaRequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// FetchLatest returns the most recent published contest
func (c *CaixaClient) FetchLatest(ctx context.Context) (*entities.Draw, error) {
	return c.fetch(ctx, c.baseURL)
}

// FetchContest returns one contest by number
func (c *CaixaClient) FetchContest(ctx context.Context, contestNumber int64) (*entities.Draw, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%d", c.baseURL, contestNumber))
}

func (c *CaixaClient) fetch(ctx context.Context, url string) (*entities.Draw, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call results API: %w", err)
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Results API call")

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrContestNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("results API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return ParseDraw(body)
}

// ParseDraw maps a results API payload to a draw
func ParseDraw(payload []byte) (*entities.Draw, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("invalid JSON payload")
	}
	doc := gjson.ParseBytes(payload)

	contest := doc.Get("numero")
	if !contest.Exists() {
		// Unknown contests come back as an empty object with 200
		return nil, ErrContestNotFound
	}

	draw := &entities.Draw{
		ContestNumber:      contest.Int(),
		DrawOrder:          parseNumbers(doc.Get("dezenasSorteadasOrdemSorteio")),
		LuckyMonth:         strings.TrimSpace(doc.Get("nomeTimeCoracaoMesSorte").String()),
		Arrecadation:       doc.Get("valorArrecadado").Float(),
		Accumulated:        doc.Get("acumulado").Bool(),
		NextContestNumber:  doc.Get("numeroConcursoProximo").Int(),
		NextEstimatedPrize: doc.Get("valorEstimadoProximoConcurso").Float(),
	}

	draw.Numbers = parseNumbers(doc.Get("listaDezenas"))
	slices.Sort(draw.Numbers)
	if len(draw.DrawOrder) != len(draw.Numbers) {
		draw.DrawOrder = slices.Clone(draw.Numbers)
	}

	drawDate, err := time.Parse(caixaDateLayout, doc.Get("dataApuracao").String())
	if err != nil {
		return nil, fmt.Errorf("invalid dataApuracao for contest %d: %w", draw.ContestNumber, err)
	}
	draw.DrawDate = drawDate

	if raw := doc.Get("dataProximoConcurso").String(); raw != "" {
		if next, err := time.Parse(caixaDateLayout, raw); err == nil {
			draw.NextDrawDate = &next
		}
	}

	if err := draw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid draw payload: %w", err)
	}
	return draw, nil
}

// parseNumbers accepts both ["01","02"] and [1,2]
func parseNumbers(list gjson.Result) []int {
	var numbers []int
	list.ForEach(func(_, value gjson.Result) bool {
		if value.Type == gjson.Number {
			numbers = append(numbers, int(value.Int()))
			return true
		}
		if n, err := strconv.Atoi(strings.TrimSpace(value.String())); err == nil {
			numbers = append(numbers, n)
		}
		return true
	})
	return numbers
}
