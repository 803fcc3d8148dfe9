package termselect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/searchparty-game/searchparty/internal/dependencies/random"
	"github.com/searchparty-game/searchparty/internal/model"
)

// SentinelTerm is broadcast in place of a real selection when the
// external service fails or times out. The round must not stall on it.
const SentinelTerm = "Error processing history"

// Result is the external service's judgement on a history batch
type Result struct {
	SelectedSearchTerm string   `json:"selectedSearchTerm"`
	Sentiment          string   `json:"sentiment,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	Category           string   `json:"category,omitempty"`
}

// Selector picks the single most noteworthy term from a history batch.
// Implementations must be treated as fallible and possibly slow;
// callers bound the call with the context.
type Selector interface {
	SelectTerm(ctx context.Context, history []model.HistoryEntry) (Result, error)
}

// Sentinel returns the degraded result used when selection fails
func Sentinel() Result {
	return Result{SelectedSearchTerm: SentinelTerm, Sentiment: "neutral"}
}

// Config holds settings for the HTTP selector
type Config struct {
	// Endpoint receives a POST with {"history": [...]} and answers a Result
	Endpoint string
	// APIKey, when set, is sent as a bearer token
	APIKey string
	// Timeout bounds each selection call
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for the HTTP selector
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
	}
}

// HTTPSelector calls an external analysis endpoint over HTTP
type HTTPSelector struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

var _ Selector = (*HTTPSelector)(nil)

// NewHTTP creates a selector backed by the configured endpoint
func NewHTTP(cfg Config, logger *slog.Logger) *HTTPSelector {
	return &HTTPSelector{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(slog.String("component", "termselect")),
	}
}

type selectRequest struct {
	History []model.HistoryEntry `json:"history"`
}

// SelectTerm posts the batch to the analysis endpoint. Any failure is
// logged and degraded to the sentinel result rather than returned as a
// hard error, so a slow or broken analysis service never breaks a room.
func (s *HTTPSelector) SelectTerm(ctx context.Context, history []model.HistoryEntry) (Result, error) {
	body, err := json.Marshal(selectRequest{History: history})
	if err != nil {
		return Sentinel(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Sentinel(), nil
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("term selection request failed", slog.String("error", err.Error()))
		return Sentinel(), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("term selection returned non-200", slog.Int("status", resp.StatusCode))
		return Sentinel(), nil
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.logger.Warn("term selection response undecodable", slog.String("error", err.Error()))
		return Sentinel(), nil
	}
	if result.SelectedSearchTerm == "" {
		return Sentinel(), nil
	}
	return result, nil
}

// HeuristicSelector picks a term locally with no external calls: a
// random entry from the batch. Used when no analysis endpoint is
// configured, and in tests.
type HeuristicSelector struct {
	random random.Random
}

var _ Selector = (*HeuristicSelector)(nil)

// NewHeuristic creates a local selector
func NewHeuristic(rnd random.Random) *HeuristicSelector {
	return &HeuristicSelector{random: rnd}
}

// SelectTerm picks a uniformly random entry's title
func (s *HeuristicSelector) SelectTerm(_ context.Context, history []model.HistoryEntry) (Result, error) {
	if len(history) == 0 {
		return Sentinel(), nil
	}
	entry := history[s.random.Intn(len(history))]
	term := entry.Title
	if term == "" {
		term = entry.URL
	}
	if term == "" {
		return Sentinel(), nil
	}
	return Result{SelectedSearchTerm: term, Sentiment: "neutral"}, nil
}

// FuncSelector adapts a function to the Selector interface (tests)
type FuncSelector func(ctx context.Context, history []model.HistoryEntry) (Result, error)

// SelectTerm calls the wrapped function
func (f FuncSelector) SelectTerm(ctx context.Context, history []model.HistoryEntry) (Result, error) {
	return f(ctx, history)
}

var _ Selector = (FuncSelector)(nil)

// String implements fmt.Stringer for logging the configured endpoint
func (c Config) String() string {
	if c.Endpoint == "" {
		return "heuristic"
	}
	return fmt.Sprintf("http endpoint %s (timeout %s)", c.Endpoint, c.Timeout)
}
