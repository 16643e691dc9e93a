// REST client for the external backtest engine.
// Resty only; the run request is never retried automatically.
package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"strategydesk/src/mapper"
)

const (
	runPath    = "/backtest/run"
	healthPath = "/health"

	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// ErrRunSuperseded is returned to a caller whose in-flight run was cancelled
// because the session submitted a newer request. The stale response, if the
// engine ever produces one, is discarded.
var ErrRunSuperseded = errors.New("backtest run superseded by a newer request")

// EngineError is a rejection from the engine, rendered into one
// user-facing message regardless of which failure shape the engine sent.
type EngineError struct {
	StatusCode int
	Message    string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("backtest engine error (HTTP %d): %s", e.StatusCode, e.Message)
}

// PivotTable is the engine's year/period metric table. Pass-through to
// presentation; nothing here processes it.
type PivotTable struct {
	Headers []string        `json:"headers"`
	Rows    [][]interface{} `json:"rows"`
}

type RunMeta struct {
	DateRange string `json:"date_range"`
	Strategy  string `json:"strategy"`
	Index     string `json:"index"`
}

// RunResponse is the raw engine result. Trades and summary keep their raw
// field names here; the mapper canonicalizes them exactly once.
type RunResponse struct {
	Trades  []map[string]interface{} `json:"trades"`
	Summary map[string]interface{}   `json:"summary"`
	Pivot   PivotTable               `json:"pivot"`
	Meta    RunMeta                  `json:"meta"`
}

type failureBody struct {
	Detail json.RawMessage `json:"detail"`
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == 408 || code == 429 || (code >= 500 && code <= 599)
}

// EngineClient talks to the backtest engine. run traffic and metadata
// traffic use separate resty clients because only the latter may retry.
type EngineClient struct {
	run  *resty.Client
	meta *resty.Client
}

func NewEngineClient(cfg Config) *EngineClient {
	if cfg.EngineBaseURL == "" {
		cfg.EngineBaseURL = "http://localhost:8000"
		logger.Warnf("No engine base URL provided, using default: %s", cfg.EngineBaseURL)
	}

	run := resty.New().
		SetBaseURL(cfg.EngineBaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Content-Type", "application/json")

	meta := resty.New().
		SetBaseURL(cfg.EngineBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(cfg.MetaRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &EngineClient{run: run, meta: meta}
}

// Health pings the engine. Safe to retry, and it does.
func (c *EngineClient) Health(ctx context.Context) error {
	resp, err := c.meta.R().SetContext(ctx).Get(healthPath)
	if err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}
	if resp.StatusCode()/100 != 2 {
		return fmt.Errorf("engine health non-2xx status: %d", resp.StatusCode())
	}
	return nil
}

// Session owns the single suspension point of a user session: at most one
// backtest request is in flight, and submitting a new one cancels the prior
// request cooperatively.
type Session struct {
	client *EngineClient

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64 // bumped per submit; stale generations discard their response
}

func (c *EngineClient) NewSession() *Session {
	return &Session{client: c}
}

// Run posts the wire request and decodes the engine result. The returned
// request ID identifies the run for progress streaming and persistence.
// If a newer Run call supersedes this one, it fails with ErrRunSuperseded.
func (s *Session) Run(ctx context.Context, payload *mapper.WireRequest) (*RunResponse, string, error) {
	if payload == nil {
		return nil, "", fmt.Errorf("run payload is nil")
	}

	requestID := uuid.NewString()

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		logger.Debug("Cancelling prior in-flight backtest request")
		s.cancel()
	}
	s.cancel = cancel
	s.gen++
	myGen := s.gen
	s.mu.Unlock()

	superseded := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.gen != myGen
	}

	defer func() {
		cancel()
		s.mu.Lock()
		// Only clear the slot if it is still ours; a newer Run may have
		// replaced it already.
		if s.gen == myGen {
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"index":      payload.Index,
		"legs":       len(payload.Legs),
	}).Info("Submitting backtest request")

	resp, err := s.client.run.R().
		SetContext(runCtx).
		SetHeader("X-Request-ID", requestID).
		SetBody(payload).
		Post(runPath)

	if err != nil {
		if superseded() {
			return nil, requestID, ErrRunSuperseded
		}
		return nil, requestID, fmt.Errorf("backtest request failed: %w", err)
	}

	if superseded() {
		// A late response for a superseded request is discarded.
		return nil, requestID, ErrRunSuperseded
	}

	if resp.StatusCode()/100 != 2 {
		var failure failureBody
		if err := json.Unmarshal(resp.Body(), &failure); err != nil || len(failure.Detail) == 0 {
			return nil, requestID, &EngineError{
				StatusCode: resp.StatusCode(),
				Message:    string(resp.Body()),
			}
		}
		return nil, requestID, &EngineError{
			StatusCode: resp.StatusCode(),
			Message:    mapper.RenderFailureDetail(failure.Detail),
		}
	}

	var out RunResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, requestID, fmt.Errorf("decode engine response failed: %w", err)
	}

	return &out, requestID, nil
}

// Cancel aborts the in-flight request, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
