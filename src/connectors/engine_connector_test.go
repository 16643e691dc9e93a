package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"strategydesk/src/mapper"
)

func testClient(baseURL string) *EngineClient {
	return NewEngineClient(Config{
		EngineBaseURL:     baseURL,
		RequestTimeout:    5 * time.Second,
		MetaRetryAttempts: 3,
	})
}

func minimalPayload() *mapper.WireRequest {
	return &mapper.WireRequest{
		Index:        "NIFTY",
		Underlying:   "cash",
		StrategyType: "intraday",
		ExpiryWindow: "weekly_expiry",
		DateFrom:     "2023-01-01",
		DateTo:       "2024-01-01",
		ExpiryType:   "WEEKLY",
		Legs: []mapper.WireLeg{
			{Segment: "OPT", Position: "SELL", Lots: 1, OptionType: "CE", Expiry: "weekly"},
		},
	}
}

func TestSessionRun_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/backtest/run" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}

		var req mapper.WireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Index != "NIFTY" {
			t.Errorf("payload not forwarded: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"trades": []map[string]interface{}{
				{"trade_number": 1, "net_pnl": 1625},
			},
			"summary": map[string]interface{}{"total_pnl": 1625},
			"meta":    map[string]interface{}{"index": "NIFTY"},
		})
	}))
	defer srv.Close()

	session := testClient(srv.URL).NewSession()
	resp, requestID, err := session.Run(context.Background(), minimalPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requestID == "" {
		t.Fatal("expected a request id")
	}
	if len(resp.Trades) != 1 || resp.Meta.Index != "NIFTY" {
		t.Fatalf("response not decoded: %+v", resp)
	}
}

func TestSessionRun_EngineRejectionRendersDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": [{"loc": ["body", "legs"], "msg": "too many legs"}]}`))
	}))
	defer srv.Close()

	session := testClient(srv.URL).NewSession()
	_, _, err := session.Run(context.Background(), minimalPayload())

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if engineErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status code %d", engineErr.StatusCode)
	}
	if engineErr.Message != "body.legs: too many legs" {
		t.Fatalf("detail not rendered: %q", engineErr.Message)
	}
}

func TestSessionRun_NewerRequestSupersedesInFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// First request stalls until its context is cancelled.
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"trades": [], "summary": {}}`))
	}))
	defer srv.Close()
	defer close(release)

	session := testClient(srv.URL).NewSession()

	firstDone := make(chan error, 1)
	go func() {
		_, _, err := session.Run(context.Background(), minimalPayload())
		firstDone <- err
	}()

	// Let the first request reach the server before superseding it.
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	if _, _, err := session.Run(context.Background(), minimalPayload()); err != nil {
		t.Fatalf("second run should succeed, got %v", err)
	}

	select {
	case err := <-firstDone:
		if !errors.Is(err, ErrRunSuperseded) {
			t.Fatalf("expected ErrRunSuperseded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run never returned")
	}
}

func TestSessionRun_NeverRetriesThePost(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	session := testClient(srv.URL).NewSession()
	_, _, err := session.Run(context.Background(), minimalPayload())
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("run POST must not be retried, saw %d calls", got)
	}
}

func TestHealth_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("expected health to recover via retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, saw %d", got)
	}
}

func TestCancel_AbortsInFlightRun(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read; without it,
		// net/http never notices the client disconnect and r.Context() is
		// never cancelled, deadlocking srv.Close.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	session := testClient(srv.URL).NewSession()

	done := make(chan error, 1)
	go func() {
		_, _, err := session.Run(context.Background(), minimalPayload())
		done <- err
	}()

	<-started
	session.Cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("cancelled run must return an error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run never returned")
	}
}
