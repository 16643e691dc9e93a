package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

// ProgressEvent is one engine-side status update for an in-flight run.
type ProgressEvent struct {
	RequestID string  `json:"request_id"`
	Stage     string  `json:"stage"`
	Percent   float64 `json:"percent"`
	Message   string  `json:"message,omitempty"`
}

// StreamProgress subscribes to the engine's progress feed for one run. The
// returned channel closes when the stream ends, the connection drops, or
// ctx is cancelled. Progress is informational only — run completion is
// signalled by the HTTP response, not by this stream.
func (c *EngineClient) StreamProgress(ctx context.Context, requestID string) (<-chan ProgressEvent, error) {
	base, err := url.Parse(c.run.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("bad engine base URL: %w", err)
	}

	wsURL := url.URL{
		Scheme:   wsScheme(base.Scheme),
		Host:     base.Host,
		Path:     "/ws/progress",
		RawQuery: url.Values{"request_id": []string{requestID}}.Encode(),
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  15 * time.Second,
		EnableCompression: true,
		Proxy:             http.ProxyFromEnvironment,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("progress ws dial failed: %w", err)
	}

	events := make(chan ProgressEvent)

	// Reader unblocks via the closer goroutine when ctx is done.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(events)
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					logger.WithError(err).Debug("Progress stream closed")
				}
				return
			}

			var event ProgressEvent
			if err := json.Unmarshal(msg, &event); err != nil {
				logger.WithError(err).Debug("Skipping malformed progress frame")
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func wsScheme(httpScheme string) string {
	if strings.EqualFold(httpScheme, "https") {
		return "wss"
	}
	return "ws"
}
