package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"strategydesk/src/connectors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamProgressHandler relays the engine's progress feed for one run to the
// browser over a websocket. The relay is read-only toward the client; frames
// flow engine to client until either side closes.
func StreamProgressHandler(client *connectors.EngineClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.URL.Query().Get("request_id")
		if requestID == "" {
			http.Error(w, "request_id is required", http.StatusBadRequest)
			return
		}

		events, err := client.StreamProgress(r.Context(), requestID)
		if err != nil {
			logger.WithError(err).Warn("progress stream unavailable")
			http.Error(w, "Progress stream unavailable", http.StatusBadGateway)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer conn.Close()

		for event := range events {
			if err := conn.WriteJSON(event); err != nil {
				logger.WithError(err).Debug("progress relay client gone")
				return
			}
		}
	}
}
