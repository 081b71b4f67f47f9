package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// loggingTransport logs every round trip. It never reads or alters bodies.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(headerRequestID, id)
	}

	log := t.logger.With("request_id", id, "method", req.Method, "path", req.URL.Path)
	start := time.Now()

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.Warn("request failed", "duration", time.Since(start), "error", err)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= http.StatusBadRequest {
		level = slog.LevelWarn
	}

	log.Log(req.Context(), level, "request completed", "status", resp.StatusCode, "duration", time.Since(start))

	return resp, nil
}
