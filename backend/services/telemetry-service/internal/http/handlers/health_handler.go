package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ready(ctx context.Context) error
}

// NewReadyHandler returns GET /ready handler that checks the store.
func NewReadyHandler(p Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := p.Ready(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
