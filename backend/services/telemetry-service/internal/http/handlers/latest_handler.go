package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ueicloud/backend/services/telemetry-service/internal/repository"
	"ueicloud/backend/services/telemetry-service/internal/service"
)

// NewLatestHandler handles GET /latest. With node_id it returns one record, without it
// the latest record of every node.
func NewLatestHandler(svc *service.TelemetryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodeID := r.URL.Query().Get("node_id")
		if nodeID == "" {
			records, err := svc.LatestAll(r.Context())
			if err != nil {
				logger.Error("failed to load latest telemetry", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to load telemetry")
				return
			}
			writeJSON(w, http.StatusOK, records)
			return
		}

		rec, err := svc.Latest(r.Context(), nodeID)
		if err != nil {
			if errors.Is(err, repository.ErrNodeNotFound) {
				writeError(w, http.StatusNotFound, "unknown node_id")
				return
			}
			logger.Error("failed to load latest telemetry", zap.String("node_id", nodeID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load telemetry")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
