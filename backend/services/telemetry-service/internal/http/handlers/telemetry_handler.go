package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ueicloud/backend/services/telemetry-service/internal/service"
	"ueicloud/backend/services/telemetry-service/internal/validation"
)

// NewIngestHandler handles POST /telemetry.
func NewIngestHandler(svc *service.TelemetryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		ack, err := svc.IngestBody(r.Context(), r.Body)
		if err != nil {
			var vErr *validation.Error
			if errors.As(err, &vErr) || errors.Is(err, validation.ErrReadBody) {
				writeValidationError(w, err)
				return
			}
			logger.Error("failed to store telemetry", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store telemetry")
			return
		}

		writeJSON(w, http.StatusOK, ack)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	var vErr *validation.Error
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &vErr):
		writeError(w, http.StatusUnprocessableEntity, vErr.Message)
	default:
		writeError(w, http.StatusBadRequest, "invalid request body")
	}
}
