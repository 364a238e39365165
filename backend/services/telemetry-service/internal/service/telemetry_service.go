package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"ueicloud/backend/libs/metrics"
	"ueicloud/backend/services/telemetry-service/internal/models"
	"ueicloud/backend/services/telemetry-service/internal/repository"
	"ueicloud/backend/services/telemetry-service/internal/validation"
)

const (
	scopeNode = "node"
	scopeAll  = "all"
)

// TelemetryStore defines storage contract used by the service.
type TelemetryStore interface {
	Insert(ctx context.Context, rec *models.TelemetryRecord) error
	LatestForNode(ctx context.Context, nodeID string) (*models.TelemetryRecord, error)
	LatestPerNode(ctx context.Context) ([]models.TelemetryRecord, error)
	Ping(ctx context.Context) error
}

// Publisher announces stored readings to downstream consumers.
type Publisher interface {
	PublishIngested(ctx context.Context, rec models.TelemetryRecord) error
}

// TelemetryService validates, stores and looks up BMS readings.
type TelemetryService struct {
	store     TelemetryStore
	publisher Publisher
	logger    *zap.Logger
}

// NewTelemetryService returns service instance. publisher may be nil.
func NewTelemetryService(store TelemetryStore, publisher Publisher, logger *zap.Logger) *TelemetryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// IngestBody decodes a request body and ingests it. Decode failures are counted as
// rejected ingests like any other validation failure.
func (s *TelemetryService) IngestBody(ctx context.Context, body io.Reader) (*models.IngestAck, error) {
	start := time.Now()
	pkt, err := validation.DecodePacket(body)
	if err != nil {
		s.reject(err, start)
		return nil, err
	}
	return s.ingest(ctx, pkt, start)
}

// Ingest validates the packet and persists it. Validation failures are *validation.Error
// and nothing is written in that case.
func (s *TelemetryService) Ingest(ctx context.Context, pkt *validation.Packet) (*models.IngestAck, error) {
	return s.ingest(ctx, pkt, time.Now())
}

func (s *TelemetryService) ingest(ctx context.Context, pkt *validation.Packet, start time.Time) (*models.IngestAck, error) {
	rec, err := pkt.Validate()
	if err != nil {
		s.reject(err, start)
		return nil, err
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		metrics.IncIngestError("store")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		return nil, err
	}
	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))

	s.logger.Debug("telemetry stored",
		zap.String("node_id", rec.NodeID),
		zap.String("bms_id", rec.BMSID),
		zap.Time("ts_utc", rec.TsUTC),
	)

	// The row is committed at this point; a failed notification must not fail the ingest.
	if s.publisher != nil {
		if err := s.publisher.PublishIngested(ctx, *rec); err != nil {
			s.logger.Warn("failed to publish ingested telemetry", zap.String("node_id", rec.NodeID), zap.Error(err))
		}
	}

	return &models.IngestAck{Status: "ok", NodeID: rec.NodeID}, nil
}

// Latest returns the most recent reading of nodeID or repository.ErrNodeNotFound.
func (s *TelemetryService) Latest(ctx context.Context, nodeID string) (*models.TelemetryRecord, error) {
	start := time.Now()
	rec, err := s.store.LatestForNode(ctx, nodeID)
	switch {
	case errors.Is(err, repository.ErrNodeNotFound):
		metrics.ObserveQuery(scopeNode, metrics.ResultNotFound, time.Since(start))
	case err != nil:
		metrics.ObserveQuery(scopeNode, metrics.ResultError, time.Since(start))
	default:
		metrics.ObserveQuery(scopeNode, metrics.ResultSuccess, time.Since(start))
	}
	return rec, err
}

// LatestAll returns the most recent reading of every known node, ordered by node_id.
func (s *TelemetryService) LatestAll(ctx context.Context) ([]models.TelemetryRecord, error) {
	start := time.Now()
	records, err := s.store.LatestPerNode(ctx)
	if err != nil {
		metrics.ObserveQuery(scopeAll, metrics.ResultError, time.Since(start))
		return nil, err
	}
	metrics.ObserveQuery(scopeAll, metrics.ResultSuccess, time.Since(start))
	if records == nil {
		records = []models.TelemetryRecord{}
	}
	return records, nil
}

// Ready reports whether the store answers.
func (s *TelemetryService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *TelemetryService) reject(err error, start time.Time) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		metrics.IncIngestError(reasonFor(vErr))
	} else {
		metrics.IncIngestError("read")
	}
	metrics.ObserveIngest(metrics.ResultRejected, time.Since(start))
}

func reasonFor(err *validation.Error) string {
	switch err.Field {
	case "":
		return "malformed"
	case "ts_utc":
		return "timestamp"
	case "soc":
		return "soc_range"
	default:
		return "field"
	}
}
