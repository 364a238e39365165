package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ueicloud/backend/services/telemetry-service/internal/models"
)

// ErrNodeNotFound is returned when a node has no stored telemetry.
var ErrNodeNotFound = errors.New("telemetry: unknown node_id")

const telemetryColumns = `ts_utc, node_id, bms_id, soc, pack_voltage, pack_current, temp_high, temp_low,
		ccl, dcl, fault_active, faults_cleared_min, highest_cell_v, lowest_cell_v`

// TelemetryRepository persists BMS readings in the telemetry table.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository returns repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Insert appends one reading.
func (r *TelemetryRepository) Insert(ctx context.Context, rec *models.TelemetryRecord) error {
	const query = `
		INSERT INTO telemetry (` + telemetryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.TsUTC,
		rec.NodeID,
		rec.BMSID,
		rec.SOC,
		rec.PackVoltage,
		rec.PackCurrent,
		rec.TempHigh,
		rec.TempLow,
		rec.CCL,
		rec.DCL,
		rec.FaultActive,
		rec.FaultsClearedMin,
		rec.HighestCellV,
		rec.LowestCellV,
	)
	if err != nil {
		return fmt.Errorf("telemetry: insert: %w", err)
	}
	return nil
}

// LatestForNode returns the most recent reading of a node.
func (r *TelemetryRepository) LatestForNode(ctx context.Context, nodeID string) (*models.TelemetryRecord, error) {
	const query = `
		SELECT ` + telemetryColumns + `
		FROM telemetry
		WHERE node_id = $1
		ORDER BY ts_utc DESC
		LIMIT 1
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("telemetry: latest for node: %w", err)
	}
	return rec, nil
}

// LatestPerNode returns the most recent reading of every node ordered by node_id.
// The grouping runs in a single statement so the result is one consistent snapshot.
func (r *TelemetryRepository) LatestPerNode(ctx context.Context) ([]models.TelemetryRecord, error) {
	const query = `
		SELECT DISTINCT ON (node_id) ` + telemetryColumns + `
		FROM telemetry
		ORDER BY node_id, ts_utc DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("telemetry: latest per node: %w", err)
	}
	defer rows.Close()

	records := make([]models.TelemetryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("telemetry: scan: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("telemetry: latest per node: %w", err)
	}
	return records, nil
}

// Ping checks the store is reachable.
func (r *TelemetryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.TelemetryRecord, error) {
	var rec models.TelemetryRecord
	err := row.Scan(
		&rec.TsUTC,
		&rec.NodeID,
		&rec.BMSID,
		&rec.SOC,
		&rec.PackVoltage,
		&rec.PackCurrent,
		&rec.TempHigh,
		&rec.TempLow,
		&rec.CCL,
		&rec.DCL,
		&rec.FaultActive,
		&rec.FaultsClearedMin,
		&rec.HighestCellV,
		&rec.LowestCellV,
	)
	if err != nil {
		return nil, err
	}
	rec.TsUTC = rec.TsUTC.UTC()
	return &rec, nil
}
