package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ueicloud/backend/services/telemetry-service/internal/models"
)

var columns = []string{
	"ts_utc", "node_id", "bms_id", "soc", "pack_voltage", "pack_current", "temp_high", "temp_low",
	"ccl", "dcl", "fault_active", "faults_cleared_min", "highest_cell_v", "lowest_cell_v",
}

func sampleRecord(nodeID string, ts time.Time) models.TelemetryRecord {
	return models.TelemetryRecord{
		TsUTC:            ts,
		NodeID:           nodeID,
		BMSID:            "bms-1",
		SOC:              64.5,
		PackVoltage:      52.1,
		PackCurrent:      -8.25,
		TempHigh:         33,
		TempLow:          21.5,
		CCL:              90,
		DCL:              120,
		FaultActive:      true,
		FaultsClearedMin: 5,
		HighestCellV:     3.51,
		LowestCellV:      3.47,
	}
}

func recordRow(rec models.TelemetryRecord) []driver.Value {
	return []driver.Value{
		rec.TsUTC, rec.NodeID, rec.BMSID, rec.SOC, rec.PackVoltage, rec.PackCurrent, rec.TempHigh,
		rec.TempLow, rec.CCL, rec.DCL, rec.FaultActive, rec.FaultsClearedMin, rec.HighestCellV, rec.LowestCellV,
	}
}

func newMock(t *testing.T) (*TelemetryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTelemetryRepository(db), mock
}

func TestInsertWritesAllColumns(t *testing.T) {
	repo, mock := newMock(t)
	rec := sampleRecord("node-a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO telemetry (ts_utc, node_id, bms_id")).
		WithArgs(recordRow(rec)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertPropagatesStoreError(t *testing.T) {
	repo, mock := newMock(t)
	rec := sampleRecord("node-a", time.Now().UTC())
	storeErr := errors.New("connection refused")

	mock.ExpectExec("INSERT INTO telemetry").WillReturnError(storeErr)

	err := repo.Insert(context.Background(), &rec)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestLatestForNode(t *testing.T) {
	repo, mock := newMock(t)
	want := sampleRecord("node-a", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE node_id = $1") + `\s+ORDER BY ts_utc DESC\s+LIMIT 1`).
		WithArgs("node-a").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(recordRow(want)...))

	got, err := repo.LatestForNode(context.Background(), "node-a")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if *got != want {
		t.Fatalf("record mismatch:\n got=%+v\nwant=%+v", *got, want)
	}
}

func TestLatestForNodeNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM telemetry").WithArgs("ghost").WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.LatestForNode(context.Background(), "ghost")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestLatestForNodeStoreError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM telemetry").WithArgs("node-a").WillReturnError(errors.New("boom"))

	_, err := repo.LatestForNode(context.Background(), "node-a")
	if err == nil || errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestLatestPerNode(t *testing.T) {
	repo, mock := newMock(t)
	a := sampleRecord("node-a", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	b := sampleRecord("node-b", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (node_id)") + `[\s\S]+` + regexp.QuoteMeta("ORDER BY node_id, ts_utc DESC")).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(recordRow(a)...).AddRow(recordRow(b)...))

	got, err := repo.LatestPerNode(context.Background())
	if err != nil {
		t.Fatalf("latest per node: %v", err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected records: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestPerNodeEmpty(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT DISTINCT ON").WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.LatestPerNode(context.Background())
	if err != nil {
		t.Fatalf("latest per node: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestLatestPerNodeRowError(t *testing.T) {
	repo, mock := newMock(t)
	a := sampleRecord("node-a", time.Now().UTC())
	rows := sqlmock.NewRows(columns).AddRow(recordRow(a)...).RowError(0, errors.New("network reset"))
	mock.ExpectQuery("SELECT DISTINCT ON").WillReturnRows(rows)

	if _, err := repo.LatestPerNode(context.Background()); err == nil {
		t.Fatalf("expected row error")
	}
}
