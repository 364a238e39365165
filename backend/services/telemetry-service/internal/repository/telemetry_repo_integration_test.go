package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func openIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var exists bool
	if err := db.QueryRow(`SELECT to_regclass('public.telemetry') IS NOT NULL`).Scan(&exists); err != nil {
		t.Fatalf("check table: %v", err)
	}
	if !exists {
		t.Skip("telemetry table missing; provision schema first")
	}
	return db
}

func TestTelemetryRepository_Postgres(t *testing.T) {
	db := openIntegrationDB(t)
	repo := NewTelemetryRepository(db)
	ctx := context.Background()

	suffix := uuid.NewString()
	nodeA := "it-a-" + suffix
	nodeB := "it-b-" + suffix
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, "DELETE FROM telemetry WHERE node_id IN ($1, $2)", nodeA, nodeB)
	})

	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, ts := range []time.Time{base, base.Add(2 * time.Minute), base.Add(time.Minute)} {
		rec := sampleRecord(nodeA, ts)
		rec.SOC = float64(10 * (i + 1))
		if err := repo.Insert(ctx, &rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	recB := sampleRecord(nodeB, base)
	if err := repo.Insert(ctx, &recB); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	latest, err := repo.LatestForNode(ctx, nodeA)
	if err != nil {
		t.Fatalf("latest for node: %v", err)
	}
	if !latest.TsUTC.Equal(base.Add(2*time.Minute)) || latest.SOC != 20 {
		t.Fatalf("unexpected latest record: %+v", latest)
	}

	if _, err := repo.LatestForNode(ctx, "it-missing-"+suffix); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}

	all, err := repo.LatestPerNode(ctx)
	if err != nil {
		t.Fatalf("latest per node: %v", err)
	}
	found := map[string]bool{}
	for _, rec := range all {
		if rec.NodeID == nodeA || rec.NodeID == nodeB {
			if found[rec.NodeID] {
				t.Fatalf("node %s returned twice", rec.NodeID)
			}
			found[rec.NodeID] = true
		}
		if rec.NodeID == nodeA && !rec.TsUTC.Equal(base.Add(2*time.Minute)) {
			t.Fatalf("node a not at latest reading: %+v", rec)
		}
	}
	if !found[nodeA] || !found[nodeB] {
		t.Fatalf("expected both nodes in result, got %v", found)
	}
}
