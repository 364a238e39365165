package models

import "time"

// TelemetryRecord is one BMS reading reported by a field node. Field names follow the
// telemetry table columns and the ingest payload.
type TelemetryRecord struct {
	TsUTC            time.Time `db:"ts_utc" json:"ts_utc"`
	NodeID           string    `db:"node_id" json:"node_id"`
	BMSID            string    `db:"bms_id" json:"bms_id"`
	SOC              float64   `db:"soc" json:"soc"`
	PackVoltage      float64   `db:"pack_voltage" json:"pack_voltage"`
	PackCurrent      float64   `db:"pack_current" json:"pack_current"`
	TempHigh         float64   `db:"temp_high" json:"temp_high"`
	TempLow          float64   `db:"temp_low" json:"temp_low"`
	CCL              float64   `db:"ccl" json:"ccl"`
	DCL              float64   `db:"dcl" json:"dcl"`
	FaultActive      bool      `db:"fault_active" json:"fault_active"`
	FaultsClearedMin float64   `db:"faults_cleared_min" json:"faults_cleared_min"`
	HighestCellV     float64   `db:"highest_cell_v" json:"highest_cell_v"`
	LowestCellV      float64   `db:"lowest_cell_v" json:"lowest_cell_v"`
}

// IngestAck is returned after a record has been stored.
type IngestAck struct {
	Status string `json:"status"`
	NodeID string `json:"node_id"`
}
