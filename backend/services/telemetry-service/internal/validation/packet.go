package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ueicloud/backend/services/telemetry-service/internal/models"
)

const (
	minSOC = 0.0
	maxSOC = 100.0

	// TimestampMessage is the client-facing detail for an unparseable ts_utc.
	TimestampMessage = "ts_utc must be ISO8601"
)

// Error is an input validation failure. Message is safe to return to clients.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func fieldError(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: field + ": " + fmt.Sprintf(format, args...)}
}

// Packet is the ingest payload as sent by field nodes. Pointer fields let the validator
// tell a missing field from a zero value.
type Packet struct {
	TsUTC            *string  `json:"ts_utc"`
	NodeID           *string  `json:"node_id"`
	BMSID            *string  `json:"bms_id"`
	SOC              *float64 `json:"soc"`
	PackVoltage      *float64 `json:"pack_voltage"`
	PackCurrent      *float64 `json:"pack_current"`
	TempHigh         *float64 `json:"temp_high"`
	TempLow          *float64 `json:"temp_low"`
	CCL              *float64 `json:"ccl"`
	DCL              *float64 `json:"dcl"`
	FaultActive      *bool    `json:"fault_active"`
	FaultsClearedMin *float64 `json:"faults_cleared_min"`
	HighestCellV     *float64 `json:"highest_cell_v"`
	LowestCellV      *float64 `json:"lowest_cell_v"`
}

// ErrReadBody marks a failure to read the request body, as opposed to a body that was read
// and rejected.
var ErrReadBody = errors.New("validation: read body")

// DecodePacket reads a single JSON object. Keys match field names exactly; trailing data after
// the object is a syntax error. Syntax and type errors come back as *Error, reader failures
// are returned wrapped in ErrReadBody.
func DecodePacket(r io.Reader) (*Packet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadBody, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &Error{Message: "request body is empty"}
	}
	if !json.Valid(data) {
		return nil, &Error{Message: "invalid JSON body"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, &Error{Message: "request body must be a JSON object"}
	}

	var pkt Packet
	for _, f := range pkt.fields() {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.dest); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, fieldError(f.name, "expected %s, got %s", expectedType(f.name), typeErr.Value)
			}
			return nil, fieldError(f.name, "invalid value")
		}
	}
	return &pkt, nil
}

type packetField struct {
	name string
	dest any
}

func (p *Packet) fields() []packetField {
	return []packetField{
		{"ts_utc", &p.TsUTC},
		{"node_id", &p.NodeID},
		{"bms_id", &p.BMSID},
		{"soc", &p.SOC},
		{"pack_voltage", &p.PackVoltage},
		{"pack_current", &p.PackCurrent},
		{"temp_high", &p.TempHigh},
		{"temp_low", &p.TempLow},
		{"ccl", &p.CCL},
		{"dcl", &p.DCL},
		{"fault_active", &p.FaultActive},
		{"faults_cleared_min", &p.FaultsClearedMin},
		{"highest_cell_v", &p.HighestCellV},
		{"lowest_cell_v", &p.LowestCellV},
	}
}

func expectedType(field string) string {
	switch field {
	case "ts_utc", "node_id", "bms_id":
		return "string"
	case "fault_active":
		return "bool"
	default:
		return "number"
	}
}

// Validate checks presence and ranges, then parses the timestamp. A soc outside [0, 100]
// is reported before the timestamp is looked at.
func (p *Packet) Validate() (*models.TelemetryRecord, error) {
	if err := p.checkRequired(); err != nil {
		return nil, err
	}
	if *p.SOC < minSOC || *p.SOC > maxSOC {
		return nil, fieldError("soc", "must be between %g and %g", minSOC, maxSOC)
	}

	ts, err := ParseTimestamp(*p.TsUTC)
	if err != nil {
		return nil, &Error{Field: "ts_utc", Message: TimestampMessage}
	}

	return &models.TelemetryRecord{
		TsUTC:            ts,
		NodeID:           *p.NodeID,
		BMSID:            *p.BMSID,
		SOC:              *p.SOC,
		PackVoltage:      *p.PackVoltage,
		PackCurrent:      *p.PackCurrent,
		TempHigh:         *p.TempHigh,
		TempLow:          *p.TempLow,
		CCL:              *p.CCL,
		DCL:              *p.DCL,
		FaultActive:      *p.FaultActive,
		FaultsClearedMin: *p.FaultsClearedMin,
		HighestCellV:     *p.HighestCellV,
		LowestCellV:      *p.LowestCellV,
	}, nil
}

func (p *Packet) checkRequired() error {
	present := []struct {
		name string
		ok   bool
	}{
		{"ts_utc", p.TsUTC != nil},
		{"node_id", p.NodeID != nil},
		{"bms_id", p.BMSID != nil},
		{"soc", p.SOC != nil},
		{"pack_voltage", p.PackVoltage != nil},
		{"pack_current", p.PackCurrent != nil},
		{"temp_high", p.TempHigh != nil},
		{"temp_low", p.TempLow != nil},
		{"ccl", p.CCL != nil},
		{"dcl", p.DCL != nil},
		{"fault_active", p.FaultActive != nil},
		{"faults_cleared_min", p.FaultsClearedMin != nil},
		{"highest_cell_v", p.HighestCellV != nil},
		{"lowest_cell_v", p.LowestCellV != nil},
	}
	for _, f := range present {
		if !f.ok {
			return fieldError(f.name, "field required")
		}
	}
	return nil
}

// ParseTimestamp parses an ISO-8601 date-time: extended (2024-01-01T10:30:00) or basic
// (20240101T103000) date and time, an hour-only or hour-minute time, a fraction of up to nine digits after '.'
// or ',', and an offset of Z, ±HH, ±HH:MM, ±HHMM or ±HH:MM:SS[.ffffff]. A space may
// separate date and time. Values without an offset are taken as UTC. The result is
// always in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	ts, ok := parseISO(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("validation: %q is not an ISO8601 timestamp", raw)
	}
	return ts, nil
}

func parseISO(s string) (time.Time, bool) {
	year, month, day, rest, ok := parseDate(s)
	if !ok {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, false
	}
	if rest == "" {
		return date, true
	}

	switch rest[0] {
	case 'T', 't', ' ':
	default:
		return time.Time{}, false
	}
	clock, zone := splitZone(rest[1:])

	offset, ok := parseOffset(zone)
	if !ok {
		return time.Time{}, false
	}
	since, ok := parseClock(clock)
	if !ok || since >= 24*time.Hour {
		return time.Time{}, false
	}
	return date.Add(since).Add(-offset), true
}

// parseDate accepts YYYY-MM-DD or YYYYMMDD and returns whatever follows.
func parseDate(s string) (year, month, day int, rest string, ok bool) {
	var y, m, d string
	switch {
	case len(s) >= 10 && s[4] == '-' && s[7] == '-':
		y, m, d, rest = s[0:4], s[5:7], s[8:10], s[10:]
	case len(s) >= 8:
		y, m, d, rest = s[0:4], s[4:6], s[6:8], s[8:]
	default:
		return 0, 0, 0, "", false
	}
	year, okY := digits(y)
	month, okM := digits(m)
	day, okD := digits(d)
	return year, month, day, rest, okY && okM && okD
}

func splitZone(s string) (clock, zone string) {
	if i := strings.IndexAny(s, "+-Zz"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func parseOffset(zone string) (time.Duration, bool) {
	switch zone {
	case "", "Z", "z":
		return 0, true
	}
	sign := time.Duration(1)
	switch zone[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}
	d, ok := parseClock(zone[1:])
	if !ok || d >= 24*time.Hour {
		return 0, false
	}
	return sign * d, true
}

// parseClock reads HH[:MM[:SS[.f]]] or HH[MM[SS[.f]]] as a duration since midnight.
// A fraction is only allowed after seconds.
func parseClock(s string) (time.Duration, bool) {
	main, frac := s, ""
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		main, frac = s[:i], s[i+1:]
	}

	var parts []string
	if strings.Contains(main, ":") {
		parts = strings.Split(main, ":")
	} else {
		for i := 0; i+2 <= len(main); i += 2 {
			parts = append(parts, main[i:i+2])
		}
		if len(main)%2 != 0 {
			return 0, false
		}
	}
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}
	hasFrac := len(main) != len(s)
	if hasFrac && (frac == "" || len(parts) != 3) {
		return 0, false
	}

	limits := []int{23, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, part := range parts {
		if len(part) != 2 {
			return 0, false
		}
		n, ok := digits(part)
		if !ok || n > limits[i] {
			return 0, false
		}
		d += time.Duration(n) * units[i]
	}

	if hasFrac {
		if len(frac) > 9 {
			return 0, false
		}
		n, ok := digits(frac + strings.Repeat("0", 9-len(frac)))
		if !ok {
			return 0, false
		}
		d += time.Duration(n)
	}
	return d, true
}

// digits parses a non-empty run of ASCII digits.
func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
