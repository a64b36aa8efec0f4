// Machine telemetry record and its output schema
package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status is the operating state a machine reports for one reading.
type Status string

// Machine status values.
const (
	StatusRunning Status = "Running"
	StatusIdle    Status = "Idle"
	StatusFault   Status = "Fault"
	StatusOffline Status = "Offline"
)

// TimestampLayout is the output format of Record.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Columns lists the output fields in schema order.
var Columns = []string{
	"Timestamp",
	"MachineID",
	"Status",
	"Temperature",
	"Energy_kWh",
	"Vibration",
	"Throughput",
	"ErrorCode",
}

// Record is one telemetry observation. ErrorCode is nil unless the status
// carries error codes.
type Record struct {
	Timestamp   time.Time
	MachineID   string
	Status      Status
	Temperature float64
	EnergyKWh   float64
	Vibration   float64
	Throughput  int
	ErrorCode   *string
}

// TelemetryTableName is the GreptimeDB table used when the configuration
// names none.
const TelemetryTableName = "machine_telemetry"

// wireRecord fixes the JSON field order and names of the output schema.
type wireRecord struct {
	Timestamp   string  `json:"Timestamp"`
	MachineID   string  `json:"MachineID"`
	Status      Status  `json:"Status"`
	Temperature float64 `json:"Temperature"`
	EnergyKWh   float64 `json:"Energy_kWh"`
	Vibration   float64 `json:"Vibration"`
	Throughput  int     `json:"Throughput"`
	ErrorCode   *string `json:"ErrorCode"`
}

// MarshalJSON encodes the record in output-schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Timestamp:   r.Timestamp.Format(TimestampLayout),
		MachineID:   r.MachineID,
		Status:      r.Status,
		Temperature: r.Temperature,
		EnergyKWh:   r.EnergyKWh,
		Vibration:   r.Vibration,
		Throughput:  r.Throughput,
		ErrorCode:   r.ErrorCode,
	})
}

// UnmarshalJSON decodes a record written by MarshalJSON. Timestamps are
// interpreted in the local time zone.
func (r *Record) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	ts, err := time.ParseInLocation(TimestampLayout, w.Timestamp, time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", w.Timestamp, err)
	}
	*r = Record{
		Timestamp:   ts,
		MachineID:   w.MachineID,
		Status:      w.Status,
		Temperature: w.Temperature,
		EnergyKWh:   w.EnergyKWh,
		Vibration:   w.Vibration,
		Throughput:  w.Throughput,
		ErrorCode:   w.ErrorCode,
	}
	return nil
}

// CSVRow renders the record as CSV fields in schema order. A missing error
// code is an empty field.
func (r Record) CSVRow() []string {
	code := ""
	if r.ErrorCode != nil {
		code = *r.ErrorCode
	}
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.MachineID,
		string(r.Status),
		formatFloat(r.Temperature),
		formatFloat(r.EnergyKWh),
		formatFloat(r.Vibration),
		strconv.Itoa(r.Throughput),
		code,
	}
}

// ErrorCodeString returns the error code or "" when absent.
func (r Record) ErrorCodeString() string {
	if r.ErrorCode == nil {
		return ""
	}
	return *r.ErrorCode
}

// formatFloat prints the shortest representation, keeping one decimal for
// whole numbers so columns stay visibly numeric (65.0, 0.0).
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
