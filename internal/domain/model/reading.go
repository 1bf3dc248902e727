package model

import (
	"strconv"
	"time"
)

// Reading is one timestamped measurement in an exported sequence.
// Numeric values are rounded by the generator at production time; serializers
// write them as provided without re-rounding.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	MeterID   string    `json:"meter_id"`
	EnergyKWh float64   `json:"energy_kwh"`
	PowerKW   float64   `json:"power_kw"`
	VoltageV  float64   `json:"voltage_v"`
	CurrentA  float64   `json:"current_a"`
}

// Field is one named, pre-formatted reading value. The ordered field list
// drives the CSV header/rows and the XML child elements so all formats agree
// on names and ordering.
type Field struct {
	Name  string
	Value string
}

// Fields returns the reading's values in export order.
func (r Reading) Fields() []Field {
	return []Field{
		{Name: "timestamp", Value: r.Timestamp.UTC().Format("2006-01-02T15:04:05Z")},
		{Name: "meter_id", Value: r.MeterID},
		{Name: "energy_kwh", Value: strconv.FormatFloat(r.EnergyKWh, 'f', 3, 64)},
		{Name: "power_kw", Value: strconv.FormatFloat(r.PowerKW, 'f', 3, 64)},
		{Name: "voltage_v", Value: strconv.FormatFloat(r.VoltageV, 'f', 1, 64)},
		{Name: "current_a", Value: strconv.FormatFloat(r.CurrentA, 'f', 2, 64)},
	}
}

// FieldNames returns the export field names in order.
func FieldNames() []string {
	fields := Reading{}.Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
