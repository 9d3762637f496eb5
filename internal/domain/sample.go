package domain

import (
	"fmt"
	"time"
)

// Severity is the ordinal value domain for level-based parameters.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMed
	SeverityHigh
)

var severityNames = map[Severity]string{
	SeverityNone: "none",
	SeverityLow:  "low",
	SeverityMed:  "med",
	SeverityHigh: "high",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "none"
}

// Letter returns the single-character report token for a severity level.
func (s Severity) Letter() string {
	switch s {
	case SeverityLow:
		return "L"
	case SeverityMed:
		return "M"
	case SeverityHigh:
		return "H"
	default:
		return "-"
	}
}

// ParseSeverity maps a config/wire string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	for level, name := range severityNames {
		if name == s {
			return level, nil
		}
	}
	return SeverityNone, fmt.Errorf("unknown severity level %q", s)
}

// MarshalText implements encoding.TextMarshaler so severities persist as
// their names rather than bare integers.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	level, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = level
	return nil
}

// Value holds one measurement. For numeric parameters Num is set; for
// ordinal parameters Level is set and Num is ignored.
type Value struct {
	Num   float64  `json:"num,omitempty"`
	Level Severity `json:"level,omitempty"`
}

// Num returns a numeric Value.
func Num(v float64) Value { return Value{Num: v} }

// Level returns an ordinal Value.
func Level(s Severity) Value { return Value{Level: s} }

// Sample is one raw forecast measurement as published by the fetch layer.
// Samples are immutable inputs; the pipeline never mutates or re-emits them.
type Sample struct {
	Time     time.Time `json:"time"`
	Location string    `json:"location"`
	Param    ParameterID `json:"param"`
	Source   string    `json:"source"`
	Value    Value     `json:"value"`
}

// SeriesKey identifies one merged measurement inside an aggregation window.
type SeriesKey struct {
	Location string
	Time     time.Time
}

// Series is the merged, single-value-per-key view of one parameter's samples.
type Series map[SeriesKey]Value

// Observation is a (time, value, location) fact extracted from a Series.
type Observation struct {
	Time     time.Time `json:"time"`
	Value    Value     `json:"value"`
	Location string    `json:"location"`
}

// Hour returns the observation's hour of day, used by the report grammar
// and by change detection (a shift of one full hour is significant).
func (o Observation) Hour() int { return o.Time.Hour() }

// ExtremumResult summarizes one parameter over one aggregation window:
// the first threshold crossing (nil if never crossed or no threshold is
// configured for the parameter) and the global maximum (nil only when the
// window held no samples at all). Collapsed marks crossing and maximum
// carrying the same value, so the encoder emits one token instead of two.
type ExtremumResult struct {
	Crossing  *Observation `json:"crossing,omitempty"`
	Max       *Observation `json:"max,omitempty"`
	Collapsed bool         `json:"collapsed,omitempty"`
}

// Empty reports whether the window held no data for the parameter.
func (r ExtremumResult) Empty() bool { return r.Max == nil && r.Crossing == nil }
