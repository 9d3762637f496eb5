package domain

import "fmt"

// ParameterID identifies one forecast parameter. The set is closed: the
// merge, analysis, and report layers all dispatch on the table below, never
// on per-source strings.
type ParameterID string

const (
	RainProbability      ParameterID = "rain_probability"
	RainAmount           ParameterID = "rain_amount"
	WindSpeed            ParameterID = "wind_speed"
	WindGust             ParameterID = "wind_gust"
	Thunderstorm         ParameterID = "thunderstorm"
	ThunderstormOutlook  ParameterID = "thunderstorm_next"
	Temperature          ParameterID = "temperature"
	NightTemperature     ParameterID = "night_temperature"
	ConvectiveInhibition ParameterID = "cin"
)

// Direction is the comparator direction of a parameter: for Max a higher
// value is more severe, for Min a lower value is (convective inhibition,
// night minimum temperature).
type Direction int

const (
	Max Direction = iota
	Min
)

// ParameterSpec describes one parameter's value domain, comparator, and
// report grammar.
type ParameterSpec struct {
	ID        ParameterID
	Ordinal   bool
	Direction Direction

	// Report grammar.
	Abbrev    string // token prefix, e.g. "R" renders R55%@15
	Unit      string // suffix inside the token ("%" or none)
	Decimals  int    // 0 renders whole numbers, 1 one decimal (rain amount)
	ValueOnly bool   // render the extreme value without an hour (night temperature)

	// Priority orders token dropping when a report would exceed the
	// character budget: lower priorities are dropped first.
	Priority int
}

// parameterTable fixes the closed parameter set in report display order.
var parameterTable = []ParameterSpec{
	{ID: NightTemperature, Direction: Min, Abbrev: "N", ValueOnly: true, Priority: 80},
	{ID: RainProbability, Direction: Max, Abbrev: "R", Unit: "%", Priority: 90},
	{ID: RainAmount, Direction: Max, Abbrev: "RA", Decimals: 1, Priority: 60},
	{ID: WindSpeed, Direction: Max, Abbrev: "W", Priority: 70},
	{ID: WindGust, Direction: Max, Abbrev: "G", Priority: 50},
	{ID: Thunderstorm, Ordinal: true, Direction: Max, Abbrev: "TH", Priority: 100},
	{ID: ThunderstormOutlook, Ordinal: true, Direction: Max, Abbrev: "TH+", Priority: 30},
	{ID: Temperature, Direction: Max, Abbrev: "T", Priority: 40},
	{ID: ConvectiveInhibition, Direction: Min, Abbrev: "CIN", Priority: 20},
}

var parameterIndex = func() map[ParameterID]ParameterSpec {
	m := make(map[ParameterID]ParameterSpec, len(parameterTable))
	for _, spec := range parameterTable {
		m[spec.ID] = spec
	}
	return m
}()

// Parameters returns the closed parameter set in report display order.
func Parameters() []ParameterSpec {
	specs := make([]ParameterSpec, len(parameterTable))
	copy(specs, parameterTable)
	return specs
}

// SpecFor looks up the spec for a parameter identifier.
func SpecFor(id ParameterID) (ParameterSpec, error) {
	spec, ok := parameterIndex[id]
	if !ok {
		return ParameterSpec{}, fmt.Errorf("unknown parameter %q", id)
	}
	return spec, nil
}

// Severer reports whether a is strictly more severe than b under the
// parameter's comparator.
func (p ParameterSpec) Severer(a, b Value) bool {
	if p.Ordinal {
		return a.Level > b.Level
	}
	if p.Direction == Min {
		return a.Num < b.Num
	}
	return a.Num > b.Num
}

// Threshold is a relevance threshold in the parameter's value domain.
type Threshold struct {
	Num   float64
	Level Severity
}

// Meets reports whether v meets or exceeds the threshold under the
// parameter's comparator direction.
func (p ParameterSpec) Meets(v Value, t Threshold) bool {
	if p.Ordinal {
		return v.Level >= t.Level
	}
	if p.Direction == Min {
		return v.Num <= t.Num
	}
	return v.Num >= t.Num
}

// SameValue reports value equality in the parameter's domain. Used for the
// collapse rule and for dynamic-report comparison of ordinal levels.
func (p ParameterSpec) SameValue(a, b Value) bool {
	if p.Ordinal {
		return a.Level == b.Level
	}
	return a.Num == b.Num
}
