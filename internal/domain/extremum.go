package domain

import "sort"

// Analyze reduces a merged series to its ExtremumResult: the global maximum
// under the parameter's comparator and, when a threshold is configured, the
// first chronological value meeting it across the union of all locations.
//
// Tie-break for the maximum is deterministic: most severe value, then
// earliest time, then lowest location identifier. A nil threshold skips
// crossing detection entirely; an empty series yields an empty result.
func Analyze(series Series, spec ParameterSpec, threshold *Threshold) ExtremumResult {
	if len(series) == 0 {
		return ExtremumResult{}
	}

	keys := make([]SeriesKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Time.Equal(keys[j].Time) {
			return keys[i].Time.Before(keys[j].Time)
		}
		return keys[i].Location < keys[j].Location
	})

	var maxObs *Observation
	var crossing *Observation
	for _, k := range keys {
		v := series[k]
		// Keys arrive in (time, location) order, so replacing only on a
		// strictly more severe value keeps the earliest occurrence on ties.
		if maxObs == nil || spec.Severer(v, maxObs.Value) {
			maxObs = &Observation{Time: k.Time, Value: v, Location: k.Location}
		}
		if crossing == nil && threshold != nil && spec.Meets(v, *threshold) {
			crossing = &Observation{Time: k.Time, Value: v, Location: k.Location}
		}
	}

	result := ExtremumResult{Crossing: crossing, Max: maxObs}
	if crossing != nil && maxObs != nil && spec.SameValue(crossing.Value, maxObs.Value) {
		result.Collapsed = true
	}
	return result
}
