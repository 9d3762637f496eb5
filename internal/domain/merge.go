package domain

// MergeSources collapses samples from multiple forecast sources into one
// value per (location, timestamp) key, keeping the most severe value under
// the parameter's comparator. Samples for other parameters are ignored.
//
// The merge is a pure function of its inputs. A key for which no source
// reported a value is absent from the result; with a single source the
// merge is the identity.
func MergeSources(samples []Sample, spec ParameterSpec) Series {
	series := make(Series)
	for _, s := range samples {
		if s.Param != spec.ID {
			continue
		}
		key := SeriesKey{Location: s.Location, Time: s.Time}
		current, seen := series[key]
		if !seen || spec.Severer(s.Value, current) {
			series[key] = s.Value
		}
	}
	return series
}
