package domain

import "time"

// Window is the aggregation window one ExtremumResult is computed over: a
// set of route point identifiers and an inclusive time range.
type Window struct {
	Locations []string
	Start     time.Time
	End       time.Time
}

// DayWindow builds the window covering one calendar day's relevant hours
// for the given route points, e.g. 04:00-22:00.
func DayWindow(points []string, day time.Time, fromHour, toHour int) Window {
	y, m, d := day.Date()
	return Window{
		Locations: points,
		Start:     time.Date(y, m, d, fromHour, 0, 0, 0, day.Location()),
		End:       time.Date(y, m, d, toHour, 0, 0, 0, day.Location()),
	}
}

// NightWindow builds the window spanning the night leading into day:
// fromHour on the previous evening through toHour on the morning of day.
func NightWindow(points []string, day time.Time, fromHour, toHour int) Window {
	y, m, d := day.Date()
	start := time.Date(y, m, d, fromHour, 0, 0, 0, day.Location()).AddDate(0, 0, -1)
	end := time.Date(y, m, d, toHour, 0, 0, 0, day.Location())
	return Window{Locations: points, Start: start, End: end}
}

// Contains reports whether a (location, time) pair falls inside the window.
func (w Window) Contains(location string, t time.Time) bool {
	if t.Before(w.Start) || t.After(w.End) {
		return false
	}
	for _, loc := range w.Locations {
		if loc == location {
			return true
		}
	}
	return false
}

// FilterSamples restricts raw samples to one parameter inside one window.
func FilterSamples(samples []Sample, id ParameterID, w Window) []Sample {
	var out []Sample
	for _, s := range samples {
		if s.Param == id && w.Contains(s.Location, s.Time) {
			out = append(out, s)
		}
	}
	return out
}
