// Package route loads the hiking route description and resolves which
// stage is walked on a given calendar day.
package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrOutOfRange is returned when a day falls before the route start or
// after its last stage. Callers treat it as "no report due", not a failure.
var ErrOutOfRange = errors.New("no stage scheduled for this day")

// Point is one forecast location on a stage.
type Point struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Stage is one day's walk: a name and the points along it.
type Stage struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Locations returns the point identifiers used to key forecast samples.
func (s Stage) Locations() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.ID
	}
	return out
}

// Route is the ordered list of stages; stage i is walked on start date + i days.
type Route struct {
	Stages []Stage `json:"stages"`
}

// Load reads and validates a route file.
func Load(path string) (*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}

	var r Route
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse route file %s: %w", path, err)
	}
	if len(r.Stages) == 0 {
		return nil, fmt.Errorf("route file %s: no stages", path)
	}
	for i, st := range r.Stages {
		if st.Name == "" {
			return nil, fmt.Errorf("route file %s: stage %d has no name", path, i)
		}
		if len(st.Points) == 0 {
			return nil, fmt.Errorf("route file %s: stage %q has no points", path, st.Name)
		}
		for j, p := range st.Points {
			if p.ID == "" {
				return nil, fmt.Errorf("route file %s: stage %q point %d has no id", path, st.Name, j)
			}
		}
	}
	return &r, nil
}

// StageFor returns the stage walked on the given day. The day count is
// calendar-based: time-of-day is ignored on both arguments.
func (r *Route) StageFor(start, day time.Time) (Stage, error) {
	idx := daysBetween(start, day)
	if idx < 0 || idx >= len(r.Stages) {
		return Stage{}, fmt.Errorf("%w: %s is day %d of a %d-stage route",
			ErrOutOfRange, day.Format("2006-01-02"), idx+1, len(r.Stages))
	}
	return r.Stages[idx], nil
}

func daysBetween(start, day time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(s).Hours() / 24)
}
