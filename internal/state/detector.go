package state

import (
	"math"
	"time"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

// Suppression reasons surfaced in the audit log.
const (
	ReasonFirstSend   = "first_send"
	ReasonChange      = "significant_change"
	ReasonUnchanged   = "unchanged"
	ReasonMinInterval = "min_interval"
	ReasonDailyCap    = "daily_cap"
)

// Decision is the outcome of one dynamic change check.
type Decision struct {
	// Send is true when a dynamic report should go out now.
	Send bool
	// Reason names why (or why not), for the audit trail.
	Reason string
	// Changed lists the parameters whose facts changed significantly,
	// whether or not the send was allowed.
	Changed []domain.ParameterID
}

// Detector compares freshly computed facts against the last-sent record.
type Detector struct {
	deltas      map[domain.ParameterID]float64
	minInterval time.Duration
	maxDaily    int
}

func NewDetector(deltas map[domain.ParameterID]float64, minInterval time.Duration, maxDaily int) *Detector {
	return &Detector{deltas: deltas, minInterval: minInterval, maxDaily: maxDaily}
}

// Evaluate decides whether the new facts warrant a dynamic report at time
// now. A detected change suppressed by a rate limit still reports its
// changed parameters, so the suppression can be audited.
func (d *Detector) Evaluate(prev *Record, results map[domain.ParameterID]domain.ExtremumResult, now time.Time) Decision {
	if prev == nil {
		var withData []domain.ParameterID
		for _, spec := range domain.Parameters() {
			if res, ok := results[spec.ID]; ok && !res.Empty() {
				withData = append(withData, spec.ID)
			}
		}
		if len(withData) == 0 {
			return Decision{Reason: ReasonUnchanged}
		}
		return Decision{Send: true, Reason: ReasonFirstSend, Changed: withData}
	}

	var changed []domain.ParameterID
	for _, spec := range domain.Parameters() {
		newRes, ok := results[spec.ID]
		if !ok {
			continue
		}
		if d.significant(spec, prev.Results[spec.ID], newRes) {
			changed = append(changed, spec.ID)
		}
	}
	if len(changed) == 0 {
		return Decision{Reason: ReasonUnchanged}
	}

	if now.Sub(prev.LastSentAt) < d.minInterval {
		return Decision{Reason: ReasonMinInterval, Changed: changed}
	}
	if prev.DynamicSendsToday >= d.maxDaily {
		return Decision{Reason: ReasonDailyCap, Changed: changed}
	}
	return Decision{Send: true, Reason: ReasonChange, Changed: changed}
}

// significant applies the per-parameter change rules: a maximum-value delta
// at or above the configured threshold, a crossing or maximum hour shift of
// one hour or more, any ordinal level change, or a fact appearing or
// disappearing.
func (d *Detector) significant(spec domain.ParameterSpec, old, fresh domain.ExtremumResult) bool {
	if obsChanged(spec, old.Crossing, fresh.Crossing, 0) {
		return true
	}

	delta := d.deltas[spec.ID]
	return obsChanged(spec, old.Max, fresh.Max, delta)
}

func obsChanged(spec domain.ParameterSpec, old, fresh *domain.Observation, delta float64) bool {
	if (old == nil) != (fresh == nil) {
		return true
	}
	if old == nil {
		return false
	}

	if shift := fresh.Time.Sub(old.Time); shift >= time.Hour || shift <= -time.Hour {
		return true
	}

	if spec.Ordinal {
		return old.Value.Level != fresh.Value.Level
	}
	if delta <= 0 {
		return false
	}
	return math.Abs(fresh.Value.Num-old.Value.Num) >= delta
}
