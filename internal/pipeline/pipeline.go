// Package pipeline wires one report invocation end to end: read the sample
// batch, merge sources worst-case, extract extremum facts per parameter
// over the stage's aggregation windows, then either publish a scheduled
// report or run change detection to gate a dynamic one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/henemm/weather-email-autobot/internal/config"
	"github.com/henemm/weather-email-autobot/internal/domain"
	"github.com/henemm/weather-email-autobot/internal/observability"
	"github.com/henemm/weather-email-autobot/internal/report"
	"github.com/henemm/weather-email-autobot/internal/route"
	"github.com/henemm/weather-email-autobot/internal/state"
)

// SampleSource supplies the invocation's forecast sample batch.
type SampleSource interface {
	ReadSamples(ctx context.Context) ([]domain.Sample, error)
}

// ReportPublisher hands a finished report line to the transport layer.
type ReportPublisher interface {
	PublishReport(ctx context.Context, kind report.Kind, segmentID, text string, sentAt time.Time) error
}

// Pipeline runs complete report invocations.
type Pipeline struct {
	source    SampleSource
	publisher ReportPublisher
	cfg       *config.Config
	route     *route.Route
	store     *state.Store
	detector  *state.Detector
	audit     *state.Audit
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given collaborators and observability.
func New(source SampleSource, publisher ReportPublisher, cfg *config.Config, r *route.Route, store *state.Store, detector *state.Detector, audit *state.Audit, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:    source,
		publisher: publisher,
		cfg:       cfg,
		route:     r,
		store:     store,
		detector:  detector,
		audit:     audit,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// invocation.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed an invocation yet")
	}
	return nil
}

// Run executes one invocation of the given report kind.
func (p *Pipeline) Run(ctx context.Context, kind report.Kind) error {
	start := p.clock.Now()

	err := p.run(ctx, kind)
	if err != nil {
		p.metrics.ReportErrors.Inc()
		return err
	}

	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

func (p *Pipeline) run(ctx context.Context, kind report.Kind) error {
	now := p.clock.Now().UTC()

	samples, err := p.source.ReadSamples(ctx)
	if err != nil {
		return fmt.Errorf("%s run: %w", kind, err)
	}
	p.metrics.SamplesConsumed.Add(float64(len(samples)))

	switch kind {
	case report.KindMorning:
		return p.runMorning(ctx, samples, now)
	case report.KindEvening:
		return p.runEvening(ctx, samples, now)
	case report.KindDynamic:
		return p.runDynamic(ctx, samples, now)
	default:
		return fmt.Errorf("%w: unknown report kind %q", config.ErrConfig, kind)
	}
}

// runMorning reports today's stage over today's daylight window.
func (p *Pipeline) runMorning(ctx context.Context, samples []domain.Sample, now time.Time) error {
	stage, err := p.route.StageFor(p.cfg.StartDate, now)
	if err != nil {
		return p.skipIfOffRoute(err, report.KindMorning)
	}

	results := p.dayResults(samples, stage, now)

	text, err := report.Encode(report.Input{
		Kind:        report.KindMorning,
		SegmentName: stage.Name,
		Results:     results,
		MaxChars:    p.cfg.MaxChars,
	})
	if err != nil {
		return fmt.Errorf("morning run: %w", err)
	}

	return p.send(ctx, report.KindMorning, stage.Name, text, results, now)
}

// runEvening reports tomorrow's stage: the coming night's minimum
// temperature at today's destination, tomorrow's daylight facts, and the
// thunderstorm outlook one day further out.
func (p *Pipeline) runEvening(ctx context.Context, samples []domain.Sample, now time.Time) error {
	tomorrow := now.AddDate(0, 0, 1)

	stage, err := p.route.StageFor(p.cfg.StartDate, tomorrow)
	if err != nil {
		return p.skipIfOffRoute(err, report.KindEvening)
	}
	today, err := p.route.StageFor(p.cfg.StartDate, now)
	if err != nil {
		return p.skipIfOffRoute(err, report.KindEvening)
	}

	results := p.dayResults(samples, stage, tomorrow)

	// Night minimum at today's destination, where the night is spent.
	nightWindow := domain.NightWindow(today.Locations(), tomorrow, p.cfg.Windows.NightStart, p.cfg.Windows.NightEnd)
	results[domain.NightTemperature] = p.analyze(samples, domain.NightTemperature, nightWindow)

	text, err := report.Encode(report.Input{
		Kind:            report.KindEvening,
		SegmentName:     today.Name,
		NextSegmentName: stage.Name,
		Results:         results,
		MaxChars:        p.cfg.MaxChars,
	})
	if err != nil {
		return fmt.Errorf("evening run: %w", err)
	}

	return p.send(ctx, report.KindEvening, stage.Name, text, results, now)
}

// runDynamic recomputes today's facts over the same windows the morning
// report used, so persisted and fresh results compare like for like.
func (p *Pipeline) runDynamic(ctx context.Context, samples []domain.Sample, now time.Time) error {
	stage, err := p.route.StageFor(p.cfg.StartDate, now)
	if err != nil {
		return p.skipIfOffRoute(err, report.KindDynamic)
	}

	results := p.dayResults(samples, stage, now)

	prev, err := p.store.Load(stage.Name, now)
	if err != nil {
		return fmt.Errorf("dynamic run: %w", err)
	}

	dec := p.detector.Evaluate(prev, results, now)
	p.audit.Log(now, uuid.NewString(), stage.Name, dec)

	if !dec.Send {
		outcome := "unchanged"
		if len(dec.Changed) > 0 {
			outcome = "suppressed"
			p.metrics.DynamicSuppressed.WithLabelValues(dec.Reason).Inc()
		}
		p.metrics.DynamicChecks.WithLabelValues(outcome).Inc()
		p.logger.Info("dynamic report withheld",
			"segment", stage.Name,
			"reason", dec.Reason,
			"changed", state.ChangedLabels(dec.Changed),
		)
		return nil
	}
	p.metrics.DynamicChecks.WithLabelValues("sent").Inc()

	text, err := report.Encode(report.Input{
		Kind:        report.KindDynamic,
		SegmentName: stage.Name,
		Results:     results,
		Changed:     dec.Changed,
		MaxChars:    p.cfg.MaxChars,
	})
	if err != nil {
		return fmt.Errorf("dynamic run: %w", err)
	}

	if err := p.publisher.PublishReport(ctx, report.KindDynamic, stage.Name, text, now); err != nil {
		return fmt.Errorf("dynamic run: %w", err)
	}
	p.metrics.ReportsProduced.WithLabelValues(string(report.KindDynamic)).Inc()
	p.metrics.ReportLength.Observe(float64(len(text)))

	rec := state.NextRecord(prev, stage.Name, now, results, now, true)
	if err := p.store.Save(rec); err != nil {
		return fmt.Errorf("dynamic run: %w", err)
	}
	return nil
}

// send publishes a scheduled report and persists the sent facts.
func (p *Pipeline) send(ctx context.Context, kind report.Kind, segmentID, text string, results map[domain.ParameterID]domain.ExtremumResult, now time.Time) error {
	if err := p.publisher.PublishReport(ctx, kind, segmentID, text, now); err != nil {
		return fmt.Errorf("%s run: %w", kind, err)
	}
	p.metrics.ReportsProduced.WithLabelValues(string(kind)).Inc()
	p.metrics.ReportLength.Observe(float64(len(text)))

	prev, err := p.store.Load(segmentID, now)
	if err != nil {
		return fmt.Errorf("%s run: %w", kind, err)
	}
	rec := state.NextRecord(prev, segmentID, now, results, now, false)
	if err := p.store.Save(rec); err != nil {
		return fmt.Errorf("%s run: %w", kind, err)
	}
	return nil
}

// dayResults computes the extremum facts for every daylight parameter of a
// stage on the given day. The thunderstorm outlook looks one day further.
func (p *Pipeline) dayResults(samples []domain.Sample, stage route.Stage, day time.Time) map[domain.ParameterID]domain.ExtremumResult {
	locations := stage.Locations()
	dayWindow := domain.DayWindow(locations, day, p.cfg.Windows.DayStart, p.cfg.Windows.DayEnd)
	outlookWindow := domain.DayWindow(locations, day.AddDate(0, 0, 1), p.cfg.Windows.DayStart, p.cfg.Windows.DayEnd)

	results := make(map[domain.ParameterID]domain.ExtremumResult)
	for _, spec := range domain.Parameters() {
		switch spec.ID {
		case domain.NightTemperature:
			// Evening grammar only; added by the caller.
		case domain.ThunderstormOutlook:
			results[spec.ID] = p.analyze(samples, spec.ID, outlookWindow)
		default:
			results[spec.ID] = p.analyze(samples, spec.ID, dayWindow)
		}
	}
	return results
}

// analyze runs merge and extremum extraction for one parameter and window.
func (p *Pipeline) analyze(samples []domain.Sample, id domain.ParameterID, window domain.Window) domain.ExtremumResult {
	spec, err := domain.SpecFor(id)
	if err != nil {
		// The parameter table is closed; this cannot happen for table entries.
		p.logger.Error("unknown parameter in analysis", "param", string(id), "error", err)
		return domain.ExtremumResult{}
	}

	filtered := domain.FilterSamples(samples, id, window)
	series := domain.MergeSources(filtered, spec)
	return domain.Analyze(series, spec, p.cfg.ThresholdFor(id))
}

// skipIfOffRoute turns "no stage today" into a logged no-op: after the
// route's last day there is simply nothing to report.
func (p *Pipeline) skipIfOffRoute(err error, kind report.Kind) error {
	if errors.Is(err, route.ErrOutOfRange) {
		p.logger.Info("no report due", "kind", string(kind), "reason", err.Error())
		return nil
	}
	return fmt.Errorf("%w: %v", config.ErrConfig, err)
}
