package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henemm/weather-email-autobot/internal/config"
	"github.com/henemm/weather-email-autobot/internal/observability"
	"github.com/henemm/weather-email-autobot/internal/report"
)

type recordingRunner struct {
	mu    sync.Mutex
	kinds []report.Kind
	err   error
	ran   chan report.Kind
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{ran: make(chan report.Kind, 16)}
}

func (r *recordingRunner) Run(_ context.Context, kind report.Kind) error {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
	r.ran <- kind
	return r.err
}

func (r *recordingRunner) recorded() []report.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]report.Kind(nil), r.kinds...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
start_date: 2026-07-01
route_file: etappen.json
state_root: .data
schedule:
  morning: "04:30"
  evening: "19:00"
  dynamic_interval_min: 30
thresholds:
  rain_probability: 50
  rain_amount: 2.0
  wind_speed: 40
  wind_gust: 60
  temperature: 32
  thunderstorm: low
`))
	require.NoError(t, err)
	return cfg
}

func newTestScheduler(t *testing.T, runner Runner, clock clockwork.Clock) *Scheduler {
	t.Helper()
	s, err := New(runner, testConfig(t), clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
	require.NoError(t, err)
	return s
}

func TestNextEvent(t *testing.T) {
	s := newTestScheduler(t, newRecordingRunner(), clockwork.NewRealClock())

	tests := []struct {
		name     string
		now      time.Time
		wantAt   time.Time
		wantKind report.Kind
	}{
		{
			name:     "early morning fires the morning report before any tick",
			now:      time.Date(2026, 7, 1, 4, 15, 0, 0, time.UTC),
			wantAt:   time.Date(2026, 7, 1, 4, 30, 0, 0, time.UTC),
			wantKind: report.KindMorning,
		},
		{
			name:     "midday fires a dynamic tick",
			now:      time.Date(2026, 7, 1, 12, 10, 0, 0, time.UTC),
			wantAt:   time.Date(2026, 7, 1, 12, 30, 0, 0, time.UTC),
			wantKind: report.KindDynamic,
		},
		{
			name:     "a tick coinciding with the evening time yields to it",
			now:      time.Date(2026, 7, 1, 18, 45, 0, 0, time.UTC),
			wantAt:   time.Date(2026, 7, 1, 19, 0, 0, 0, time.UTC),
			wantKind: report.KindEvening,
		},
		{
			name:     "late night rolls the morning report to tomorrow",
			now:      time.Date(2026, 7, 1, 23, 50, 0, 0, time.UTC),
			wantAt:   time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
			wantKind: report.KindDynamic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, kind := s.nextEvent(tt.now)
			assert.Equal(t, tt.wantAt, at)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestRun_FiresInOrder(t *testing.T) {
	runner := newRecordingRunner()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 4, 0, 0, 0, time.UTC))
	s := newTestScheduler(t, runner, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	// 04:30 morning report.
	clock.BlockUntil(1)
	clock.Advance(30 * time.Minute)
	assert.Equal(t, report.KindMorning, <-runner.ran)

	// 05:00 dynamic tick.
	clock.BlockUntil(1)
	clock.Advance(30 * time.Minute)
	assert.Equal(t, report.KindDynamic, <-runner.ran)

	// 05:30 dynamic tick.
	clock.BlockUntil(1)
	clock.Advance(30 * time.Minute)
	assert.Equal(t, report.KindDynamic, <-runner.ran)

	cancel()
	<-done

	assert.Equal(t, []report.Kind{report.KindMorning, report.KindDynamic, report.KindDynamic}, runner.recorded())
}

func TestRun_ContinuesAfterFailedInvocation(t *testing.T) {
	runner := newRecordingRunner()
	runner.err = errors.New("broker unreachable")
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	s := newTestScheduler(t, runner, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	clock.BlockUntil(1)
	clock.Advance(30 * time.Minute)
	<-runner.ran

	// The loop keeps scheduling after the failure.
	clock.BlockUntil(1)
	clock.Advance(30 * time.Minute)
	<-runner.ran

	cancel()
	<-done

	assert.Len(t, runner.recorded(), 2)
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Morning = "25:00"

	_, err := New(newRecordingRunner(), cfg, clockwork.NewRealClock(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfig))

	cfg = testConfig(t)
	cfg.Schedule.DynamicIntervalMin = -5
	_, err = New(newRecordingRunner(), cfg, clockwork.NewRealClock(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
	assert.Error(t, err)
}
