package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(entries map[int]float64, loc string) Series {
	s := make(Series)
	for hour, v := range entries {
		s[SeriesKey{Location: loc, Time: hourUTC(hour)}] = Num(v)
	}
	return s
}

func hourUTC(h int) time.Time {
	return time.Date(2026, 7, 14, h, 0, 0, 0, time.UTC)
}

func numThreshold(v float64) *Threshold { return &Threshold{Num: v} }

func TestAnalyze_RainScenario(t *testing.T) {
	spec, err := SpecFor(RainProbability)
	require.NoError(t, err)

	t.Run("crossing and maximum coincide", func(t *testing.T) {
		// Two-point segment: 35% at 13:00 and 55% at 15:00 against a 50% threshold.
		series := Series{
			{Location: "P1", Time: hourUTC(13)}: Num(35),
			{Location: "P2", Time: hourUTC(15)}: Num(55),
		}
		result := Analyze(series, spec, numThreshold(50))

		require.NotNil(t, result.Crossing)
		require.NotNil(t, result.Max)
		assert.Equal(t, hourUTC(15), result.Crossing.Time)
		assert.Equal(t, 55.0, result.Crossing.Value.Num)
		assert.Equal(t, hourUTC(15), result.Max.Time)
		assert.Equal(t, 55.0, result.Max.Value.Num)
		assert.True(t, result.Collapsed)
	})

	t.Run("crossing and maximum move together when one sample is both", func(t *testing.T) {
		// Raising 15:00 to 60% must move the crossing value too: the crossing
		// is read at the crossing time, not frozen at the threshold.
		series := Series{
			{Location: "P1", Time: hourUTC(13)}: Num(35),
			{Location: "P2", Time: hourUTC(15)}: Num(60),
		}
		result := Analyze(series, spec, numThreshold(50))

		require.NotNil(t, result.Crossing)
		assert.Equal(t, 60.0, result.Crossing.Value.Num)
		assert.Equal(t, hourUTC(15), result.Crossing.Time)
		assert.Equal(t, 60.0, result.Max.Value.Num)
		assert.True(t, result.Collapsed)
	})

	t.Run("only the first crossing is recorded", func(t *testing.T) {
		series := seriesOf(map[int]float64{9: 80, 12: 30, 15: 55}, "P1")
		result := Analyze(series, spec, numThreshold(50))

		require.NotNil(t, result.Crossing)
		assert.Equal(t, hourUTC(9), result.Crossing.Time, "9:00 is the first value over 50")
		assert.Equal(t, 80.0, result.Max.Value.Num)
	})
}

func TestAnalyze_ThresholdMaxConsistency(t *testing.T) {
	spec, err := SpecFor(WindSpeed)
	require.NoError(t, err)

	series := seriesOf(map[int]float64{8: 42, 11: 61, 14: 55}, "P1")
	result := Analyze(series, spec, numThreshold(40))

	require.NotNil(t, result.Crossing)
	require.NotNil(t, result.Max)
	assert.False(t, spec.Severer(result.Crossing.Value, result.Max.Value),
		"max must be at least as severe as the crossing")
	assert.Equal(t, hourUTC(8), result.Crossing.Time)
	assert.Equal(t, 61.0, result.Max.Value.Num)
	assert.False(t, result.Collapsed)
}

func TestAnalyze_TieBreaks(t *testing.T) {
	spec, err := SpecFor(RainProbability)
	require.NoError(t, err)

	t.Run("equal values keep the earliest time", func(t *testing.T) {
		series := Series{
			{Location: "P1", Time: hourUTC(16)}: Num(70),
			{Location: "P1", Time: hourUTC(10)}: Num(70),
		}
		result := Analyze(series, spec, nil)
		assert.Equal(t, hourUTC(10), result.Max.Time)
	})

	t.Run("equal values and times keep the lowest location", func(t *testing.T) {
		series := Series{
			{Location: "P2", Time: hourUTC(10)}: Num(70),
			{Location: "P1", Time: hourUTC(10)}: Num(70),
		}
		result := Analyze(series, spec, nil)
		assert.Equal(t, "P1", result.Max.Location)
	})
}

func TestAnalyze_EdgeCases(t *testing.T) {
	spec, err := SpecFor(RainProbability)
	require.NoError(t, err)

	t.Run("empty series yields empty result", func(t *testing.T) {
		result := Analyze(Series{}, spec, numThreshold(50))
		assert.True(t, result.Empty())
		assert.Nil(t, result.Crossing)
		assert.Nil(t, result.Max)
	})

	t.Run("threshold never crossed", func(t *testing.T) {
		series := seriesOf(map[int]float64{10: 20, 14: 30}, "P1")
		result := Analyze(series, spec, numThreshold(50))

		assert.Nil(t, result.Crossing)
		require.NotNil(t, result.Max)
		assert.Equal(t, 30.0, result.Max.Value.Num)
		assert.False(t, result.Collapsed)
	})

	t.Run("nil threshold skips crossing detection", func(t *testing.T) {
		series := seriesOf(map[int]float64{10: 90}, "P1")
		result := Analyze(series, spec, nil)

		assert.Nil(t, result.Crossing)
		assert.Equal(t, 90.0, result.Max.Value.Num)
	})

	t.Run("exact threshold value crosses", func(t *testing.T) {
		series := seriesOf(map[int]float64{10: 50}, "P1")
		result := Analyze(series, spec, numThreshold(50))
		require.NotNil(t, result.Crossing)
		assert.Equal(t, 50.0, result.Crossing.Value.Num)
	})
}

func TestAnalyze_MinComparator(t *testing.T) {
	spec, err := SpecFor(ConvectiveInhibition)
	require.NoError(t, err)

	series := Series{
		{Location: "P1", Time: hourUTC(8)}:  Num(-20),
		{Location: "P1", Time: hourUTC(11)}: Num(-75),
		{Location: "P1", Time: hourUTC(14)}: Num(-140),
	}
	result := Analyze(series, spec, numThreshold(-50))

	require.NotNil(t, result.Crossing)
	assert.Equal(t, hourUTC(11), result.Crossing.Time, "first value at or below -50")
	assert.Equal(t, -75.0, result.Crossing.Value.Num)
	assert.Equal(t, -140.0, result.Max.Value.Num, "most negative CIN is the extreme")
	assert.False(t, result.Collapsed)
}

func TestAnalyze_Ordinal(t *testing.T) {
	spec, err := SpecFor(Thunderstorm)
	require.NoError(t, err)

	series := Series{
		{Location: "P1", Time: hourUTC(12)}: Level(SeverityLow),
		{Location: "P1", Time: hourUTC(15)}: Level(SeverityMed),
		{Location: "P1", Time: hourUTC(17)}: Level(SeverityHigh),
	}
	threshold := &Threshold{Level: SeverityMed}
	result := Analyze(series, spec, threshold)

	require.NotNil(t, result.Crossing)
	assert.Equal(t, SeverityMed, result.Crossing.Value.Level)
	assert.Equal(t, hourUTC(15), result.Crossing.Time)
	assert.Equal(t, SeverityHigh, result.Max.Value.Level)
	assert.False(t, result.Collapsed)
}

func TestWindowFiltering(t *testing.T) {
	day := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)
	w := DayWindow([]string{"P1", "P2"}, day, 4, 22)

	assert.True(t, w.Contains("P1", hourUTC(4)))
	assert.True(t, w.Contains("P2", hourUTC(22)))
	assert.False(t, w.Contains("P1", hourUTC(23)))
	assert.False(t, w.Contains("P3", hourUTC(12)), "point not on the segment")

	night := NightWindow([]string{"P1"}, day, 22, 5)
	assert.True(t, night.Contains("P1", day.Add(-2*time.Hour)), "22:00 the evening before")
	assert.True(t, night.Contains("P1", hourUTC(5)))
	assert.False(t, night.Contains("P1", hourUTC(6)))

	samples := []Sample{
		{Time: hourUTC(12), Location: "P1", Param: RainProbability, Value: Num(30)},
		{Time: hourUTC(12), Location: "P1", Param: WindSpeed, Value: Num(20)},
		{Time: hourUTC(23), Location: "P1", Param: RainProbability, Value: Num(90)},
	}
	filtered := FilterSamples(samples, RainProbability, w)
	require.Len(t, filtered, 1)
	assert.Equal(t, 30.0, filtered[0].Value.Num)
}
