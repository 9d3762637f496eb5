// Command gensamples generates a synthetic forecast sample batch for a
// route, usable as a -samples file for one-shot runs or as a test fixture.
// It uses the real domain types so generated batches always decode.
//
// Usage:
//
//	go run ./cmd/gensamples \
//	  -route etappen.json \
//	  -date 2026-07-01 -days 3 \
//	  -seed 42 \
//	  -out samples.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/henemm/weather-email-autobot/internal/domain"
	"github.com/henemm/weather-email-autobot/internal/route"
)

var sources = []string{"model-a", "model-b"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	routeFile := flag.String("route", "", "route JSON file")
	dateStr := flag.String("date", "", "first forecast day (YYYY-MM-DD)")
	days := flag.Int("days", 3, "number of forecast days")
	seed := flag.Int64("seed", 1, "random seed for reproducible batches")
	out := flag.String("out", "samples.json", "output path")
	flag.Parse()

	if *routeFile == "" || *dateStr == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -route, -date")
	}

	start, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		return fmt.Errorf("bad -date: %w", err)
	}

	r, err := route.Load(*routeFile)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))

	var samples []domain.Sample
	for d := range *days {
		day := start.AddDate(0, 0, d)
		for _, stage := range r.Stages {
			for _, point := range stage.Points {
				samples = append(samples, pointDay(rng, day, point.ID)...)
			}
		}
	}

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}

	log.Printf("wrote %d samples for %d days to %s", len(samples), *days, *out)
	return nil
}

// pointDay generates one day of hourly samples for one route point, from
// every source, with an afternoon convective peak so thresholds actually
// get crossed now and then.
func pointDay(rng *rand.Rand, day time.Time, location string) []domain.Sample {
	var out []domain.Sample

	stormy := rng.Float64() < 0.4

	for hour := 0; hour < 24; hour++ {
		ts := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
		// Peaks mid-afternoon, 0 around sunrise/sunset.
		peak := math.Max(0, math.Sin((float64(hour)-6)/12*math.Pi))

		for _, src := range sources {
			jitter := func(scale float64) float64 { return (rng.Float64() - 0.5) * scale }

			add := func(id domain.ParameterID, v domain.Value) {
				out = append(out, domain.Sample{
					Time: ts, Location: location, Param: id, Source: src, Value: v,
				})
			}

			rainP := 20 + 30*peak + jitter(20)
			if stormy {
				rainP += 30 * peak
			}
			add(domain.RainProbability, domain.Num(clamp(rainP, 0, 100)))
			add(domain.RainAmount, domain.Num(math.Max(0, 2*peak*rng.Float64())))
			add(domain.WindSpeed, domain.Num(math.Max(0, 15+20*peak+jitter(10))))
			add(domain.WindGust, domain.Num(math.Max(0, 25+35*peak+jitter(15))))
			add(domain.Temperature, domain.Num(12+16*peak+jitter(4)))
			add(domain.NightTemperature, domain.Num(6+4*rng.Float64()))
			add(domain.ConvectiveInhibition, domain.Num(-20-120*peak*rng.Float64()))

			level := domain.SeverityNone
			if stormy && peak > 0.6 {
				switch {
				case rng.Float64() > 0.7:
					level = domain.SeverityHigh
				case rng.Float64() > 0.4:
					level = domain.SeverityMed
				default:
					level = domain.SeverityLow
				}
			}
			add(domain.Thunderstorm, domain.Level(level))
			add(domain.ThunderstormOutlook, domain.Level(level))
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
