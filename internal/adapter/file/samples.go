// Package file provides a file-backed sample source for one-shot runs,
// where the fetch layer drops a JSON sample batch on disk instead of
// publishing it to Kafka.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

// Source reads one sample batch from a JSON file.
// It implements pipeline.SampleSource.
type Source struct {
	path   string
	logger *slog.Logger
}

func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// ReadSamples loads and validates the batch file. The context is accepted
// for interface parity; local reads do not block on it.
func (s *Source) ReadSamples(_ context.Context) ([]domain.Sample, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read sample batch: %w", err)
	}

	var samples []domain.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode sample batch %s: %w", s.path, err)
	}
	for i, smp := range samples {
		if smp.Time.IsZero() || smp.Location == "" || smp.Source == "" {
			return nil, fmt.Errorf("sample batch %s: sample %d is incomplete", s.path, i)
		}
		if _, err := domain.SpecFor(smp.Param); err != nil {
			return nil, fmt.Errorf("sample batch %s: sample %d: %w", s.path, i, err)
		}
	}

	s.logger.Debug("loaded sample batch", "path", s.path, "samples", len(samples))
	return samples, nil
}
