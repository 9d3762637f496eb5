// Package kafka adapts the pipeline's sample source and report sink to
// Kafka topics. The external fetch layer publishes one message per sample
// batch on the samples topic; finished report lines go out on the reports
// topic for the transport layer to deliver verbatim.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/henemm/weather-email-autobot/internal/config"
	"github.com/henemm/weather-email-autobot/internal/domain"
)

// Reader consumes forecast sample batches from the samples topic.
// It implements pipeline.SampleSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured samples topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSamplesTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, logger: logger}
}

// ReadSamples fetches the next sample batch. Each message on the samples
// topic carries one complete JSON-encoded batch.
func (r *Reader) ReadSamples(ctx context.Context) ([]domain.Sample, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sample batch: %w", err)
	}

	samples, err := decodeBatch(msg.Value)
	if err != nil {
		// A malformed batch is committed and skipped, never retried.
		r.logger.Warn("skipping malformed sample batch",
			"offset", msg.Offset,
			"partition", msg.Partition,
			"error", err,
		)
		if commitErr := r.reader.CommitMessages(ctx, msg); commitErr != nil {
			return nil, fmt.Errorf("commit malformed batch: %w", commitErr)
		}
		return nil, err
	}

	if err := r.reader.CommitMessages(ctx, msg); err != nil {
		return nil, fmt.Errorf("commit sample batch: %w", err)
	}

	r.logger.Debug("consumed sample batch",
		"samples", len(samples),
		"offset", msg.Offset,
	)
	return samples, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// decodeBatch unmarshals and validates one sample batch.
func decodeBatch(data []byte) ([]domain.Sample, error) {
	var samples []domain.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode sample batch: %w", err)
	}
	for i, s := range samples {
		if err := validateSample(s); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return samples, nil
}

func validateSample(s domain.Sample) error {
	if s.Time.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	if s.Location == "" {
		return fmt.Errorf("missing location")
	}
	if s.Source == "" {
		return fmt.Errorf("missing source")
	}
	if _, err := domain.SpecFor(s.Param); err != nil {
		return err
	}
	return nil
}
