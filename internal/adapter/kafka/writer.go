package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/henemm/weather-email-autobot/internal/config"
	"github.com/henemm/weather-email-autobot/internal/report"
)

// Writer produces finished report lines to the reports topic.
// It implements pipeline.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured reports topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// reportMessage is the wire envelope around one report line.
type reportMessage struct {
	SegmentID string    `json:"segment_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// PublishReport publishes one report line, keyed by segment so all reports
// for a segment land on the same partition in order.
func (w *Writer) PublishReport(ctx context.Context, kind report.Kind, segmentID, text string, sentAt time.Time) error {
	msg, err := serializeReport(kind, segmentID, text, sentAt)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s report for %s: %w", kind, segmentID, err)
	}

	w.logger.Info("report published",
		"kind", string(kind),
		"segment", segmentID,
		"chars", len(text),
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeReport marshals a report line into a Kafka message.
func serializeReport(kind report.Kind, segmentID, text string, sentAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(reportMessage{
		SegmentID: segmentID,
		Kind:      string(kind),
		Text:      text,
		SentAt:    sentAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(segmentID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "sent_at", Value: []byte(sentAt.Format(time.RFC3339))},
		},
	}, nil
}
