package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wind-grid-etl/internal/config"
	"github.com/couchcryptid/wind-grid-etl/internal/domain"
	"github.com/couchcryptid/wind-grid-etl/internal/observability"
)

// Writer publishes one message per height to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured grid topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Load serializes every grid of the run and publishes them in a single
// WriteMessages call. Keying by height keeps each level on one partition.
func (w *Writer) Load(ctx context.Context, run domain.Run) error {
	if len(run.Grids) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(run.Grids))
	for i := range run.Grids {
		msg, err := serializeToMessage(run, run.Grids[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish envelopes: %w", err)
	}
	w.metrics.EnvelopesWritten.WithLabelValues("kafka").Add(float64(len(msgs)))
	w.logger.Info("envelopes published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one level's envelope into a Kafka message.
func serializeToMessage(run domain.Run, g domain.LevelGrid) (kafkago.Message, error) {
	data, err := json.Marshal(g.Envelope)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize envelope %s: %w", g.Height.Label(), err)
	}
	label := g.Height.Label()
	return kafkago.Message{
		Key:   []byte(label),
		Value: data,
		Time:  run.StartedAt,
		Headers: []kafkago.Header{
			{Key: "height", Value: []byte(label)},
			{Key: "ref_time", Value: []byte(g.Envelope.RefTime())},
			{Key: "run_id", Value: []byte(run.ID)},
		},
	}, nil
}
