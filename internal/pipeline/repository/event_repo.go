package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"clip_service/internal/pipeline/domain"

	"github.com/segmentio/kafka-go"
)

// EventRepo publish item status transitions to downstream consumers
type EventRepo interface {
	PublishStatus(ctx context.Context, event domain.StatusEvent) error
}

// KafkaWriter subset of *kafka.Writer used here
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaEventRepo struct {
	writer KafkaWriter
}

// NewKafkaEventRepo create EventRepo on a kafka writer, keyed by item id so one item stays ordered
func NewKafkaEventRepo(writer KafkaWriter) EventRepo {
	return &kafkaEventRepo{writer: writer}
}

func (r *kafkaEventRepo) PublishStatus(ctx context.Context, event domain.StatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	return r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ItemID),
		Value: data,
	})
}

type nopEventRepo struct{}

// NewNopEventRepo EventRepo used when kafka is not configured
func NewNopEventRepo() EventRepo {
	return nopEventRepo{}
}

func (nopEventRepo) PublishStatus(context.Context, domain.StatusEvent) error {
	return nil
}
