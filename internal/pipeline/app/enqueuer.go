package app

import (
	"encoding/json"
	"fmt"
	"time"

	"clip_service/internal/pipeline/domain"
	"clip_service/pkg/database"
	errprocess "clip_service/pkg/err"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Enqueuer publish ProcessingJob to the work queue
type Enqueuer struct {
	publisher database.RabbitRepo
	queue     string
}

// NewEnqueuer create Enqueuer
func NewEnqueuer(publisher database.RabbitRepo, queue string) *Enqueuer {
	return &Enqueuer{publisher: publisher, queue: queue}
}

// Enqueue 發布第一次 attempt，message id 固定為 process-{itemId}
func (e *Enqueuer) Enqueue(job domain.ProcessingJob) error {
	if err := job.Validate(); err != nil {
		return errprocess.Wrap(err, "invalid job", zap.String("item_id", job.ItemID))
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if err := e.publisher.Publish("", e.queue, false, false, amqp.Publishing{
		Headers:      amqp.Table{domain.HeaderAttempt: int32(1)},
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID(),
		Timestamp:    time.Now(),
		Body:         body,
	}); err != nil {
		return errprocess.Wrap(err, "publish "+job.ID(), zap.String("queue", e.queue))
	}
	return nil
}
