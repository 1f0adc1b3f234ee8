package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"clip_service/internal/pipeline/domain"
	"clip_service/pkg/database"
	"clip_service/pkg/logger"
	"clip_service/pkg/metrics"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed broker closed the delivery channel while the consumer was running
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// AMQPChannel subset of *amqp.Channel the consumer needs
type AMQPChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// RetryPolicy broker side retry of failed jobs
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	LockTTL     time.Duration // in-flight lock per job id
}

// Backoff delay before attempt+1 is delivered: base × 2^(attempt−1)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << (attempt - 1)
}

// DeclareTopology 宣告 work / retry / failed 三個 queue。
// retry queue 沒有 consumer，訊息 TTL 到期後 dead-letter 回 work queue。
func DeclareTopology(ch AMQPChannel, queues domain.QueueNames) error {
	if _, err := ch.QueueDeclare(queues.Work, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queues.Work, err)
	}
	if _, err := ch.QueueDeclare(queues.Retry, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queues.Work,
	}); err != nil {
		return fmt.Errorf("declare %s: %w", queues.Retry, err)
	}
	if _, err := ch.QueueDeclare(queues.Failed, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queues.Failed, err)
	}
	return nil
}

// Consumer 定義一個消息消費者，concurrency 個 worker 共用一個 delivery channel
type Consumer struct {
	channel     AMQPChannel
	processor   JobProcessor
	publisher   database.RabbitRepo
	locker      database.Locker
	queues      domain.QueueNames
	concurrency int
	policy      RetryPolicy
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(channel AMQPChannel, processor JobProcessor, publisher database.RabbitRepo, locker database.Locker,
	queues domain.QueueNames, concurrency int, policy RetryPolicy) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		channel:     channel,
		processor:   processor,
		publisher:   publisher,
		locker:      locker,
		queues:      queues,
		concurrency: concurrency,
		policy:      policy,
	}
}

// Start 開始消費訊息，ctx 結束後等待進行中的 job 完成才返回。
// broker 關閉 channel 時回傳 ErrDeliveriesClosed
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queues.Work,
		"",    // consumer tag，留空由系統分配
		false, // autoAck 為 false，使用手動確認
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queues.Work, err)
	}

	logger.Log.Info("consumer started", zap.String("queue", c.queues.Work), zap.Int("concurrency", c.concurrency))

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.work(ctx, worker, msgs)
		}(i)
	}
	wg.Wait()

	logger.Log.Info("consumer stopped", zap.String("queue", c.queues.Work))
	if ctx.Err() == nil {
		return ErrDeliveriesClosed
	}
	return nil
}

func (c *Consumer) work(ctx context.Context, worker int, msgs <-chan amqp.Delivery) {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("delivery channel closed", zap.Int("worker", worker))
				return
			}
			// 關閉服務時讓進行中的 job 跑完
			c.HandleDelivery(context.WithoutCancel(ctx), d)
		case <-ctx.Done():
			return
		}
	}
}

// HandleDelivery process one delivery and settle it (ack, retry or park)
func (c *Consumer) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	attempt := AttemptOf(d.Headers)

	var job domain.ProcessingJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.park(d, attempt, fmt.Errorf("decode job: %w", err), "malformed")
		return
	}
	if err := job.Validate(); err != nil {
		c.park(d, attempt, fmt.Errorf("invalid job: %w", err), "malformed")
		return
	}

	fields := []zap.Field{zap.String("job_id", job.ID()), zap.Int("attempt", attempt)}

	acquired, err := c.locker.Acquire(ctx, job.ID(), c.policy.LockTTL)
	if err != nil {
		c.retry(d, job, attempt, err)
		return
	}
	if !acquired {
		// 同一個 item 已有 job 在跑
		logger.Log.Info("duplicate job dropped", fields...)
		metrics.JobsTotal.WithLabelValues("duplicate").Inc()
		c.ack(d)
		return
	}
	defer func() {
		if err := c.locker.Release(context.WithoutCancel(ctx), job.ID()); err != nil {
			logger.Log.Warn("release job lock", append(fields, zap.Error(err))...)
		}
	}()

	logger.Log.Info("job received", append(fields, zap.String("storage_key", job.StorageKey))...)

	if _, err := c.processor.Process(ctx, job); err != nil {
		c.retry(d, job, attempt, err)
		return
	}

	metrics.JobsTotal.WithLabelValues("live").Inc()
	c.ack(d)
}

// retry 還有次數就送進 retry queue 延遲重投，否則 park
func (c *Consumer) retry(d amqp.Delivery, job domain.ProcessingJob, attempt int, cause error) {
	if attempt >= c.policy.MaxAttempts {
		c.park(d, attempt, cause, "failed")
		return
	}

	delay := c.policy.Backoff(attempt)
	msg := republish(d, attempt+1)
	msg.Expiration = fmt.Sprintf("%d", delay.Milliseconds())

	if err := c.publisher.Publish("", c.queues.Retry, false, false, msg); err != nil {
		logger.Log.Error("publish retry failed, requeue", zap.String("job_id", job.ID()), zap.Error(err))
		c.nack(d)
		return
	}

	logger.Log.Warn("job scheduled for retry",
		zap.String("job_id", job.ID()),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)
	metrics.JobsTotal.WithLabelValues("retried").Inc()
	c.ack(d)
}

// park 移到 failed queue 保留，不再重試
func (c *Consumer) park(d amqp.Delivery, attempt int, cause error, result string) {
	msg := republish(d, attempt)
	msg.Headers[domain.HeaderError] = cause.Error()

	if err := c.publisher.Publish("", c.queues.Failed, false, false, msg); err != nil {
		logger.Log.Error("publish to failed queue, requeue", zap.String("message_id", d.MessageId), zap.Error(err))
		c.nack(d)
		return
	}

	logger.Log.Error("job parked",
		zap.String("message_id", d.MessageId),
		zap.Int("attempt", attempt),
		zap.Error(cause),
	)
	metrics.JobsTotal.WithLabelValues(result).Inc()
	c.ack(d)
}

func (c *Consumer) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		logger.Log.Error("ack failed", zap.String("message_id", d.MessageId), zap.Error(err))
	}
}

func (c *Consumer) nack(d amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		logger.Log.Error("nack failed", zap.String("message_id", d.MessageId), zap.Error(err))
	}
}

func republish(d amqp.Delivery, attempt int) amqp.Publishing {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[domain.HeaderAttempt] = int32(attempt)

	return amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    time.Now(),
		Body:         d.Body,
	}
}

// AttemptOf 1-based attempt from the x-attempt header, 1 when absent
func AttemptOf(headers amqp.Table) int {
	switch v := headers[domain.HeaderAttempt].(type) {
	case int:
		return max(v, 1)
	case int16:
		return max(int(v), 1)
	case int32:
		return max(int(v), 1)
	case int64:
		return max(int(v), 1)
	case float64:
		return max(int(v), 1)
	default:
		return 1
	}
}
