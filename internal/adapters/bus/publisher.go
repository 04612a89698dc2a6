// Package bus publishes domain notifications onto a Redis-backed asynq queue.
// The notification worker consumes them; see internal/worker.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/upfrom/backend/internal/domain"
)

// Envelope wraps a notification with delivery metadata. The task type on the
// queue is the notification kind, so workers route by pattern.
type Envelope struct {
	MessageID    string              `json:"message_id"`
	OccurredAt   time.Time           `json:"occurred_at"`
	Notification domain.Notification `json:"notification"`
}

type asynqPublisher struct {
	client *asynq.Client
}

// NewAsynqPublisher returns a NotificationPublisher that enqueues one asynq
// task per notification.
func NewAsynqPublisher(redisAddr string) domain.NotificationPublisher {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	return &asynqPublisher{client: client}
}

func (p *asynqPublisher) Publish(ctx context.Context, n domain.Notification) error {
	task, err := NewTask(n, time.Now())
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue %s: %w", n.Kind, err)
	}
	return nil
}

// NewTask builds the asynq task for a notification. Split out from Publish so
// the envelope shape is testable without a Redis connection.
func NewTask(n domain.Notification, occurredAt time.Time) (*asynq.Task, error) {
	env := Envelope{
		MessageID:    uuid.NewString(),
		OccurredAt:   occurredAt.UTC(),
		Notification: n,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", n.Kind, err)
	}
	return asynq.NewTask(string(n.Kind), payload), nil
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every notification. Used in
// tests and in environments without Redis.
func NewNoopPublisher() domain.NotificationPublisher {
	return &noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, n domain.Notification) error {
	return nil
}
