package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

const TypeSendNotification = "notification:send"

type deliveryPayload struct {
	NotificationType string            `json:"notification_type"`
	RecipientID      string            `json:"recipient_id"`
	Fields           map[string]string `json:"fields,omitempty"`
}

// AsynqNotifier queues notifications for out-of-band delivery instead of
// calling the delivery provider inline.
type AsynqNotifier struct {
	client *asynq.Client
	queue  string
}

func NewAsynqNotifier(redisOpt asynq.RedisClientOpt, queue string) *AsynqNotifier {
	if queue == "" {
		queue = "default"
	}
	return &AsynqNotifier{
		client: asynq.NewClient(redisOpt),
		queue:  queue,
	}
}

func (n *AsynqNotifier) Send(ctx context.Context, notificationType, recipientID string, fields map[string]string) error {
	payload, err := json.Marshal(deliveryPayload{
		NotificationType: notificationType,
		RecipientID:      recipientID,
		Fields:           fields,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeSendNotification, payload)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(n.queue)); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (n *AsynqNotifier) Close() error {
	return n.client.Close()
}

// Sender performs the actual delivery (email, push) for a dequeued
// notification.
type Sender interface {
	Deliver(ctx context.Context, notificationType, recipientID string, fields map[string]string) error
}

// NewDeliveryMux wires the send handler into an asynq worker mux.
func NewDeliveryMux(sender Sender) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSendNotification, func(ctx context.Context, t *asynq.Task) error {
		var p deliveryPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Printf("notify: dropping malformed delivery payload: %v", err)
			return nil
		}
		return sender.Deliver(ctx, p.NotificationType, p.RecipientID, p.Fields)
	})
	return mux
}

// NewDeliveryServer builds the worker that drains the notification queue.
func NewDeliveryServer(redisOpt asynq.RedisClientOpt, queue string, concurrency int) *asynq.Server {
	if queue == "" {
		queue = "default"
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})
}
