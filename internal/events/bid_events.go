package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/rueidis"
	"github.com/shopspring/decimal"
)

// BidEvent is pushed to subscribers watching a task's bid feed. It is a
// UI refresh hint only; readers re-query the store for truth.
type BidEvent struct {
	TaskID    string          `json:"task_id"`
	BidID     string          `json:"bid_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func channelFor(taskID string) string {
	return fmt.Sprintf("task:%s:bids", taskID)
}

// Publisher fans bid insert events out over Redis pub/sub.
type Publisher struct {
	client rueidis.Client
}

func NewPublisher(client rueidis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishBid is fire-and-forget: delivery failures are logged and never
// propagated to the write path that emitted the event.
func (p *Publisher) PublishBid(ctx context.Context, event BidEvent) {
	if p == nil || p.client == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: failed to encode bid event for task %s: %v", event.TaskID, err)
		return
	}

	cmd := p.client.B().Publish().Channel(channelFor(event.TaskID)).Message(string(payload)).Build()
	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		log.Printf("events: failed to publish bid event for task %s: %v", event.TaskID, err)
	}
}

// SubscribeBids blocks delivering bid events for one task until ctx is
// cancelled or the connection drops.
func SubscribeBids(ctx context.Context, client rueidis.Client, taskID string, handle func(BidEvent)) error {
	cmd := client.B().Subscribe().Channel(channelFor(taskID)).Build()
	return client.Receive(ctx, cmd, func(msg rueidis.PubSubMessage) {
		var event BidEvent
		if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
			log.Printf("events: dropping malformed bid event on %s: %v", msg.Channel, err)
			return
		}
		handle(event)
	})
}
