package notify

import (
	"context"
	"log"
)

// LogNotifier writes notifications to the process log. Used in development
// and as the delivery sink when no provider is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, notificationType, recipientID string, fields map[string]string) error {
	log.Printf("notify: %s -> %s %v", notificationType, recipientID, fields)
	return nil
}

func (LogNotifier) Deliver(ctx context.Context, notificationType, recipientID string, fields map[string]string) error {
	log.Printf("notify: delivered %s -> %s %v", notificationType, recipientID, fields)
	return nil
}
