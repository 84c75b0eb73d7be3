package services

import (
	"context"
	"log"

	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
)

// fireAndForget delivers a notification without letting a delivery failure
// reach the state transition that triggered it.
func fireAndForget(ctx context.Context, notifier notify.Notifier, notificationType, recipientID string, fields map[string]string) {
	if notifier == nil || recipientID == "" {
		return
	}
	if err := notifier.Send(ctx, notificationType, recipientID, fields); err != nil {
		log.Printf("notification %s to %s failed: %v", notificationType, recipientID, err)
	}
}
