package notify

import "context"

// Notifier hands a notification to the external delivery service.
// Delivery is fire-and-forget: callers log and swallow errors, a failed
// notification never rolls back the state transition that triggered it.
type Notifier interface {
	Send(ctx context.Context, notificationType, recipientID string, fields map[string]string) error
}
