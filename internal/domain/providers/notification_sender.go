package providers

import "context"

// NotificationSender delivers a rendered notification over one outbound
// channel. Delivery failures are recorded, never propagated into booking.
type NotificationSender interface {
	// Send delivers the message and returns the channel's message ID
	Send(ctx context.Context, recipient, subject, body string) (string, error)
}
