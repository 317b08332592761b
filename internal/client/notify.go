package client

import (
	"context"

	"github.com/pkg/errors"
)

// Notify delivers message to the user through the configured channel.
func (c Client) Notify(ctx context.Context, userID string, message string) error {
	switch c.Notifier {
	case NotifierTelegram, "":
		return c.TelegramSendMessage(ctx, userID, message)
	case NotifierFCM:
		return c.fcmNotifyUser(ctx, userID, message)
	default:
		return errors.Errorf("unknown notifier: %s", c.Notifier)
	}
}
