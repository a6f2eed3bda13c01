package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cancha-app/cancha/internal/booking"
)

const notifyTimeout = 5 * time.Second

func newSendContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so handler-scoped contexts don't abort async sends.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}

// SendBookingConfirmation delivers a confirmation message to the reservation's
// customer asynchronously. A nil client or missing recipient is a no-op.
func SendBookingConfirmation(ctx context.Context, client EmailSender, r booking.Reservation, message Message, logger *zerolog.Logger) {
	notify(ctx, client, r, message, "", logger, "confirmation")
}

// SendBookingCancellation delivers a cancellation message asynchronously,
// optionally from a complex-specific sender address.
func SendBookingCancellation(ctx context.Context, client EmailSender, r booking.Reservation, message Message, sender string, logger *zerolog.Logger) {
	notify(ctx, client, r, message, sender, logger, "cancellation")
}

// SendPendingExpiry tells the customer their unconfirmed hold was released.
func SendPendingExpiry(ctx context.Context, client EmailSender, r booking.Reservation, message Message, logger *zerolog.Logger) {
	notify(ctx, client, r, message, "", logger, "pending expiry")
}

func notify(ctx context.Context, client EmailSender, r booking.Reservation, message Message, sender string, logger *zerolog.Logger, kind string) {
	if client == nil {
		return
	}
	if message.Subject == "" || message.Body == "" {
		return
	}
	recipient := strings.TrimSpace(r.CustomerEmail)
	if recipient == "" {
		return
	}

	go func() {
		sendCtx, cancel := newSendContext(ctx, notifyTimeout)
		defer cancel()
		if sendCtx.Err() != nil {
			return
		}
		var err error
		if sender != "" {
			err = client.SendFrom(sendCtx, recipient, message.Subject, message.Body, sender)
		} else {
			err = client.Send(sendCtx, recipient, message.Subject, message.Body)
		}
		if err != nil && logger != nil {
			logger.Error().
				Err(err).
				Int64("reservation_id", r.ID).
				Str("recipient", recipient).
				Msgf("Failed to send %s email", kind)
		}
	}()
}
