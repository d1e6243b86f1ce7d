package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier records confirmations in the process log. Used when no SMTP
// relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, in BookingConfirmationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.logger.InfoContext(ctx, "notification.booking_confirmation",
		"booking_id", in.BookingID,
		"patient", in.Patient,
		"treatment", in.Treatment,
		"date", in.Date,
		"slot", in.Slot,
	)
	return nil
}
