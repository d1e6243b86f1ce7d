package notifications

import "context"

type BookingConfirmationInput struct {
	BookingID string
	Patient   string
	Treatment string
	Date      string
	Slot      string
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, input BookingConfirmationInput) error
}
