package notifications

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPNotifier struct {
	from   string
	sender sender
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (n *SMTPNotifier) message(in BookingConfirmationInput) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", in.Patient)
	m.SetHeader("Subject", fmt.Sprintf("Your %s appointment on %s", in.Treatment, in.Date))
	m.SetBody("text/plain", fmt.Sprintf(
		"Your appointment for %s is confirmed.\n\nDate: %s\nTime: %s\nReference: %s\n",
		in.Treatment, in.Date, in.Slot, in.BookingID,
	))
	return m
}

// SendBookingConfirmation gives up when ctx ends. The dial itself has no
// context hook so a slow relay keeps its goroutine until it returns.
func (n *SMTPNotifier) SendBookingConfirmation(ctx context.Context, in BookingConfirmationInput) error {
	m := n.message(in)

	done := make(chan error, 1)
	go func() {
		done <- n.sender.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
