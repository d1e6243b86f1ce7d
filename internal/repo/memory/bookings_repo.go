package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
)

type BookingsRepo struct {
	mu    sync.RWMutex
	items map[booking.Key]booking.Booking
	order []booking.Key
}

func NewBookingsRepo() *BookingsRepo {
	return &BookingsRepo{
		items: make(map[booking.Key]booking.Booking),
	}
}

// CreateIfAbsent checks and inserts under one lock, so concurrent creates for
// the same key yield exactly one stored booking.
func (r *BookingsRepo) CreateIfAbsent(ctx context.Context, b booking.Booking) (booking.Booking, bool, error) {
	key := b.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[key]; ok {
		return existing, false, nil
	}

	r.items[key] = b
	r.order = append(r.order, key)

	return b, true, nil
}

func (r *BookingsRepo) ListByDate(ctx context.Context, date string) ([]booking.Booking, error) {
	return r.filter(func(b booking.Booking) bool { return b.Date == date }), nil
}

func (r *BookingsRepo) ListByPatient(ctx context.Context, patient string) ([]booking.Booking, error) {
	return r.filter(func(b booking.Booking) bool { return b.Patient == patient }), nil
}

func (r *BookingsRepo) filter(keep func(booking.Booking) bool) []booking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]booking.Booking, 0)
	for _, k := range r.order {
		if b := r.items[k]; keep(b) {
			out = append(out, b)
		}
	}
	return out
}
