// Package availability works out which service slots are still open on a date.
package availability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/doctorportal/internal/cache"
	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/geocoder89/doctorportal/internal/utils"
)

type ServiceLister interface {
	List(ctx context.Context) ([]service.Service, error)
}

type BookingsByDate interface {
	ListByDate(ctx context.Context, date string) ([]booking.Booking, error)
}

// Compute removes, per service, the slots already booked for that service.
// bookings are expected to belong to a single date. Service order and slot
// order are preserved and every returned service is a fresh copy.
func Compute(services []service.Service, bookings []booking.Booking) []service.Service {
	booked := make(map[string]map[string]struct{}, len(services))

	for _, b := range bookings {
		slots, ok := booked[b.Treatment]
		if !ok {
			slots = make(map[string]struct{})
			booked[b.Treatment] = slots
		}
		slots[b.Slot] = struct{}{}
	}

	out := make([]service.Service, 0, len(services))

	for _, s := range services {
		taken := booked[s.Name]
		available := make([]string, 0, len(s.Slots))

		for _, slot := range s.Slots {
			if _, ok := taken[slot]; ok {
				continue
			}
			available = append(available, slot)
		}

		out = append(out, service.Service{Name: s.Name, Slots: available})
	}

	return out
}

type Calculator struct {
	services ServiceLister
	bookings BookingsByDate
	cache    cache.Cache
}

func NewCalculator(services ServiceLister, bookings BookingsByDate, c cache.Cache) *Calculator {
	if c == nil {
		c = cache.Nop{}
	}

	return &Calculator{services: services, bookings: bookings, cache: c}
}

// Services returns the full catalog, served from cache when possible.
func (c *Calculator) Services(ctx context.Context) ([]service.Service, error) {
	key := utils.BuildServicesCacheKey()

	var cached []service.Service
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	services, err := c.services.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]service.Service, 0, len(services))
	for _, s := range services {
		out = append(out, s.Clone())
	}

	c.store(ctx, key, out)

	return out, nil
}

// ForDate is the availability view for one date. Only the catalog comes
// from cache; bookings are read from the store on every call so a slot
// booked a moment ago is never offered again.
func (c *Calculator) ForDate(ctx context.Context, date string) ([]service.Service, error) {
	services, err := c.Services(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := c.bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	return Compute(services, bookings), nil
}

func (c *Calculator) lookup(ctx context.Context, key string, out any) bool {
	ok, err := c.cache.Get(ctx, key, out)
	if err != nil {
		slog.Default().WarnContext(ctx, "cache_get_failed", "key", key, "err", err)
		return false
	}
	return ok
}

func (c *Calculator) store(ctx context.Context, key string, val any) {
	if err := c.cache.Set(ctx, key, val); err != nil {
		slog.Default().WarnContext(ctx, "cache_set_failed", "key", key, "err", err)
	}
}
