package availability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/doctorportal/internal/availability"
	"github.com/geocoder89/doctorportal/internal/cache"
	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []service.Service {
	return []service.Service{
		{Name: "Cleaning", Slots: []string{"8am", "9am", "10am"}},
		{Name: "Cavity Protection", Slots: []string{"9am", "11am"}},
		{Name: "Empty", Slots: nil},
	}
}

func TestCompute_NoBookingsReturnsEverything(t *testing.T) {
	got := availability.Compute(catalog(), nil)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"8am", "9am", "10am"}, got[0].Slots)
	assert.Equal(t, []string{"9am", "11am"}, got[1].Slots)
	assert.NotNil(t, got[2].Slots)
	assert.Empty(t, got[2].Slots)
}

func TestCompute_RemovesBookedSlotsPerService(t *testing.T) {
	bookings := []booking.Booking{
		{Treatment: "Cleaning", Date: "2024-01-01", Patient: "a@b.com", Slot: "9am"},
		{Treatment: "Cleaning", Date: "2024-01-01", Patient: "c@d.com", Slot: "8am"},
		{Treatment: "Cavity Protection", Date: "2024-01-01", Patient: "a@b.com", Slot: "11am"},
		{Treatment: "Unknown", Date: "2024-01-01", Patient: "a@b.com", Slot: "10am"},
	}

	got := availability.Compute(catalog(), bookings)

	assert.Equal(t, "Cleaning", got[0].Name)
	assert.Equal(t, []string{"10am"}, got[0].Slots)
	assert.Equal(t, "Cavity Protection", got[1].Name)
	assert.Equal(t, []string{"9am"}, got[1].Slots)
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	in := catalog()
	bookings := []booking.Booking{{Treatment: "Cleaning", Slot: "9am"}}

	_ = availability.Compute(in, bookings)

	assert.Equal(t, []string{"8am", "9am", "10am"}, in[0].Slots)
}

func TestCompute_BookedSlotNeverReturned(t *testing.T) {
	services := catalog()

	for _, s := range services {
		for _, slot := range s.Slots {
			bookings := []booking.Booking{{Treatment: s.Name, Date: "d", Slot: slot}}
			got := availability.Compute(services, bookings)

			for _, out := range got {
				if out.Name == s.Name {
					assert.NotContains(t, out.Slots, slot)
				}
			}
		}
	}
}

type fakeServices struct {
	calls int
	items []service.Service
	err   error
}

func (f *fakeServices) List(ctx context.Context) ([]service.Service, error) {
	f.calls++
	return f.items, f.err
}

type fakeBookings struct {
	mu     sync.Mutex
	calls  int
	byDate map[string][]booking.Booking
	err    error

	// when set, ListByDate snapshots its result and then waits here
	hold chan struct{}
	held chan struct{}
}

func (f *fakeBookings) ListByDate(ctx context.Context, date string) ([]booking.Booking, error) {
	f.mu.Lock()
	f.calls++
	snapshot := append([]booking.Booking(nil), f.byDate[date]...)
	hold := f.hold
	f.hold = nil
	f.mu.Unlock()

	if hold != nil {
		close(f.held)
		<-hold
	}
	return snapshot, f.err
}

func (f *fakeBookings) add(b booking.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDate[b.Date] = append(f.byDate[b.Date], b)
}

func TestCalculator_CachesCatalogButNotBookings(t *testing.T) {
	ctx := context.Background()
	svc := &fakeServices{items: catalog()}
	bk := &fakeBookings{byDate: map[string][]booking.Booking{
		"2024-01-01": {{Treatment: "Cleaning", Date: "2024-01-01", Slot: "9am"}},
	}}

	calc := availability.NewCalculator(svc, bk, cache.New(time.Minute))

	first, err := calc.ForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"8am", "10am"}, first[0].Slots)

	bk.add(booking.Booking{Treatment: "Cleaning", Date: "2024-01-01", Slot: "8am"})

	second, err := calc.ForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"10am"}, second[0].Slots)
	assert.Equal(t, 2, bk.calls, "bookings are read on every call")
	assert.Equal(t, 1, svc.calls, "catalog stays cached")
}

func TestCalculator_BookingDuringInFlightReadIsNeverHidden(t *testing.T) {
	ctx := context.Background()
	svc := &fakeServices{items: catalog()}
	bk := &fakeBookings{
		byDate: map[string][]booking.Booking{},
		hold:   make(chan struct{}),
		held:   make(chan struct{}),
	}
	release := bk.hold

	calc := availability.NewCalculator(svc, bk, cache.New(time.Minute))

	type result struct {
		services []service.Service
		err      error
	}
	slow := make(chan result, 1)
	go func() {
		out, err := calc.ForDate(ctx, "2024-01-01")
		slow <- result{out, err}
	}()

	// the slow reader has its snapshot; a booking for 9am lands now
	<-bk.held
	bk.add(booking.Booking{Treatment: "Cleaning", Date: "2024-01-01", Patient: "a@b.com", Slot: "9am"})
	close(release)

	stale := <-slow
	require.NoError(t, stale.err)
	assert.Contains(t, stale.services[0].Slots, "9am", "the in-flight read predates the booking")

	fresh, err := calc.ForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"8am", "10am"}, fresh[0].Slots)
	assert.NotContains(t, fresh[0].Slots, "9am")
}

func TestCalculator_PropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()

	calc := availability.NewCalculator(&fakeServices{err: errors.New("db down")}, &fakeBookings{}, nil)
	_, err := calc.ForDate(ctx, "2024-01-01")
	assert.Error(t, err)

	calc = availability.NewCalculator(&fakeServices{items: catalog()}, &fakeBookings{err: errors.New("db down")}, nil)
	_, err = calc.ForDate(ctx, "2024-01-01")
	assert.Error(t, err)
}
