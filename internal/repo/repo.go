package repo

import (
	"context"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/geocoder89/doctorportal/internal/domain/user"
)

type ServicesRepo interface {
	List(ctx context.Context) ([]service.Service, error)
	ReplaceAll(ctx context.Context, services []service.Service) error
}

type BookingsRepo interface {
	// CreateIfAbsent stores b unless a booking with the same key exists. On a
	// duplicate it returns the stored booking and created=false.
	CreateIfAbsent(ctx context.Context, b booking.Booking) (stored booking.Booking, created bool, err error)
	ListByDate(ctx context.Context, date string) ([]booking.Booking, error)
	ListByPatient(ctx context.Context, patient string) ([]booking.Booking, error)
}

type UsersRepo interface {
	List(ctx context.Context) ([]user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error)
	SetRole(ctx context.Context, email, role string) (user.UpdateResult, error)
}

// Store bundles one backend's repos with its lifecycle hooks.
type Store struct {
	Driver   string
	Services ServicesRepo
	Bookings BookingsRepo
	Users    UsersRepo

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
