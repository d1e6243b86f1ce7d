package handlers_test

import (
	"context"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/http/middlewares"
	"github.com/geocoder89/doctorportal/internal/notifications"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBookingsRepo struct {
	createFn func(ctx context.Context, b booking.Booking) (booking.Booking, bool, error)
	listFn   func(ctx context.Context, patient string) ([]booking.Booking, error)
}

func (f *fakeBookingsRepo) CreateIfAbsent(ctx context.Context, b booking.Booking) (booking.Booking, bool, error) {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return b, true, nil
}

func (f *fakeBookingsRepo) ListByPatient(ctx context.Context, patient string) ([]booking.Booking, error) {
	if f.listFn != nil {
		return f.listFn(ctx, patient)
	}
	return []booking.Booking{}, nil
}

type fakeUsersRepo struct {
	listFn   func(ctx context.Context) ([]user.User, error)
	getFn    func(ctx context.Context, email string) (user.User, error)
	upsertFn func(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error)
	roleFn   func(ctx context.Context, email, role string) (user.UpdateResult, error)
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []user.User{}, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, email, profile)
	}
	return user.UpdateResult{UpsertedCount: 1, UpsertedID: email}, nil
}

func (f *fakeUsersRepo) SetRole(ctx context.Context, email, role string) (user.UpdateResult, error) {
	if f.roleFn != nil {
		return f.roleFn(ctx, email, role)
	}
	return user.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

type fakeAvailability struct {
	servicesFn func(ctx context.Context) ([]service.Service, error)
	forDateFn  func(ctx context.Context, date string) ([]service.Service, error)
}

func (f *fakeAvailability) Services(ctx context.Context) ([]service.Service, error) {
	if f.servicesFn != nil {
		return f.servicesFn(ctx)
	}
	return []service.Service{}, nil
}

func (f *fakeAvailability) ForDate(ctx context.Context, date string) ([]service.Service, error) {
	if f.forDateFn != nil {
		return f.forDateFn(ctx, date)
	}
	return []service.Service{}, nil
}

type fakeTokens struct {
	n int
}

func (f *fakeTokens) GenerateAccessToken(email string) (string, error) {
	f.n++
	return "token-" + email, nil
}

type chanNotifier struct {
	sent chan notifications.BookingConfirmationInput
}

func (c *chanNotifier) SendBookingConfirmation(ctx context.Context, in notifications.BookingConfirmationInput) error {
	c.sent <- in
	return nil
}

// asEmail fakes a successful RequireAuth/OptionalAuth for the given email.
func asEmail(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email != "" {
			c.Set(middlewares.CtxEmail, email)
		}
		c.Next()
	}
}

// small helper function which returns the gin engine to mount one handler per test
func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h...)

	return r
}
