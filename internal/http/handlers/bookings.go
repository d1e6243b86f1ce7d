package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/http/middlewares"
	"github.com/geocoder89/doctorportal/internal/notifications"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/gin-gonic/gin"
)

const notifyTimeout = 10 * time.Second

type BookingStore interface {
	CreateIfAbsent(ctx context.Context, b booking.Booking) (booking.Booking, bool, error)
	ListByPatient(ctx context.Context, patient string) ([]booking.Booking, error)
}

// PatientDirectory tells whether a booking's patient is a registered user.
type PatientDirectory interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type BookingsHandler struct {
	repo     BookingStore
	patients PatientDirectory
	notifier notifications.Notifier
	prom     *observability.Prom
}

// Confirmations only go out when both notifier and patients are set.
// prom may be nil.
func NewBookingsHandler(repo BookingStore, patients PatientDirectory, notifier notifications.Notifier, prom *observability.Prom) *BookingsHandler {
	return &BookingsHandler{repo: repo, patients: patients, notifier: notifier, prom: prom}
}

// CreateBooking inserts unless the patient already holds a booking for the
// same treatment and date. A duplicate is a 200 with success=false and the
// stored booking.
func (h *BookingsHandler) CreateBooking(ctx *gin.Context) {
	var req booking.CreateBookingRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx)
	defer cancel()

	b := booking.NewFromCreateRequest(req)

	stored, created, err := h.repo.CreateIfAbsent(cctx, b)
	if err != nil {
		h.prom.ObserveBooking("error")
		slog.Default().ErrorContext(ctx.Request.Context(), "booking.create_failed",
			"treatment", req.Treatment, "date", req.Date, "err", err)
		RespondInternal(ctx, "Could not create booking")
		return
	}

	if !created {
		h.prom.ObserveBooking("duplicate")
		ctx.JSON(http.StatusOK, gin.H{
			"success": false,
			"booking": stored,
		})
		return
	}

	h.prom.ObserveBooking("created")

	h.notifyAsync(ctx.Request.Context(), stored)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  booking.InsertResult{InsertedID: stored.ID},
	})
}

// notifyAsync detaches from the request so the response does not wait on the
// mail relay. Booking is anonymous, so mail only goes to patients that have
// a user record; anything else would let callers mail arbitrary addresses.
// Failures are only logged.
func (h *BookingsHandler) notifyAsync(parent context.Context, b booking.Booking) {
	if h.notifier == nil || h.patients == nil {
		return
	}

	input := notifications.BookingConfirmationInput{
		BookingID: b.ID,
		Patient:   b.Patient,
		Treatment: b.Treatment,
		Date:      b.Date,
		Slot:      b.Slot,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), notifyTimeout)
		defer cancel()

		if _, err := h.patients.GetByEmail(ctx, b.Patient); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				slog.Default().DebugContext(ctx, "booking.notify_skipped_unknown_patient", "booking_id", b.ID)
				return
			}
			slog.Default().WarnContext(ctx, "booking.notify_lookup_failed", "booking_id", b.ID, "err", err)
			return
		}

		if err := h.notifier.SendBookingConfirmation(ctx, input); err != nil {
			slog.Default().WarnContext(ctx, "booking.notify_failed", "booking_id", b.ID, "err", err)
		}
	}()
}

// ListForPatient only serves the caller's own bookings.
func (h *BookingsHandler) ListForPatient(ctx *gin.Context) {
	patient := ctx.Query("patient")

	email, ok := middlewares.EmailFromContext(ctx)
	if !ok || patient == "" || patient != email {
		RespondForbidden(ctx, "You can only view your own bookings")
		return
	}

	cctx, cancel := storeContext(ctx)
	defer cancel()

	bookings, err := h.repo.ListByPatient(cctx, patient)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "booking.list_failed", "err", err)
		RespondInternal(ctx, "Could not list bookings")
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}
