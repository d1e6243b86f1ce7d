package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/doctorportal/internal/domain/booking"
	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/http/handlers"
	"github.com/geocoder89/doctorportal/internal/notifications"
)

const bookingBody = `{"treatment":"Cleaning","date":"2024-01-01","patient":"a@b.com","slot":"9am"}`

type createBookingResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		InsertedID string `json:"insertedId"`
	} `json:"result"`
	Booking *booking.Booking `json:"booking"`
}

func TestCreateBookingHandler(t *testing.T) {
	existing := booking.Booking{
		ID: "first-id", Treatment: "Cleaning", Date: "2024-01-01", Patient: "a@b.com", Slot: "8am",
	}

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeBookingsRepo)
		wantStatusCode int
		wantSuccess    bool
	}{
		{
			name:           "created",
			body:           bookingBody,
			wantStatusCode: http.StatusOK,
			wantSuccess:    true,
		},
		{
			name: "duplicate",
			body: bookingBody,
			repoSetUp: func(f *fakeBookingsRepo) {
				f.createFn = func(ctx context.Context, b booking.Booking) (booking.Booking, bool, error) {
					return existing, false, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantSuccess:    false,
		},
		{
			name:           "validation_error",
			body:           `{"treatment":"Cleaning"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: bookingBody,
			repoSetUp: func(f *fakeBookingsRepo) {
				f.createFn = func(ctx context.Context, b booking.Booking) (booking.Booking, bool, error) {
					return booking.Booking{}, false, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeBookingsRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}
			h := handlers.NewBookingsHandler(repo, nil, nil, nil)
			r := setupRouter(http.MethodPost, "/booking", h.CreateBooking)

			req := httptest.NewRequest(http.MethodPost, "/booking", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d,body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp createBookingResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success != tt.wantSuccess {
				t.Fatalf("success=%v want %v body=%s", resp.Success, tt.wantSuccess, w.Body.String())
			}

			if tt.wantSuccess {
				if resp.Result == nil || resp.Result.InsertedID == "" {
					t.Fatalf("expected insertedId, body=%s", w.Body.String())
				}
			} else {
				if resp.Booking == nil || resp.Booking.ID != existing.ID {
					t.Fatalf("expected the existing booking, body=%s", w.Body.String())
				}
			}
		})
	}
}

func TestCreateBookingHandler_SendsConfirmation(t *testing.T) {
	notifier := &chanNotifier{sent: make(chan notifications.BookingConfirmationInput, 1)}
	patients := &fakeUsersRepo{
		getFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{Email: email}, nil
		},
	}

	h := handlers.NewBookingsHandler(&fakeBookingsRepo{}, patients, notifier, nil)
	r := setupRouter(http.MethodPost, "/booking", h.CreateBooking)

	req := httptest.NewRequest(http.MethodPost, "/booking", bytes.NewBufferString(bookingBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	select {
	case in := <-notifier.sent:
		if in.Patient != "a@b.com" || in.Slot != "9am" || in.BookingID == "" {
			t.Fatalf("unexpected notification %+v", in)
		}
	case <-time.After(time.Second):
		t.Fatalf("no confirmation sent")
	}
}

func TestCreateBookingHandler_NoConfirmationForUnknownPatient(t *testing.T) {
	notifier := &chanNotifier{sent: make(chan notifications.BookingConfirmationInput, 1)}
	looked := make(chan string, 1)
	patients := &fakeUsersRepo{
		getFn: func(ctx context.Context, email string) (user.User, error) {
			looked <- email
			return user.User{}, user.ErrNotFound
		},
	}

	h := handlers.NewBookingsHandler(&fakeBookingsRepo{}, patients, notifier, nil)
	r := setupRouter(http.MethodPost, "/booking", h.CreateBooking)

	body := `{"treatment":"Cleaning","date":"2024-01-01","patient":"victim@elsewhere.test","slot":"9am"}`
	req := httptest.NewRequest(http.MethodPost, "/booking", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("booking itself should still succeed, got status %d", w.Code)
	}

	select {
	case email := <-looked:
		if email != "victim@elsewhere.test" {
			t.Fatalf("looked up %q", email)
		}
	case <-time.After(time.Second):
		t.Fatalf("patient was never looked up")
	}

	select {
	case in := <-notifier.sent:
		t.Fatalf("confirmation sent to unregistered patient: %+v", in)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListBookingsForPatientHandler(t *testing.T) {
	tests := []struct {
		name           string
		caller         string
		url            string
		wantStatusCode int
	}{
		{name: "own_bookings", caller: "a@b.com", url: "/booking?patient=a@b.com", wantStatusCode: http.StatusOK},
		{name: "someone_else", caller: "a@b.com", url: "/booking?patient=c@d.com", wantStatusCode: http.StatusForbidden},
		{name: "missing_patient", caller: "a@b.com", url: "/booking", wantStatusCode: http.StatusForbidden},
		{name: "no_identity", caller: "", url: "/booking?patient=a@b.com", wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeBookingsRepo{
				listFn: func(ctx context.Context, patient string) ([]booking.Booking, error) {
					return []booking.Booking{{ID: "b1", Patient: patient}}, nil
				},
			}
			h := handlers.NewBookingsHandler(repo, nil, nil, nil)
			r := setupRouter(http.MethodGet, "/booking", asEmail(tt.caller), h.ListForPatient)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d,body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
