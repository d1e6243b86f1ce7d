package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID        string    `json:"id" bson:"_id"`
	Treatment string    `json:"treatment" bson:"treatment"`
	Date      string    `json:"date" bson:"date"`
	Patient   string    `json:"patient" bson:"patient"`
	Slot      string    `json:"slot" bson:"slot"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// returned by stores when the (treatment, date, patient) triple is taken
var ErrAlreadyBooked = errors.New("booking already exists")

type CreateBookingRequest struct {
	Treatment string `json:"treatment" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Patient   string `json:"patient" binding:"required"`
	Slot      string `json:"slot" binding:"required"`
}

// Key identifies a booking for duplicate prevention. Slot is deliberately not part of it.
type Key struct {
	Treatment string
	Date      string
	Patient   string
}

func (b Booking) Key() Key {
	return Key{Treatment: b.Treatment, Date: b.Date, Patient: b.Patient}
}

// InsertResult is what a successful create reports back to the caller.
type InsertResult struct {
	InsertedID string `json:"insertedId"`
}

// A factory to build a Booking from the incoming DTO

func NewFromCreateRequest(req CreateBookingRequest) Booking {
	return Booking{
		ID:        uuid.NewString(),
		Treatment: req.Treatment,
		Date:      req.Date,
		Patient:   req.Patient,
		Slot:      req.Slot,
		CreatedAt: time.Now().UTC(),
	}
}
