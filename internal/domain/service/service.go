package service

import "errors"

// Service is one bookable treatment in the clinic catalog.
type Service struct {
	Name  string   `json:"name" bson:"name" binding:"required"`
	Slots []string `json:"slots" bson:"slots"`
}

var ErrNotFound = errors.New("service not found")

// Clone returns a copy whose slot slice does not alias the receiver's.
func (s Service) Clone() Service {
	slots := make([]string, len(s.Slots))
	copy(slots, s.Slots)

	return Service{Name: s.Name, Slots: slots}
}
