package models

import (
	"time"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

type Booking struct {
	ID        int64        `json:"id"`
	TourID    int64        `json:"tour"`
	UserID    int64        `json:"user"`
	Price     float64      `json:"price"`
	Paid      bool         `json:"paid"`
	Tour      *TourSummary `json:"tourInfo,omitempty"`
	User      *PublicUser  `json:"userInfo,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	Version   int          `json:"version"`
}

// TourSummary is the slice of a tour joined onto bookings.
type TourSummary struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	ImageCover string  `json:"imageCover"`
	Price      float64 `json:"price"`
}

func (b *Booking) Validate() error {
	if b.TourID <= 0 {
		return domain.ValidationError{Field: "tour", Msg: "Booking must belong to a Tour!"}
	}
	if b.UserID <= 0 {
		return domain.ValidationError{Field: "user", Msg: "Booking must belong to a User!"}
	}
	if b.Price <= 0 {
		return domain.ValidationError{Field: "price", Msg: "Booking must have a price"}
	}
	return nil
}
