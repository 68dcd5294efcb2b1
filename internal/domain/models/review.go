package models

import (
	"strings"
	"time"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

type Review struct {
	ID        int64         `json:"id"`
	Review    string        `json:"review"`
	Rating    int           `json:"rating"`
	TourID    int64         `json:"tour"`
	UserID    int64         `json:"user"`
	Author    *ReviewAuthor `json:"author,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Version   int           `json:"version"`
}

// ReviewAuthor is the part of the user shown next to a review.
type ReviewAuthor struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

func (r *Review) Validate() error {
	if strings.TrimSpace(r.Review) == "" {
		return domain.ValidationError{Field: "review", Msg: "A review must have a review text"}
	}
	if r.Rating < 1 {
		return domain.ValidationError{Field: "rating", Msg: "Rating cannot be less than 1"}
	}
	if r.Rating > 5 {
		return domain.ValidationError{Field: "rating", Msg: "Rating cannot be more than 5"}
	}
	if r.TourID <= 0 {
		return domain.ValidationError{Field: "tour", Msg: "A review must have a tour"}
	}
	if r.UserID <= 0 {
		return domain.ValidationError{Field: "user", Msg: "A review must have a user"}
	}
	return nil
}

// RatingSummary aggregates the reviews of one tour.
type RatingSummary struct {
	Count   int
	Average float64
}
