package models

import (
	"math"
	"strings"
	"time"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

const (
	DefaultRatingsAverage = 4.5
	minTourNameLength     = 10
	maxTourNameLength     = 40
)

// Location is a GeoJSON point plus descriptive fields. Coordinates are [lng, lat].
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

func (l Location) Lng() float64 { return l.coord(0) }
func (l Location) Lat() float64 { return l.coord(1) }

func (l Location) coord(i int) float64 {
	if len(l.Coordinates) <= i {
		return 0
	}
	return l.Coordinates[i]
}

func (l Location) valid() bool {
	return len(l.Coordinates) == 2 &&
		l.Lng() >= -180 && l.Lng() <= 180 &&
		l.Lat() >= -90 && l.Lat() <= 90
}

type Tour struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Slug            string       `json:"slug"`
	Duration        int          `json:"duration"`
	DurationWeeks   float64      `json:"durationWeeks"`
	MaxGroupSize    int          `json:"maxGroupSize"`
	Difficulty      string       `json:"difficulty"`
	RatingsAverage  float64      `json:"ratingsAverage"`
	RatingsQuantity int          `json:"ratingsQuantity"`
	NumPeopleBooked int          `json:"numPeopleBooked"`
	Price           float64      `json:"price"`
	PriceDiscount   *float64     `json:"priceDiscount,omitempty"`
	Summary         string       `json:"summary"`
	Description     string       `json:"description,omitempty"`
	ImageCover      string       `json:"imageCover"`
	Images          []string     `json:"images"`
	StartDates      []time.Time  `json:"startDates"`
	StartLocation   *Location    `json:"startLocation,omitempty"`
	Locations       []Location   `json:"locations"`
	Guides          []int64      `json:"guides"`
	GuideProfiles   []PublicUser `json:"guideProfiles,omitempty"`
	Reviews         []Review     `json:"reviews,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	Version         int          `json:"version"`
}

// Normalize applies defaults and derived fields before validation.
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Difficulty = strings.ToLower(strings.TrimSpace(t.Difficulty))
	if t.RatingsAverage == 0 && t.RatingsQuantity == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	t.RatingsAverage = RoundRating(t.RatingsAverage)
	t.DurationWeeks = float64(t.Duration) / 7
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []Location{}
	}
	if t.Guides == nil {
		t.Guides = []int64{}
	}
	if t.StartLocation != nil && t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
}

func (t *Tour) Validate() error {
	switch n := len([]rune(t.Name)); {
	case n == 0:
		return domain.ValidationError{Field: "name", Msg: "A tour must have a name"}
	case n > maxTourNameLength:
		return domain.ValidationError{Field: "name", Msg: "A tour name must have <= 40 characters"}
	case n < minTourNameLength:
		return domain.ValidationError{Field: "name", Msg: "A tour name must have >= 10 characters"}
	}
	if t.Duration <= 0 {
		return domain.ValidationError{Field: "duration", Msg: "A tour must have a duration"}
	}
	if t.MaxGroupSize <= 0 {
		return domain.ValidationError{Field: "maxGroupSize", Msg: "A group must have a group size"}
	}
	if !domain.IsValidDifficulty(t.Difficulty) {
		return domain.ValidationError{Field: "difficulty", Msg: "Difficulty should be easy/medium/difficult"}
	}
	if t.RatingsAverage < 0 || t.RatingsAverage > 5 {
		return domain.ValidationError{Field: "ratingsAverage", Msg: "A rating must be from 0 to 5"}
	}
	if t.Price <= 0 {
		return domain.ValidationError{Field: "price", Msg: "A tour must have a price"}
	}
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		return domain.ValidationError{Field: "priceDiscount", Msg: "Discount price should be below the regular price"}
	}
	if t.Summary == "" {
		return domain.ValidationError{Field: "summary", Msg: "A tour must have a summary"}
	}
	if strings.TrimSpace(t.ImageCover) == "" {
		return domain.ValidationError{Field: "imageCover", Msg: "A tour must have a cover image"}
	}
	if t.StartLocation != nil && !t.StartLocation.valid() {
		return domain.ValidationError{Field: "startLocation", Msg: "Start location needs coordinates [lng, lat]"}
	}
	for _, l := range t.Locations {
		if !l.valid() {
			return domain.ValidationError{Field: "locations", Msg: "Every location needs coordinates [lng, lat]"}
		}
	}
	return nil
}

// RoundRating keeps one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// TourStat is one difficulty bucket of the tour statistics.
type TourStat struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlanEntry counts tour starts within a calendar month.
type MonthlyPlanEntry struct {
	Month    int      `json:"month"`
	NumTours int      `json:"numTours"`
	Tours    []string `json:"tours"`
}

// TourDistance is a tour and its distance from a reference point.
type TourDistance struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
