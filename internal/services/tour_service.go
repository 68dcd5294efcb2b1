package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
	earthRadiusM     = 6378100

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

// TopToursParams are forced onto the list query by the top-5 alias route.
var TopToursParams = map[string]string{
	"limit":  "5",
	"sort":   "-ratingsAverage,price",
	"fields": "name,price,ratingsAverage,summary,difficulty",
}

type TourStore interface {
	List(ctx context.Context, q query.Query) ([]models.Tour, int, error)
	Get(ctx context.Context, id int64) (models.Tour, error)
	FindBySlug(ctx context.Context, slug string) (models.Tour, error)
	Create(ctx context.Context, t *models.Tour) error
	Save(ctx context.Context, t *models.Tour) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]models.TourStat, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlanEntry, error)
	Within(ctx context.Context, lat, lng, radiusMeters float64) ([]models.Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error)
}

type TourReviewLister interface {
	ListForTour(ctx context.Context, tourID int64) ([]models.Review, error)
}

type GuideLoader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

type TourService struct {
	Tours   TourStore
	Reviews TourReviewLister
	Guides  GuideLoader
}

func (s TourService) List(ctx context.Context, q query.Query) ([]models.Tour, int, error) {
	return s.Tours.List(ctx, q)
}

func (s TourService) Get(ctx context.Context, id int64) (models.Tour, error) {
	return s.Tours.Get(ctx, id)
}

// GetWithReviews loads a tour with its reviews and guide profiles.
func (s TourService) GetWithReviews(ctx context.Context, id int64) (models.Tour, error) {
	tour, err := s.Tours.Get(ctx, id)
	if err != nil {
		return tour, err
	}
	return s.populate(ctx, tour)
}

func (s TourService) GetBySlug(ctx context.Context, slug string) (models.Tour, error) {
	tour, err := s.Tours.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return tour, err
	}
	return s.populate(ctx, tour)
}

func (s TourService) populate(ctx context.Context, tour models.Tour) (models.Tour, error) {
	if s.Reviews != nil {
		reviews, err := s.Reviews.ListForTour(ctx, tour.ID)
		if err != nil {
			return tour, err
		}
		tour.Reviews = reviews
	}
	if s.Guides != nil && len(tour.Guides) > 0 {
		guides, err := s.Guides.FindByIDs(ctx, tour.Guides)
		if err != nil {
			return tour, err
		}
		tour.GuideProfiles = make([]models.PublicUser, 0, len(guides))
		for i := range guides {
			tour.GuideProfiles = append(tour.GuideProfiles, guides[i].ToPublic())
		}
	}
	return tour, nil
}

func (s TourService) Create(ctx context.Context, t *models.Tour) error {
	prepareTour(t)
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.Tours.Create(ctx, t); err != nil {
		return err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "tours", "create", fmt.Sprintf("tour_id=%d slug=%s", t.ID, t.Slug))
	return nil
}

// Update applies a partial update. Derived and aggregate fields in the patch
// are ignored.
func (s TourService) Update(ctx context.Context, id int64, patch map[string]any) (models.Tour, error) {
	tour, err := s.Tours.Get(ctx, id)
	if err != nil {
		return tour, err
	}
	if err := models.ApplyPatch(&tour, patch, "slug", "durationWeeks", "reviews", "guideProfiles"); err != nil {
		return tour, err
	}
	prepareTour(&tour)
	if err := tour.Validate(); err != nil {
		return tour, err
	}
	if err := s.Tours.Save(ctx, &tour); err != nil {
		return tour, err
	}
	return tour, nil
}

func (s TourService) Delete(ctx context.Context, id int64) error {
	return s.Tours.Delete(ctx, id)
}

func (s TourService) Stats(ctx context.Context) ([]models.TourStat, error) {
	return s.Tours.Stats(ctx)
}

func (s TourService) MonthlyPlan(ctx context.Context, year string) ([]models.MonthlyPlanEntry, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 {
		return nil, domain.ValidationError{Field: "year", Msg: fmt.Sprintf("Invalid year: %s", year), Err: err}
	}
	return s.Tours.MonthlyPlan(ctx, y)
}

// Within finds tours starting within distance of center, measured in unit
// ("mi", anything else is kilometres).
func (s TourService) Within(ctx context.Context, distance, center, unit string) ([]models.Tour, error) {
	lat, lng, err := ParseLatLng(center)
	if err != nil {
		return nil, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(distance), 64)
	if err != nil || d < 0 {
		return nil, domain.ValidationError{Field: "distance", Msg: "Please provide a valid distance", Err: err}
	}
	radius := d / earthRadiusKm
	if unit == domain.UnitMiles {
		radius = d / earthRadiusMiles
	}
	return s.Tours.Within(ctx, lat, lng, radius*earthRadiusM)
}

// Distances lists every tour with its distance from center in unit.
func (s TourService) Distances(ctx context.Context, center, unit string) ([]models.TourDistance, error) {
	lat, lng, err := ParseLatLng(center)
	if err != nil {
		return nil, err
	}
	multiplier := metersToKm
	if unit == domain.UnitMiles {
		multiplier = metersToMiles
	}
	return s.Tours.Distances(ctx, lat, lng, multiplier)
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(raw string) (float64, float64, error) {
	bad := domain.ValidationError{Field: "latlng", Msg: "Please provide latitude and longitude in a format lat,lng"}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, bad
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, bad
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, bad
	}
	return lat, lng, nil
}

func prepareTour(t *models.Tour) {
	t.Name = plainText(t.Name)
	t.Summary = plainText(t.Summary)
	t.Description = plainText(t.Description)
	t.Normalize()
	t.Slug = slug.Make(t.Name)
}
