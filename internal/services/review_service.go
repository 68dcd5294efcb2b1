package services

import (
	"context"
	"fmt"

	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

type ReviewStore interface {
	List(ctx context.Context, q query.Query) ([]models.Review, int, error)
	Get(ctx context.Context, id int64) (models.Review, error)
	Create(ctx context.Context, rv *models.Review) error
	Save(ctx context.Context, rv *models.Review) error
	Delete(ctx context.Context, id int64) error
	RatingSummary(ctx context.Context, tourID int64) (models.RatingSummary, error)
}

type RatingsWriter interface {
	SetRatings(ctx context.Context, id int64, quantity int, average float64) error
}

// ReviewService keeps each tour's rating aggregate in step with its reviews.
type ReviewService struct {
	Reviews ReviewStore
	Tours   RatingsWriter
}

func (s ReviewService) List(ctx context.Context, q query.Query) ([]models.Review, int, error) {
	return s.Reviews.List(ctx, q)
}

func (s ReviewService) Get(ctx context.Context, id int64) (models.Review, error) {
	return s.Reviews.Get(ctx, id)
}

func (s ReviewService) Create(ctx context.Context, rv *models.Review) error {
	rv.Review = plainText(rv.Review)
	if err := rv.Validate(); err != nil {
		return err
	}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return err
	}
	return s.RecalculateRatings(ctx, rv.TourID)
}

// Update changes review text and rating. The tour and author stay fixed.
func (s ReviewService) Update(ctx context.Context, id int64, patch map[string]any) (models.Review, error) {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		return rv, err
	}
	if err := models.ApplyPatch(&rv, patch, "tour", "user", "author"); err != nil {
		return rv, err
	}
	rv.Review = plainText(rv.Review)
	if err := rv.Validate(); err != nil {
		return rv, err
	}
	if err := s.Reviews.Save(ctx, &rv); err != nil {
		return rv, err
	}
	return rv, s.RecalculateRatings(ctx, rv.TourID)
}

func (s ReviewService) Delete(ctx context.Context, id int64) error {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.RecalculateRatings(ctx, rv.TourID)
}

// RecalculateRatings writes the review count and mean rating onto the tour.
// A tour without reviews goes back to the default average.
func (s ReviewService) RecalculateRatings(ctx context.Context, tourID int64) error {
	sum, err := s.Reviews.RatingSummary(ctx, tourID)
	if err != nil {
		return err
	}
	avg := sum.Average
	if sum.Count == 0 {
		avg = models.DefaultRatingsAverage
	}
	if err := s.Tours.SetRatings(ctx, tourID, sum.Count, avg); err != nil {
		return fmt.Errorf("recalculate ratings for tour %d: %w", tourID, err)
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "reviews", "recalculate_ratings",
		fmt.Sprintf("tour_id=%d quantity=%d average=%.1f", tourID, sum.Count, models.RoundRating(avg)))
	return nil
}
