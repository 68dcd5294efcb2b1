package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

type fakeReviewStore struct {
	reviews map[int64]models.Review
	nextID  int64
}

func newFakeReviewStore(reviews ...models.Review) *fakeReviewStore {
	s := &fakeReviewStore{reviews: map[int64]models.Review{}}
	for _, r := range reviews {
		s.reviews[r.ID] = r
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	return s
}

func (s *fakeReviewStore) List(context.Context, query.Query) ([]models.Review, int, error) {
	out := []models.Review{}
	for _, r := range s.reviews {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (s *fakeReviewStore) Get(_ context.Context, id int64) (models.Review, error) {
	r, ok := s.reviews[id]
	if !ok {
		return r, domain.NotFoundError{Resource: "review"}
	}
	return r, nil
}

func (s *fakeReviewStore) Create(_ context.Context, rv *models.Review) error {
	for _, r := range s.reviews {
		if r.TourID == rv.TourID && r.UserID == rv.UserID {
			return domain.ConflictError{Resource: "review", Msg: "You have already reviewed this tour"}
		}
	}
	s.nextID++
	rv.ID = s.nextID
	s.reviews[rv.ID] = *rv
	return nil
}

func (s *fakeReviewStore) Save(_ context.Context, rv *models.Review) error {
	s.reviews[rv.ID] = *rv
	return nil
}

func (s *fakeReviewStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.reviews[id]; !ok {
		return domain.NotFoundError{Resource: "review"}
	}
	delete(s.reviews, id)
	return nil
}

func (s *fakeReviewStore) RatingSummary(_ context.Context, tourID int64) (models.RatingSummary, error) {
	var sum models.RatingSummary
	total := 0
	for _, r := range s.reviews {
		if r.TourID == tourID {
			sum.Count++
			total += r.Rating
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

type ratingsCall struct {
	tourID   int64
	quantity int
	average  float64
}

type fakeRatings struct{ calls []ratingsCall }

func (f *fakeRatings) SetRatings(_ context.Context, id int64, quantity int, average float64) error {
	f.calls = append(f.calls, ratingsCall{id, quantity, average})
	return nil
}

func TestReviewServiceLifecycleRecalculatesRatings(t *testing.T) {
	store := newFakeReviewStore(models.Review{ID: 1, Review: "Good", Rating: 4, TourID: 3, UserID: 8})
	ratings := &fakeRatings{}
	svc := ReviewService{Reviews: store, Tours: ratings}
	ctx := context.Background()

	rv := models.Review{Review: "<p>Amazing!</p>", Rating: 5, TourID: 3, UserID: 9}
	require.NoError(t, svc.Create(ctx, &rv))
	assert.Equal(t, "Amazing!", rv.Review)
	assert.Equal(t, ratingsCall{3, 2, 4.5}, ratings.calls[0])

	updated, err := svc.Update(ctx, rv.ID, map[string]any{"rating": 2, "tour": 99, "user": 99})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.TourID)
	assert.Equal(t, int64(9), updated.UserID)
	assert.Equal(t, ratingsCall{3, 2, 3.0}, ratings.calls[1])

	require.NoError(t, svc.Delete(ctx, rv.ID))
	require.NoError(t, svc.Delete(ctx, 1))
	assert.Equal(t, ratingsCall{3, 0, models.DefaultRatingsAverage}, ratings.calls[3])
}

func TestReviewServiceRejectsInvalidRating(t *testing.T) {
	ratings := &fakeRatings{}
	svc := ReviewService{Reviews: newFakeReviewStore(), Tours: ratings}

	err := svc.Create(context.Background(), &models.Review{Review: "x", Rating: 6, TourID: 1, UserID: 1})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Rating cannot be more than 5", err.Error())
	assert.Empty(t, ratings.calls)
}

func TestReviewServiceDuplicate(t *testing.T) {
	store := newFakeReviewStore(models.Review{ID: 1, Review: "Good", Rating: 4, TourID: 3, UserID: 8})
	svc := ReviewService{Reviews: store, Tours: &fakeRatings{}}

	err := svc.Create(context.Background(), &models.Review{Review: "Again", Rating: 5, TourID: 3, UserID: 8})
	assert.True(t, domain.IsConflict(err))
}

func TestReviewServiceDeleteMissing(t *testing.T) {
	svc := ReviewService{Reviews: newFakeReviewStore(), Tours: &fakeRatings{}}
	assert.True(t, domain.IsNotFound(svc.Delete(context.Background(), 42)))
}
