package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intdb "github.com/KarinaChumak/tour-booking-system/internal/db"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

type ReviewRepository struct {
	DB *sql.DB
}

var reviewColumns = columns{
	"id":        {Name: "r.id"},
	"review":    {Name: "r.review"},
	"rating":    {Name: "r.rating"},
	"tour":      {Name: "r.tour_id"},
	"user":      {Name: "r.user_id"},
	"createdAt": {Name: "r.created_at"},
}

const reviewSelect = `SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, r.version,
       u.name, u.photo
FROM reviews r
LEFT JOIN users u ON u.id = r.user_id`

func scanReview(row intdb.RowScanner) (models.Review, error) {
	var (
		rv          models.Review
		name, photo sql.NullString
	)
	err := row.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.CreatedAt, &rv.Version, &name, &photo)
	if err != nil {
		return rv, err
	}
	if name.Valid {
		rv.Author = &models.ReviewAuthor{Name: name.String, Photo: photo.String}
	}
	return rv, nil
}

func (r ReviewRepository) queryReviews(ctx context.Context, stmt string, args ...any) ([]models.Review, error) {
	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

func (r ReviewRepository) List(ctx context.Context, q query.Query) ([]models.Review, int, error) {
	where, args := whereClause(q.Conditions, reviewColumns)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews r"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	limit, limitArgs := limitClause(q)
	out, err := r.queryReviews(ctx, reviewSelect+where+orderClause(q.Sort, reviewColumns, "r.id")+limit, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListForTour returns a tour's reviews, newest first.
func (r ReviewRepository) ListForTour(ctx context.Context, tourID int64) ([]models.Review, error) {
	return r.queryReviews(ctx, reviewSelect+" WHERE r.tour_id = ? ORDER BY r.created_at DESC, r.id ASC", tourID)
}

func (r ReviewRepository) Get(ctx context.Context, id int64) (models.Review, error) {
	out, err := r.queryReviews(ctx, reviewSelect+" WHERE r.id = ? LIMIT 1", id)
	if err != nil {
		return models.Review{}, err
	}
	if len(out) == 0 {
		return models.Review{}, domain.NotFoundError{Resource: "review"}
	}
	return out[0], nil
}

func (r ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reviews (review, rating, tour_id, user_id, created_at, version) VALUES (?, ?, ?, ?, ?, 0)`,
		rv.Review, rv.Rating, rv.TourID, rv.UserID, rv.CreatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "review", Msg: "You have already reviewed this tour", Err: err}
		}
		return fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert review id: %w", err)
	}
	rv.ID = id
	rv.Version = 0
	return nil
}

// Save writes the review text and rating. Tour and author are fixed at creation.
func (r ReviewRepository) Save(ctx context.Context, rv *models.Review) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE reviews SET review = ?, rating = ?, version = version + 1 WHERE id = ?`,
		rv.Review, rv.Rating, rv.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if err := expectOneRow(res, "review"); err != nil {
		return err
	}
	rv.Version++
	return nil
}

func (r ReviewRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return expectOneRow(res, "review")
}

func (r ReviewRepository) RatingSummary(ctx context.Context, tourID int64) (models.RatingSummary, error) {
	var (
		s   models.RatingSummary
		avg sql.NullFloat64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(rating) FROM reviews WHERE tour_id = ?`, tourID).Scan(&s.Count, &avg)
	if err != nil {
		return s, fmt.Errorf("rating summary: %w", err)
	}
	s.Average = avg.Float64
	return s, nil
}
