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

type BookingRepository struct {
	DB *sql.DB
}

var bookingColumns = columns{
	"id":        {Name: "b.id"},
	"tour":      {Name: "b.tour_id"},
	"user":      {Name: "b.user_id"},
	"price":     {Name: "b.price"},
	"paid":      {Name: "b.paid", Bool: true},
	"createdAt": {Name: "b.created_at"},
}

const bookingSelect = `SELECT b.id, b.tour_id, b.user_id, b.price, b.paid, b.created_at, b.version,
       t.name, t.slug, t.image_cover, t.price,
       u.name, u.email, u.photo, u.role
FROM bookings b
LEFT JOIN tours t ON t.id = b.tour_id
LEFT JOIN users u ON u.id = b.user_id`

func scanBooking(row intdb.RowScanner) (models.Booking, error) {
	var (
		b                   models.Booking
		tourName, tourSlug  sql.NullString
		tourCover           sql.NullString
		tourPrice           sql.NullFloat64
		userName, userEmail sql.NullString
		userPhoto, role     sql.NullString
	)
	err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid, &b.CreatedAt, &b.Version,
		&tourName, &tourSlug, &tourCover, &tourPrice,
		&userName, &userEmail, &userPhoto, &role)
	if err != nil {
		return b, err
	}
	if tourName.Valid {
		b.Tour = &models.TourSummary{
			ID:         b.TourID,
			Name:       tourName.String,
			Slug:       tourSlug.String,
			ImageCover: tourCover.String,
			Price:      tourPrice.Float64,
		}
	}
	if userName.Valid {
		u := models.User{ID: b.UserID, Name: userName.String, Email: userEmail.String, Photo: userPhoto.String, Role: role.String}
		pub := u.ToPublic()
		b.User = &pub
	}
	return b, nil
}

func (r BookingRepository) queryBookings(ctx context.Context, stmt string, args ...any) ([]models.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return out, nil
}

func (r BookingRepository) List(ctx context.Context, q query.Query) ([]models.Booking, int, error) {
	where, args := whereClause(q.Conditions, bookingColumns)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings b"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	limit, limitArgs := limitClause(q)
	out, err := r.queryBookings(ctx, bookingSelect+where+orderClause(q.Sort, bookingColumns, "b.id")+limit, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListForUser returns the user's bookings with the booked tour joined, newest first.
func (r BookingRepository) ListForUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+" WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id ASC", userID)
}

func (r BookingRepository) Get(ctx context.Context, id int64) (models.Booking, error) {
	out, err := r.queryBookings(ctx, bookingSelect+" WHERE b.id = ? LIMIT 1", id)
	if err != nil {
		return models.Booking{}, err
	}
	if len(out) == 0 {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return out[0], nil
}

func (r BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings (tour_id, user_id, price, paid, created_at, version) VALUES (?, ?, ?, ?, ?, 0)`,
		b.TourID, b.UserID, b.Price, b.Paid, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert booking id: %w", err)
	}
	b.ID = id
	b.Version = 0
	return nil
}

func (r BookingRepository) Save(ctx context.Context, b *models.Booking) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET tour_id = ?, user_id = ?, price = ?, paid = ?, version = version + 1 WHERE id = ?`,
		b.TourID, b.UserID, b.Price, b.Paid, b.ID)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if err := expectOneRow(res, "booking"); err != nil {
		return err
	}
	b.Version++
	return nil
}

func (r BookingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return expectOneRow(res, "booking")
}
