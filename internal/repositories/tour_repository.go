package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	intdb "github.com/KarinaChumak/tour-booking-system/internal/db"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

// earthRadiusMeters is passed to ST_Distance_Sphere so radius math in the
// service and the database agree.
const earthRadiusMeters = 6378100

type TourRepository struct {
	DB *sql.DB
}

var tourColumns = columns{
	"id":              {Name: "t.id"},
	"name":            {Name: "t.name"},
	"slug":            {Name: "t.slug"},
	"duration":        {Name: "t.duration"},
	"maxGroupSize":    {Name: "t.max_group_size"},
	"difficulty":      {Name: "t.difficulty"},
	"ratingsAverage":  {Name: "t.ratings_average"},
	"ratingsQuantity": {Name: "t.ratings_quantity"},
	"numPeopleBooked": {Name: "t.num_people_booked"},
	"price":           {Name: "t.price"},
	"priceDiscount":   {Name: "t.price_discount"},
	"summary":         {Name: "t.summary"},
	"imageCover":      {Name: "t.image_cover"},
	"createdAt":       {Name: "t.created_at"},
}

const tourSelect = `SELECT t.id, t.name, t.slug, t.duration, t.max_group_size, t.difficulty,
       t.ratings_average, t.ratings_quantity, t.num_people_booked, t.price, t.price_discount,
       t.summary, t.description, t.image_cover, t.images, t.start_lat, t.start_lng,
       t.start_address, t.start_description, t.locations, t.guides, t.created_at, t.version
FROM tours t`

func scanTour(row intdb.RowScanner) (models.Tour, error) {
	var (
		t                 models.Tour
		discount          sql.NullFloat64
		description       sql.NullString
		images, locations []byte
		guides            []byte
		lat, lng          sql.NullFloat64
		address, startDsc sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.NumPeopleBooked, &t.Price, &discount,
		&t.Summary, &description, &t.ImageCover, &images, &lat, &lng,
		&address, &startDsc, &locations, &guides, &t.CreatedAt, &t.Version)
	if err != nil {
		return t, err
	}
	if discount.Valid {
		d := discount.Float64
		t.PriceDiscount = &d
	}
	t.Description = description.String
	if lat.Valid && lng.Valid {
		t.StartLocation = &models.Location{
			Type:        "Point",
			Coordinates: []float64{lng.Float64, lat.Float64},
			Address:     address.String,
			Description: startDsc.String,
		}
	}
	if err := decodeJSONColumn(images, &t.Images); err != nil {
		return t, fmt.Errorf("tour %d images: %w", t.ID, err)
	}
	if err := decodeJSONColumn(locations, &t.Locations); err != nil {
		return t, fmt.Errorf("tour %d locations: %w", t.ID, err)
	}
	if err := decodeJSONColumn(guides, &t.Guides); err != nil {
		return t, fmt.Errorf("tour %d guides: %w", t.ID, err)
	}
	t.Normalize()
	return t, nil
}

func decodeJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeJSONColumn(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (r TourRepository) List(ctx context.Context, q query.Query) ([]models.Tour, int, error) {
	where, args := whereClause(q.Conditions, tourColumns)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours t"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tours: %w", err)
	}

	limit, limitArgs := limitClause(q)
	tours, err := r.queryTours(ctx, tourSelect+where+orderClause(q.Sort, tourColumns, "t.id")+limit, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func (r TourRepository) queryTours(ctx context.Context, stmt string, args ...any) ([]models.Tour, error) {
	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tours: %w", err)
	}
	defer rows.Close()

	out := []models.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tours: %w", err)
	}
	if err := r.loadStartDates(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadStartDates fills StartDates for every tour with a single query.
func (r TourRepository) loadStartDates(ctx context.Context, tours []models.Tour) error {
	if len(tours) == 0 {
		return nil
	}
	index := make(map[int64]int, len(tours))
	args := make([]any, len(tours))
	for i, t := range tours {
		index[t.ID] = i
		args[i] = t.ID
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT tour_id, start_date FROM tour_start_dates WHERE tour_id IN (`+intdb.Placeholders(len(args))+`) ORDER BY start_date`,
		args...)
	if err != nil {
		return fmt.Errorf("query start dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			d  time.Time
		)
		if err := rows.Scan(&id, &d); err != nil {
			return fmt.Errorf("scan start date: %w", err)
		}
		if i, ok := index[id]; ok {
			tours[i].StartDates = append(tours[i].StartDates, d)
		}
	}
	return rows.Err()
}

func (r TourRepository) getOne(ctx context.Context, clause string, arg any) (models.Tour, error) {
	tours, err := r.queryTours(ctx, tourSelect+" WHERE "+clause+" LIMIT 1", arg)
	if err != nil {
		return models.Tour{}, err
	}
	if len(tours) == 0 {
		return models.Tour{}, domain.NotFoundError{Resource: "tour"}
	}
	return tours[0], nil
}

func (r TourRepository) Get(ctx context.Context, id int64) (models.Tour, error) {
	return r.getOne(ctx, "t.id = ?", id)
}

func (r TourRepository) FindBySlug(ctx context.Context, slug string) (models.Tour, error) {
	t, err := r.getOne(ctx, "t.slug = ?", slug)
	if domain.IsNotFound(err) {
		return t, domain.NotFoundError{Resource: "tour", Msg: "There is no tour with that name"}
	}
	return t, err
}

type tourRow struct {
	images, locations, guides []byte
	lat, lng                  any
	address, description      any
	discount                  any
}

func encodeTour(t *models.Tour) (tourRow, error) {
	var (
		row tourRow
		err error
	)
	if row.images, err = encodeJSONColumn(t.Images); err != nil {
		return row, fmt.Errorf("encode images: %w", err)
	}
	if row.locations, err = encodeJSONColumn(t.Locations); err != nil {
		return row, fmt.Errorf("encode locations: %w", err)
	}
	if row.guides, err = encodeJSONColumn(t.Guides); err != nil {
		return row, fmt.Errorf("encode guides: %w", err)
	}
	if sl := t.StartLocation; sl != nil {
		row.lng, row.lat = sl.Lng(), sl.Lat()
		row.address = intdb.NullIfEmpty(sl.Address)
		row.description = intdb.NullIfEmpty(sl.Description)
	}
	if t.PriceDiscount != nil {
		row.discount = *t.PriceDiscount
	}
	return row, nil
}

func (r TourRepository) Create(ctx context.Context, t *models.Tour) error {
	row, err := encodeTour(t)
	if err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	return intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO tours
            (name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity,
             num_people_booked, price, price_discount, summary, description, image_cover, images,
             start_lat, start_lng, start_address, start_description, locations, guides, created_at, version)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty, t.RatingsAverage, t.RatingsQuantity,
			t.NumPeopleBooked, t.Price, row.discount, t.Summary, intdb.NullIfEmpty(t.Description), t.ImageCover, row.images,
			row.lat, row.lng, row.address, row.description, row.locations, row.guides, t.CreatedAt)
		if err != nil {
			if intdb.IsDuplicateKey(err) {
				return nameConflict(err)
			}
			return fmt.Errorf("insert tour: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert tour id: %w", err)
		}
		t.ID = id
		t.Version = 0
		return insertStartDates(ctx, tx, id, t.StartDates)
	})
}

// Save rewrites the tour's mutable columns and replaces its start dates.
func (r TourRepository) Save(ctx context.Context, t *models.Tour) error {
	row, err := encodeTour(t)
	if err != nil {
		return err
	}

	err = intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE tours
            SET name = ?, slug = ?, duration = ?, max_group_size = ?, difficulty = ?,
                ratings_average = ?, ratings_quantity = ?, price = ?, price_discount = ?,
                summary = ?, description = ?, image_cover = ?, images = ?,
                start_lat = ?, start_lng = ?, start_address = ?, start_description = ?,
                locations = ?, guides = ?, version = version + 1
            WHERE id = ?`,
			t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty,
			t.RatingsAverage, t.RatingsQuantity, t.Price, row.discount,
			t.Summary, intdb.NullIfEmpty(t.Description), t.ImageCover, row.images,
			row.lat, row.lng, row.address, row.description,
			row.locations, row.guides, t.ID)
		if err != nil {
			if intdb.IsDuplicateKey(err) {
				return nameConflict(err)
			}
			return fmt.Errorf("update tour: %w", err)
		}
		if err := expectOneRow(res, "tour"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tour_start_dates WHERE tour_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear start dates: %w", err)
		}
		return insertStartDates(ctx, tx, t.ID, t.StartDates)
	})
	if err != nil {
		return err
	}
	t.Version++
	return nil
}

func insertStartDates(ctx context.Context, tx intdb.DBTX, tourID int64, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	seen := make(map[time.Time]bool, len(dates))
	values := ""
	args := make([]any, 0, len(dates)*2)
	for _, d := range dates {
		d = d.UTC()
		if seen[d] {
			continue
		}
		seen[d] = true
		if values != "" {
			values += ", "
		}
		values += "(?, ?)"
		args = append(args, tourID, d)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tour_start_dates (tour_id, start_date) VALUES `+values, args...); err != nil {
		return fmt.Errorf("insert start dates: %w", err)
	}
	return nil
}

func (r TourRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tours WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}
	return expectOneRow(res, "tour")
}

// SetRatings stores the aggregate computed from the tour's reviews.
func (r TourRepository) SetRatings(ctx context.Context, id int64, quantity int, average float64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE tours SET ratings_quantity = ?, ratings_average = ?, version = version + 1 WHERE id = ?`,
		quantity, models.RoundRating(average), id)
	if err != nil {
		return fmt.Errorf("set tour ratings: %w", err)
	}
	return nil
}

func (r TourRepository) IncrementBooked(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tours SET num_people_booked = num_people_booked + 1, version = version + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment booked: %w", err)
	}
	return expectOneRow(res, "tour")
}

// Stats aggregates highly rated tours per difficulty, cheapest first.
func (r TourRepository) Stats(ctx context.Context) ([]models.TourStat, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT t.difficulty, COUNT(*), COALESCE(SUM(t.ratings_quantity), 0),
            AVG(t.ratings_average), AVG(t.price), MIN(t.price), MAX(t.price)
        FROM tours t
        WHERE t.ratings_average > ?
        GROUP BY t.difficulty
        ORDER BY AVG(t.price) ASC`, models.DefaultRatingsAverage)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	defer rows.Close()

	out := []models.TourStat{}
	for rows.Next() {
		var s models.TourStat
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, fmt.Errorf("scan tour stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (r TourRepository) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlanEntry, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := r.DB.QueryContext(ctx, `SELECT MONTH(d.start_date) AS month, COUNT(*) AS num_tours, JSON_ARRAYAGG(t.name)
        FROM tour_start_dates d
        JOIN tours t ON t.id = d.tour_id
        WHERE d.start_date >= ? AND d.start_date < ?
        GROUP BY MONTH(d.start_date)
        ORDER BY num_tours DESC, month ASC
        LIMIT 12`, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}
	defer rows.Close()

	out := []models.MonthlyPlanEntry{}
	for rows.Next() {
		var (
			e     models.MonthlyPlanEntry
			names []byte
		)
		if err := rows.Scan(&e.Month, &e.NumTours, &names); err != nil {
			return nil, fmt.Errorf("scan monthly plan: %w", err)
		}
		e.Tours = []string{}
		if err := decodeJSONColumn(names, &e.Tours); err != nil {
			return nil, fmt.Errorf("decode monthly plan tours: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Within returns tours whose start location lies within radiusMeters of (lat, lng).
func (r TourRepository) Within(ctx context.Context, lat, lng, radiusMeters float64) ([]models.Tour, error) {
	return r.queryTours(ctx, tourSelect+`
        WHERE t.start_lat IS NOT NULL AND t.start_lng IS NOT NULL
          AND ST_Distance_Sphere(POINT(t.start_lng, t.start_lat), POINT(?, ?), ?) <= ?
        ORDER BY t.id ASC`, lng, lat, earthRadiusMeters, radiusMeters)
}

// Distances returns every tour with a start location and its distance from
// (lat, lng) in meters times multiplier, nearest first.
func (r TourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT t.id, t.name,
            ST_Distance_Sphere(POINT(t.start_lng, t.start_lat), POINT(?, ?), ?) * ? AS distance
        FROM tours t
        WHERE t.start_lat IS NOT NULL AND t.start_lng IS NOT NULL
        ORDER BY distance ASC, t.id ASC`, lng, lat, earthRadiusMeters, multiplier)
	if err != nil {
		return nil, fmt.Errorf("tour distances: %w", err)
	}
	defer rows.Close()

	out := []models.TourDistance{}
	for rows.Next() {
		var d models.TourDistance
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, fmt.Errorf("scan tour distance: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nameConflict(err error) error {
	return domain.ConflictError{Resource: "tour", Msg: "Duplicate field value: name. Please use another value", Err: err}
}
