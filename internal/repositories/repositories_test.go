package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userCols = []string{"id", "name", "email", "photo", "role", "phone", "password_hash",
	"password_changed_at", "password_reset_token", "password_reset_expires", "active", "created_at", "version"}

func TestUserRepositoryListAppliesActiveFilterAndPaging(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	params, _ := url.ParseQuery("role=guide&sort=name&page=2&limit=1")
	q := query.Build(params)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u WHERE u.active = 1 AND u.role = ?")).
		WithArgs("guide").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.active = 1 AND u.role = ? ORDER BY u.name ASC, u.id ASC LIMIT ? OFFSET ?")).
		WithArgs("guide", 1, 1).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(7), "Lourdes Browning", "loulou@example.com", "user-7.jpg", "guide", nil, "hash",
				nil, nil, nil, true, created, 2))

	users, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, int64(7), users[0].ID)
	assert.Equal(t, "", users[0].Phone)
	assert.Nil(t, users[0].PasswordChangedAt)
	assert.Equal(t, 2, users[0].Version)
}

func TestUserRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email = ? AND u.active = 1 LIMIT 1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.True(t, domain.IsNotFound(err))
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.io' for key 'uq_users_email'"})

	u := &models.User{Name: "A", Email: "a@b.io", Role: "user", Photo: "default.jpg", PasswordHash: "h"}
	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, 409, domain.HTTPStatus(err))
}

func TestUserRepositoryCreateSetsID(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(42, 1))

	u := &models.User{Name: "A", Email: "a@b.io", Role: "user", Photo: "default.jpg", PasswordHash: "h"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(42), u.ID)
	assert.True(t, u.Active)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepositoryUpdatePasswordClearsReset(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}
	changed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("password_reset_token = NULL")).
		WithArgs("newhash", changed, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), 5, "newhash", changed))

	mock.ExpectExec(regexp.QuoteMeta("password_reset_token = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdatePassword(context.Background(), 6, "newhash", changed)
	assert.True(t, domain.IsNotFound(err))
}

func TestUserRepositorySetPasswordResetClears(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_reset_token = ?, password_reset_expires = ?")).
		WithArgs(nil, nil, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetPasswordReset(context.Background(), 9, "", nil))
}

func TestUserRepositoryFindByIDsEmpty(t *testing.T) {
	repo := UserRepository{}
	users, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

var tourCols = []string{"id", "name", "slug", "duration", "max_group_size", "difficulty",
	"ratings_average", "ratings_quantity", "num_people_booked", "price", "price_discount",
	"summary", "description", "image_cover", "images", "start_lat", "start_lng",
	"start_address", "start_description", "locations", "guides", "created_at", "version"}

func sampleTourRow(id int64, name string) []driver.Value {
	return []driver.Value{id, name, "the-forest-hiker", int64(5), int64(25), "easy",
		4.7, int64(37), int64(3), 397.0, nil,
		"Breathtaking hike", "Long text", "tour-1-cover.jpg", []byte(`["tour-1-1.jpg"]`), 51.4, -115.5,
		"Banff, CAN", "Start here", []byte(`[{"type":"Point","coordinates":[-116.2,51.7],"day":1}]`), []byte(`[3,4]`),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), int64(1)}
}

func TestTourRepositoryGetLoadsStartDatesAndJSON(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}
	d1 := time.Date(2025, 4, 25, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(tourCols).AddRow(sampleTourRow(1, "The Forest Hiker")...))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT tour_id, start_date FROM tour_start_dates WHERE tour_id IN (?)")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"tour_id", "start_date"}).AddRow(int64(1), d1).AddRow(int64(1), d2))

	tour, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, []time.Time{d1, d2}, tour.StartDates)
	assert.Equal(t, []string{"tour-1-1.jpg"}, tour.Images)
	assert.Equal(t, []int64{3, 4}, tour.Guides)
	require.NotNil(t, tour.StartLocation)
	assert.Equal(t, -115.5, tour.StartLocation.Lng())
	assert.Equal(t, 51.4, tour.StartLocation.Lat())
	require.Len(t, tour.Locations, 1)
	assert.Equal(t, 1, tour.Locations[0].Day)
	assert.Nil(t, tour.PriceDiscount)
	assert.InDelta(t, 5.0/7.0, tour.DurationWeeks, 1e-9)
}

func TestTourRepositoryFindBySlugNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.slug = ? LIMIT 1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(tourCols))

	_, err := repo.FindBySlug(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, "There is no tour with that name", domain.PublicMessage(err, false))
}

func TestTourRepositoryCreateInsertsStartDatesInTx(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}
	d := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tours").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tour_start_dates (tour_id, start_date) VALUES (?, ?)")).
		WithArgs(int64(11), d).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tour := &models.Tour{Name: "The Sea Explorer", Slug: "the-sea-explorer", Duration: 7, MaxGroupSize: 15,
		Difficulty: "medium", Price: 497, Summary: "s", ImageCover: "c.jpg", StartDates: []time.Time{d, d}}
	require.NoError(t, repo.Create(context.Background(), tour))
	assert.Equal(t, int64(11), tour.ID)
}

func TestTourRepositoryCreateDuplicateNameRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tours").WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Tour{Name: "The Sea Explorer"})
	assert.True(t, domain.IsConflict(err))
}

func TestTourRepositoryStats(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.ratings_average > ?")).
		WithArgs(4.5).
		WillReturnRows(sqlmock.NewRows([]string{"difficulty", "n", "q", "ar", "ap", "min", "max"}).
			AddRow("easy", int64(4), int64(130), 4.72, 1272.0, 397.0, 1997.0).
			AddRow("difficult", int64(2), int64(41), 4.6, 1997.0, 997.0, 2997.0))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "easy", stats[0].Difficulty)
	assert.Equal(t, 130, stats[0].NumRatings)
	assert.Equal(t, 2997.0, stats[1].MaxPrice)
}

func TestTourRepositoryMonthlyPlanRange(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}
	from := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.start_date >= ? AND d.start_date < ?")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"month", "num_tours", "tours"}).
			AddRow(int64(7), int64(3), []byte(`["The Sea Explorer","The Park Camper","The Sports Lover"]`)))

	plan, err := repo.MonthlyPlan(context.Background(), 2021)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, 7, plan[0].Month)
	assert.Equal(t, 3, plan[0].NumTours)
	assert.Len(t, plan[0].Tours, 3)
}

func TestTourRepositoryDistancesBindsLngFirst(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}

	mock.ExpectQuery("ST_Distance_Sphere").
		WithArgs(-118.11, 34.11, earthRadiusMeters, 0.001).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "distance"}).AddRow(int64(2), "The Sea Explorer", 12.5))

	out, err := repo.Distances(context.Background(), 34.11, -118.11, 0.001)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 12.5, out[0].Distance)
}

func TestTourRepositorySetRatingsRounds(t *testing.T) {
	db, mock := newMock(t)
	repo := TourRepository{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tours SET ratings_quantity = ?, ratings_average = ?")).
		WithArgs(3, 4.7, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetRatings(context.Background(), 1, 3, 4.666666))
}

var reviewCols = []string{"id", "review", "rating", "tour_id", "user_id", "created_at", "version", "name", "photo"}

func TestReviewRepositoryListForTourJoinsAuthor(t *testing.T) {
	db, mock := newMock(t)
	repo := ReviewRepository{DB: db}
	at := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = r.user_id WHERE r.tour_id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(int64(1), "Great", int64(5), int64(3), int64(8), at, int64(0), "Jim", "user-8.jpg").
			AddRow(int64(2), "Fine", int64(4), int64(3), int64(9), at, int64(0), nil, nil))

	reviews, err := repo.ListForTour(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	require.NotNil(t, reviews[0].Author)
	assert.Equal(t, "Jim", reviews[0].Author.Name)
	assert.Nil(t, reviews[1].Author)
}

func TestReviewRepositoryDuplicateReview(t *testing.T) {
	db, mock := newMock(t)
	repo := ReviewRepository{DB: db}

	mock.ExpectExec("INSERT INTO reviews").WillReturnError(&mysql.MySQLError{Number: 1062})

	err := repo.Create(context.Background(), &models.Review{Review: "x", Rating: 4, TourID: 1, UserID: 2})
	assert.True(t, domain.IsConflict(err))
}

func TestReviewRepositoryRatingSummaryNoReviews(t *testing.T) {
	db, mock := newMock(t)
	repo := ReviewRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), AVG(rating) FROM reviews WHERE tour_id = ?")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(int64(0), nil))

	s, err := repo.RatingSummary(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0.0, s.Average)
}

var bookingCols = []string{"id", "tour_id", "user_id", "price", "paid", "created_at", "version",
	"t_name", "slug", "image_cover", "t_price", "u_name", "email", "photo", "role"}

func TestBookingRepositoryGetJoinsTourAndUser(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}
	at := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = ? LIMIT 1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(int64(10), int64(1), int64(2), 497.0, true, at, int64(0),
				"The Sea Explorer", "the-sea-explorer", "cover.jpg", 497.0,
				"Ana", "ana@example.com", "user-2.jpg", "user"))

	b, err := repo.Get(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, b.Tour)
	assert.Equal(t, "the-sea-explorer", b.Tour.Slug)
	require.NotNil(t, b.User)
	assert.Equal(t, "ana@example.com", b.User.Email)
	assert.True(t, b.Paid)
}

func TestBookingRepositoryListBoolFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	params, _ := url.ParseQuery("paid=false")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings b WHERE b.paid = ?")).
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.paid = ? ORDER BY b.created_at DESC, b.id ASC LIMIT ? OFFSET ?")).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	out, total, err := repo.List(context.Background(), query.Build(params))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, out)
}

func TestBookingRepositoryDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = ?")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.True(t, domain.IsNotFound(err))
}
