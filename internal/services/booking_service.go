package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/payments"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

type BookingStore interface {
	List(ctx context.Context, q query.Query) ([]models.Booking, int, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Booking, error)
	Get(ctx context.Context, id int64) (models.Booking, error)
	Create(ctx context.Context, b *models.Booking) error
	Save(ctx context.Context, b *models.Booking) error
	Delete(ctx context.Context, id int64) error
}

type BookingTours interface {
	List(ctx context.Context, q query.Query) ([]models.Tour, int, error)
	Get(ctx context.Context, id int64) (models.Tour, error)
	IncrementBooked(ctx context.Context, id int64) error
}

type BookingCustomers interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

type TicketRenderer interface {
	BookingTicket(ctx context.Context, b models.Booking) ([]byte, string, error)
}

type BookingService struct {
	Bookings BookingStore
	Tours    BookingTours
	Users    BookingCustomers
	Payments payments.Provider
	Tickets  TicketRenderer
	// ImageBaseURL is where tour images are served from, e.g. the bucket URL.
	ImageBaseURL string
}

func (s BookingService) List(ctx context.Context, q query.Query) ([]models.Booking, int, error) {
	return s.Bookings.List(ctx, q)
}

func (s BookingService) Get(ctx context.Context, id int64) (models.Booking, error) {
	return s.Bookings.Get(ctx, id)
}

// Create records a booking and counts it on the tour.
func (s BookingService) Create(ctx context.Context, b *models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		return err
	}
	if err := s.Tours.IncrementBooked(ctx, b.TourID); err != nil {
		return fmt.Errorf("count booking %d on tour %d: %w", b.ID, b.TourID, err)
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "bookings", "create",
		fmt.Sprintf("booking_id=%d tour_id=%d user_id=%d", b.ID, b.TourID, b.UserID))
	return nil
}

func (s BookingService) Update(ctx context.Context, id int64, patch map[string]any) (models.Booking, error) {
	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		return b, err
	}
	if err := models.ApplyPatch(&b, patch, "tourInfo", "userInfo"); err != nil {
		return b, err
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	if err := s.Bookings.Save(ctx, &b); err != nil {
		return b, err
	}
	return b, nil
}

func (s BookingService) Delete(ctx context.Context, id int64) error {
	return s.Bookings.Delete(ctx, id)
}

// CheckoutSession opens a hosted payment page for one seat on the tour.
// baseURL is the public origin of the site, without a trailing slash.
func (s BookingService) CheckoutSession(ctx context.Context, tourID int64, user *models.User, baseURL string) (payments.CheckoutSession, error) {
	if user == nil {
		return payments.CheckoutSession{}, domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	tour, err := s.Tours.Get(ctx, tourID)
	if err != nil {
		return payments.CheckoutSession{}, err
	}
	baseURL = strings.TrimRight(baseURL, "/")
	imageBase := strings.TrimRight(s.ImageBaseURL, "/")
	if imageBase == "" {
		imageBase = baseURL + "/img"
	}

	session, err := s.Payments.CreateCheckoutSession(ctx, payments.CheckoutItem{
		TourID:        tour.ID,
		Name:          tour.Name,
		Description:   tour.Summary,
		ImageURLs:     []string{imageBase + "/tours/" + tour.ImageCover},
		AmountCents:   utils.ToCents(tour.Price),
		CustomerEmail: user.Email,
		SuccessURL:    baseURL + "/my-tours?alert=booking",
		CancelURL:     baseURL + "/tour/" + tour.Slug,
	})
	if err != nil {
		return payments.CheckoutSession{}, domain.InternalError{Msg: "create checkout session", Err: err}
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "bookings", "checkout_session",
		fmt.Sprintf("session_id=%s tour_id=%d user_id=%d", session.ID, tour.ID, user.ID))
	return session, nil
}

// HandleWebhook verifies a payment provider event and books the tour for a
// completed checkout. Other events are acknowledged and ignored.
func (s BookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	done, err := s.Payments.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidWebhook) {
			return domain.ValidationError{Msg: fmt.Sprintf("Webhook error: %v", err), Err: err}
		}
		return err
	}
	if done == nil {
		return nil
	}

	user, err := s.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(done.CustomerEmail)))
	if err != nil {
		return fmt.Errorf("checkout %s customer: %w", done.SessionID, err)
	}
	tourID, err := strconv.ParseInt(done.TourID, 10, 64)
	if err != nil {
		return domain.ValidationError{Field: "client_reference_id", Msg: "Webhook error: bad tour reference", Err: err}
	}
	b := models.Booking{TourID: tourID, UserID: user.ID, Price: utils.FromCents(done.AmountCents), Paid: true}
	return s.Create(ctx, &b)
}

// MyTours returns the tours the user has booked.
func (s BookingService) MyTours(ctx context.Context, userID int64) ([]models.Tour, error) {
	bookings, err := s.Bookings.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := map[int64]bool{}
	ids := []string{}
	for _, b := range bookings {
		if !seen[b.TourID] {
			seen[b.TourID] = true
			ids = append(ids, strconv.FormatInt(b.TourID, 10))
		}
	}
	if len(ids) == 0 {
		return []models.Tour{}, nil
	}
	tours, _, err := s.Tours.List(ctx, query.Query{
		Conditions: []query.Condition{{Field: "id", Op: query.OpIn, Values: ids}},
		Sort:       query.DefaultSort,
		Page:       1,
		Limit:      len(ids),
	})
	return tours, err
}

// Ticket renders the PDF ticket of a booking for its owner or an admin.
func (s BookingService) Ticket(ctx context.Context, bookingID int64, requester *models.User) ([]byte, string, error) {
	if requester == nil {
		return nil, "", domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	b, err := s.Bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if b.UserID != requester.ID && !requester.HasRole(domain.RoleAdmin) {
		return nil, "", domain.ForbiddenError{}
	}
	return s.Tickets.BookingTicket(ctx, b)
}
