package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

// maxWebhookBytes matches the payload limit Stripe documents for events.
const maxWebhookBytes = 65536

type BookingHandler struct {
	Bookings services.BookingService
}

func (h BookingHandler) List() gin.HandlerFunc { return GetAll(h.Bookings, nil) }

func (h BookingHandler) Get() gin.HandlerFunc { return GetOne(h.Bookings) }

func (h BookingHandler) Create() gin.HandlerFunc { return CreateOne(h.Bookings, nil) }

func (h BookingHandler) Update() gin.HandlerFunc { return UpdateOne(h.Bookings) }

func (h BookingHandler) Delete() gin.HandlerFunc { return DeleteOne(h.Bookings) }

// GET /api/v1/bookings/checkout-session/:tourId
func (h BookingHandler) CheckoutSession(c *gin.Context) {
	tourID, err := paramID(c, "tourId")
	if err != nil {
		fail(c, err)
		return
	}
	sess, err := h.Bookings.CheckoutSession(c.Request.Context(), tourID, middleware.CurrentUser(c), requestBaseURL(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "session": sess})
}

// POST /webhook-checkout
func (h BookingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		fail(c, domain.ValidationError{Msg: "Webhook error: unreadable body", Err: err})
		return
	}
	if err := h.Bookings.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GET /api/v1/bookings/:id/ticket returns the booking ticket (inline).
func (h BookingHandler) Ticket(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	pdfBytes, filename, err := h.Bookings.Ticket(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
