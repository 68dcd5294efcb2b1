package payments

import (
	"context"
	"errors"
)

// ErrInvalidWebhook is returned when a webhook payload fails signature or
// format checks.
var ErrInvalidWebhook = errors.New("invalid webhook")

// CheckoutItem describes the single tour being paid for.
type CheckoutItem struct {
	TourID        int64
	Name          string
	Description   string
	ImageURLs     []string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is the part of a paid checkout needed to record a booking.
type CompletedCheckout struct {
	SessionID     string
	CustomerEmail string
	TourID        string
	AmountCents   int64
}

// Provider creates hosted checkout sessions and verifies their webhooks.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, item CheckoutItem) (CheckoutSession, error)
	// ParseWebhook returns nil, nil for verified events other than a completed checkout.
	ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}
