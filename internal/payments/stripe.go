package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/KarinaChumak/tour-booking-system/internal/config"
)

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeProvider talks to Stripe Checkout.
type StripeProvider struct {
	sessions       sessionCreator
	endpointSecret string
}

func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	api := client.New(cfg.SecretKey, nil)
	return &StripeProvider{sessions: api.CheckoutSessions, endpointSecret: cfg.EndpointSecret}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, item CheckoutItem) (CheckoutSession, error) {
	currency := item.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(item.Name + " Tour"),
		Description: stripe.String(item.Description),
	}
	for _, img := range item.ImageURLs {
		product.Images = append(product.Images, stripe.String(img))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(item.SuccessURL),
		CancelURL:         stripe.String(item.CancelURL),
		CustomerEmail:     stripe.String(item.CustomerEmail),
		ClientReferenceID: stripe.String(strconv.FormatInt(item.TourID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(item.AmountCents),
				ProductData: product,
			},
		}},
	}
	params.Context = ctx

	s, err := p.sessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted || event.Data == nil {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	email := s.CustomerEmail
	if email == "" && s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}
	return &CompletedCheckout{
		SessionID:     s.ID,
		CustomerEmail: email,
		TourID:        s.ClientReferenceID,
		AmountCents:   s.AmountTotal,
	}, nil
}
