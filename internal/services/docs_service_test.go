package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
)

type ticketTours struct {
	tour models.Tour
	err  error
}

func (f ticketTours) Get(context.Context, int64) (models.Tour, error) {
	return f.tour, f.err
}

func sampleBooking() models.Booking {
	return models.Booking{
		ID: 12, TourID: 3, UserID: 7, Price: 1497, Paid: true,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Tour:      &models.TourSummary{ID: 3, Name: "The Snow Adventurer", Slug: "the-snow-adventurer"},
		User:      &models.PublicUser{ID: 7, Name: "Lisa Brown", Email: "lisa@example.com"},
	}
}

func TestDocsServiceBookingTicket(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	svc := DocsService{
		Tours: ticketTours{tour: models.Tour{
			Name: "The Snow Adventurer", Difficulty: "difficult", Duration: 4,
			StartLocation: &models.Location{Description: "Aspen, USA"},
			StartDates:    []time.Time{now.AddDate(0, -1, 0), now.AddDate(0, 2, 0)},
		}},
		Now: func() time.Time { return now },
	}

	pdf, filename, err := svc.BookingTicket(context.Background(), sampleBooking())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, "TICKET_12_The_Snow_Adventurer.pdf", filename)

	data := svc.ticketData(context.Background(), sampleBooking())
	assert.Equal(t, "2025-06-01", data.NextStart)
	assert.Equal(t, "Aspen, USA", data.StartPlace)
}

func TestDocsServiceTicketSurvivesTourLookupFailure(t *testing.T) {
	svc := DocsService{Tours: ticketTours{err: errors.New("db down")}}

	pdf, _, err := svc.BookingTicket(context.Background(), sampleBooking())
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

func TestBookingReference(t *testing.T) {
	assert.Equal(t, "NAT-000012-3", BookingReference(sampleBooking()))
}

func TestSafeFilenamePart(t *testing.T) {
	assert.Equal(t, "NA", safeFilenamePart("  "))
	assert.Equal(t, "a_b_c", safeFilenamePart("a/b:c"))
}
