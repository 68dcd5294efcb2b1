package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

// TicketTours loads the full tour printed on a ticket.
type TicketTours interface {
	Get(ctx context.Context, id int64) (models.Tour, error)
}

// DocsService renders booking tickets as PDF.
type DocsService struct {
	Tours TicketTours
	Now   func() time.Time
}

type ticketData struct {
	Reference  string
	BookingID  int64
	Customer   string
	Email      string
	TourName   string
	Difficulty string
	Duration   int
	StartPlace string
	NextStart  string
	Price      float64
	Paid       bool
	BookedAt   time.Time
}

// BookingReference is the code printed on a ticket and encoded in its QR.
func BookingReference(b models.Booking) string {
	return fmt.Sprintf("NAT-%06d-%d", b.ID, b.TourID)
}

func (s DocsService) BookingTicket(ctx context.Context, b models.Booking) ([]byte, string, error) {
	data := s.ticketData(ctx, b)
	pdf, filename, err := buildTicketPDF(data, s.now())
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "docs", "generate_ticket", fmt.Sprintf("booking_id=%d", b.ID))
	return pdf, filename, nil
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s DocsService) ticketData(ctx context.Context, b models.Booking) ticketData {
	out := ticketData{
		Reference: BookingReference(b),
		BookingID: b.ID,
		Price:     b.Price,
		Paid:      b.Paid,
		BookedAt:  b.CreatedAt,
	}
	if b.User != nil {
		out.Customer = b.User.Name
		out.Email = b.User.Email
	}
	if b.Tour != nil {
		out.TourName = b.Tour.Name
	}
	if s.Tours == nil {
		return out
	}

	// The join carries only a summary; the rest is best effort.
	tour, err := s.Tours.Get(ctx, b.TourID)
	if err != nil {
		utils.LogError(utils.RequestIDFromContext(ctx), "docs", "load_tour", err)
		return out
	}
	if strings.TrimSpace(out.TourName) == "" {
		out.TourName = tour.Name
	}
	out.Difficulty = tour.Difficulty
	out.Duration = tour.Duration
	if tour.StartLocation != nil {
		out.StartPlace = tour.StartLocation.Description
	}
	for _, d := range tour.StartDates {
		if d.After(s.now()) {
			out.NextStart = utils.FormatDate(d)
			break
		}
	}
	return out
}

func buildTicketPDF(d ticketData, issued time.Time) ([]byte, string, error) {
	qr, err := qrcode.Encode(d.Reference, qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("ticket qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Natours Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "NATOURS TICKET")
	pdf.Ln(12)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 150, 12, 45, 45, false, opts, 0, "")

	status := "Awaiting payment"
	if d.Paid {
		status = "Paid"
	}
	duration := "-"
	if d.Duration > 0 {
		duration = fmt.Sprintf("%d days", d.Duration)
	}
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference  : %s", d.Reference),
		fmt.Sprintf("Traveller  : %s", safe(d.Customer, "-")),
		fmt.Sprintf("Email      : %s", safe(d.Email, "-")),
		fmt.Sprintf("Tour       : %s", safe(d.TourName, "-")),
		fmt.Sprintf("Difficulty : %s", safe(d.Difficulty, "-")),
		fmt.Sprintf("Duration   : %s", duration),
		fmt.Sprintf("Meeting at : %s", safe(d.StartPlace, "-")),
		fmt.Sprintf("Next start : %s", safe(d.NextStart, "-")),
		fmt.Sprintf("Booked on  : %s", bookedOn(d.BookedAt)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s (%s)", utils.FormatUSD(d.Price), status))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This ticket is valid for one traveller. Show the QR code to your guide at the meeting point.", "", "", false)
	pdf.Cell(0, 6, "Issued "+issued.UTC().Format("2006-01-02 15:04")+" UTC")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("TICKET_%d_%s.pdf", d.BookingID, safeFilenamePart(d.TourName))
	return buf.Bytes(), filename, nil
}

func bookedOn(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return utils.FormatDate(t)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
