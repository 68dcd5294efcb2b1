package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

const (
	SubjectWelcome       = "Welcome to the Natours Family!"
	SubjectPasswordReset = "Your password reset token (valid for only 10 minutes)"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders the account emails and hands them to a Sender.
type Mailer struct {
	sender    Sender
	templates map[string]*template.Template
	text      *bluemonday.Policy
}

func New(sender Sender) (*Mailer, error) {
	m := &Mailer{
		sender:    sender,
		templates: map[string]*template.Template{},
		text:      bluemonday.StrictPolicy(),
	}
	for _, name := range []string{"welcome", "password_reset"} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s email: %w", name, err)
		}
		m.templates[name] = t
	}
	return m, nil
}

type emailData struct {
	Subject   string
	FirstName string
	URL       string
}

func (m *Mailer) SendWelcome(ctx context.Context, u models.User, url string) error {
	return m.send(ctx, "welcome", SubjectWelcome, u, url)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, u models.User, url string) error {
	return m.send(ctx, "password_reset", SubjectPasswordReset, u, url)
}

func (m *Mailer) send(ctx context.Context, name, subject string, u models.User, url string) error {
	var buf bytes.Buffer
	data := emailData{Subject: subject, FirstName: utils.FirstName(u.Name), URL: url}
	if err := m.templates[name].ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s email: %w", name, err)
	}
	page := buf.String()
	return m.sender.Send(ctx, Message{
		To:      u.Email,
		Subject: subject,
		HTML:    page,
		Text:    m.plainText(page),
	})
}

// plainText strips markup for the text/plain alternative.
func (m *Mailer) plainText(page string) string {
	stripped := html.UnescapeString(m.text.Sanitize(page))
	lines := []string{}
	for _, line := range strings.Split(stripped, "\n") {
		if line = utils.NormalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
