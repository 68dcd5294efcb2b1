package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
)

type recordingSender struct {
	msgs []Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestSendPasswordReset(t *testing.T) {
	rec := &recordingSender{}
	m, err := New(rec)
	require.NoError(t, err)

	u := models.User{Name: "Laura Wilson", Email: "laura@example.com"}
	url := "https://natours.example.com/api/v1/users/resetPassword/abc123"
	require.NoError(t, m.SendPasswordReset(context.Background(), u, url))

	require.Len(t, rec.msgs, 1)
	msg := rec.msgs[0]
	assert.Equal(t, "laura@example.com", msg.To)
	assert.Equal(t, SubjectPasswordReset, msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Laura,")
	assert.Contains(t, msg.HTML, url)
	assert.Contains(t, msg.Text, url)
	assert.NotContains(t, msg.Text, "<a")
}

func TestSendWelcomeEscapesName(t *testing.T) {
	rec := &recordingSender{}
	m, err := New(rec)
	require.NoError(t, err)

	u := models.User{Name: "<script>x</script> Doe", Email: "x@example.com"}
	require.NoError(t, m.SendWelcome(context.Background(), u, "https://natours.example.com/me"))

	msg := rec.msgs[0]
	assert.Equal(t, SubjectWelcome, msg.Subject)
	assert.False(t, strings.Contains(msg.HTML, "<script>"))
}

func TestSendPropagatesSenderError(t *testing.T) {
	m, err := New(&recordingSender{err: errors.New("relay down")})
	require.NoError(t, err)
	err = m.SendWelcome(context.Background(), models.User{Name: "A", Email: "a@b.io"}, "u")
	assert.ErrorContains(t, err, "relay down")
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestSMTPSenderSetsHeaders(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d, from: "Natours <hello@natours.io>"}

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.io", Subject: "Hi", HTML: "<p>x</p>", Text: "x"}))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"a@b.io"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, d.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"Natours <hello@natours.io>"}, d.sent[0].GetHeader("From"))
}

func TestSMTPSenderWrapsError(t *testing.T) {
	s := &SMTPSender{dialer: &fakeDialer{err: errors.New("535 auth failed")}, from: "x@y.z"}
	err := s.Send(context.Background(), Message{To: "a@b.io"})
	assert.ErrorContains(t, err, "535 auth failed")
}

func TestLogSenderNeverFails(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "a@b.io"}))
}
