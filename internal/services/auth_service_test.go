package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarinaChumak/tour-booking-system/internal/auth"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
)

type fakeUserStore struct {
	users      map[int64]models.User
	nextID     int64
	resetErr   error
	resetCalls int
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[int64]models.User{}, nextID: 100}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(_ context.Context, id int64) (models.User, error) {
	u, ok := s.users[id]
	if !ok || !u.Active {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range s.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (s *fakeUserStore) FindByResetTokenHash(_ context.Context, hash string) (models.User, error) {
	for _, u := range s.users {
		if hash != "" && u.PasswordResetToken == hash && u.Active {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ConflictError{Resource: "user", Msg: "Duplicate field value: email. Please use another value"}
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.Active = true
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) SetPasswordReset(_ context.Context, id int64, hash string, expires *time.Time) error {
	s.resetCalls++
	if s.resetErr != nil {
		return s.resetErr
	}
	u := s.users[id]
	u.PasswordResetToken = hash
	u.PasswordResetExpires = expires
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash string, changedAt time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
	s.users[id] = u
	return nil
}

type fakeAccountMailer struct {
	err       error
	welcomed  []string
	resetURLs []string
}

func (m *fakeAccountMailer) SendWelcome(_ context.Context, u models.User, _ string) error {
	m.welcomed = append(m.welcomed, u.Email)
	return m.err
}

func (m *fakeAccountMailer) SendPasswordReset(_ context.Context, _ models.User, url string) error {
	m.resetURLs = append(m.resetURLs, url)
	return m.err
}

var authNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newAuthFixture(t *testing.T, users ...models.User) (*AuthService, *fakeUserStore, *fakeAccountMailer) {
	t.Helper()
	store := newFakeUserStore(users...)
	mailer := &fakeAccountMailer{}
	tokens := auth.NewTokenManager("test-secret", 90*24*time.Hour).WithClock(func() time.Time { return authNow })
	svc := NewAuthService(store, tokens, auth.BcryptHasher{Cost: 4}, mailer)
	svc.Now = func() time.Time { return authNow }
	return svc, store, mailer
}

func hashed(t *testing.T, plain string) string {
	t.Helper()
	h, err := auth.BcryptHasher{Cost: 4}.Hash(plain)
	require.NoError(t, err)
	return h
}

func activeUser(t *testing.T, id int64, email, password string) models.User {
	return models.User{ID: id, Name: "Jonas Schmedtmann", Email: email, Role: domain.RoleUser,
		Photo: models.DefaultPhoto, PasswordHash: hashed(t, password), Active: true}
}

func bearer(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestSignupForcesUserRoleAndSendsWelcome(t *testing.T) {
	svc, store, mailer := newAuthFixture(t)

	sess, err := svc.Signup(context.Background(), SignupInput{
		Name: " Laura ", Email: "Laura@Example.com", Password: "pass1234", PasswordConfirm: "pass1234",
	}, "http://localhost/me")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "laura@example.com", sess.User.Email)
	assert.Equal(t, domain.RoleUser, sess.User.Role)
	assert.Equal(t, []string{"laura@example.com"}, mailer.welcomed)

	stored := store.users[sess.User.ID]
	assert.NotEqual(t, "pass1234", stored.PasswordHash)
}

func TestSignupWelcomeFailureDoesNotFail(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	mailer.err = errors.New("smtp down")

	_, err := svc.Signup(context.Background(), SignupInput{
		Name: "Laura", Email: "laura@example.com", Password: "pass1234", PasswordConfirm: "pass1234",
	}, "")
	assert.NoError(t, err)
}

func TestSignupRejectsMismatchedConfirm(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Signup(context.Background(), SignupInput{
		Name: "Laura", Email: "laura@example.com", Password: "pass1234", PasswordConfirm: "pass4321",
	}, "")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Passwords are not the same", err.Error())
}

func TestLogin(t *testing.T) {
	u := activeUser(t, 1, "admin@natours.io", "test1234")
	svc, _, _ := newAuthFixture(t, u)

	_, err := svc.Login(context.Background(), "", "x")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Please provide email and password!", err.Error())

	_, err = svc.Login(context.Background(), "admin@natours.io", "wrongpass")
	assert.True(t, domain.IsInvalidCredentials(err))

	_, err = svc.Login(context.Background(), "nobody@natours.io", "test1234")
	assert.True(t, domain.IsInvalidCredentials(err))

	sess, err := svc.Login(context.Background(), " Admin@Natours.io ", "test1234")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.User.ID)
}

func TestAuthenticateOutcomes(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, store, _ := newAuthFixture(t, u)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	reason, _ := domain.AuthReasonOf(err)
	assert.Equal(t, domain.ReasonMissingToken, reason)

	_, err = svc.Authenticate(ctx, bearer("not.a.jwt"))
	reason, _ = domain.AuthReasonOf(err)
	assert.Equal(t, domain.ReasonInvalidToken, reason)

	token, err := svc.IssueToken(1)
	require.NoError(t, err)
	got, err := svc.Authenticate(ctx, bearer(token))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	changed := authNow.Add(time.Hour)
	stale := store.users[1]
	stale.PasswordChangedAt = &changed
	store.users[1] = stale
	_, err = svc.Authenticate(ctx, bearer(token))
	reason, _ = domain.AuthReasonOf(err)
	assert.Equal(t, domain.ReasonStaleToken, reason)

	gone, err := svc.IssueToken(77)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, bearer(gone))
	reason, _ = domain.AuthReasonOf(err)
	assert.Equal(t, domain.ReasonSubjectGone, reason)
	assert.Equal(t, http.StatusUnauthorized, domain.HTTPStatus(err))
}

func TestChangePasswordInvalidatesEarlierTokens(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, _, _ := newAuthFixture(t, u)
	now := authNow
	clock := func() time.Time { return now }
	svc.Tokens = auth.NewTokenManager("test-secret", 90*24*time.Hour).WithClock(clock)
	svc.Now = clock
	ctx := context.Background()

	oldToken, err := svc.IssueToken(1)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	sess, err := svc.ChangePassword(ctx, &u, "test1234", "newpass123", "newpass123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, bearer(oldToken))
	reason, _ := domain.AuthReasonOf(err)
	assert.Equal(t, domain.ReasonStaleToken, reason)
	assert.Equal(t, "Token is expired, because user password was changed", err.Error())

	got, err := svc.Authenticate(ctx, bearer(sess.Token))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, _, _ := newAuthFixture(t, u)
	old := auth.NewTokenManager("test-secret", time.Hour).WithClock(func() time.Time { return authNow.Add(-2 * time.Hour) })
	token, err := old.Issue(1)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), bearer(token))
	reason, _ := domain.AuthReasonOf(err)
	assert.Equal(t, domain.ReasonExpiredToken, reason)
}

func TestAuthenticateHeaderBeatsCookie(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, _, _ := newAuthFixture(t, u)
	token, _ := svc.IssueToken(1)

	r := bearer(token)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
	got, err := svc.Authenticate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestOptionalAuthenticateIgnoresLoggedOutCookie(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: auth.LoggedOutValue})
	assert.Nil(t, svc.OptionalAuthenticate(context.Background(), r))
}

func TestAuthorize(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	admin := &models.User{Role: domain.RoleAdmin}
	guide := &models.User{Role: domain.RoleGuide}

	assert.NoError(t, svc.Authorize(admin, domain.RoleAdmin, domain.RoleLeadGuide))
	err := svc.Authorize(guide, domain.RoleAdmin, domain.RoleLeadGuide)
	assert.True(t, domain.IsForbidden(err))
	assert.True(t, domain.IsForbidden(svc.Authorize(nil, domain.RoleAdmin)))
}

func TestForgotAndResetPassword(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, store, mailer := newAuthFixture(t, u)
	ctx := context.Background()

	var raw string
	err := svc.ForgotPassword(ctx, "a@natours.io", func(token string) string {
		raw = token
		return "http://localhost/api/v1/users/resetPassword/" + token
	})
	require.NoError(t, err)
	require.Len(t, mailer.resetURLs, 1)
	assert.True(t, strings.HasSuffix(mailer.resetURLs[0], raw))

	stored := store.users[1]
	assert.Equal(t, auth.HashResetToken(raw), stored.PasswordResetToken)
	assert.NotEqual(t, raw, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)
	assert.Equal(t, authNow.Add(10*time.Minute), *stored.PasswordResetExpires)

	sess, err := svc.CompletePasswordReset(ctx, raw, "newpass123", "newpass123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	stored = store.users[1]
	assert.Empty(t, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.Equal(t, authNow.Add(-time.Second), *stored.PasswordChangedAt)

	got, err := svc.Authenticate(ctx, bearer(sess.Token))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = svc.CompletePasswordReset(ctx, raw, "another123", "another123")
	assert.True(t, domain.IsInvalidOrExpiredToken(err))
}

func TestResetPasswordExpired(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, _, _ := newAuthFixture(t, u)
	ctx := context.Background()

	raw, _, err := svc.InitiatePasswordReset(ctx, "a@natours.io")
	require.NoError(t, err)

	svc.Now = func() time.Time { return authNow.Add(11 * time.Minute) }
	_, err = svc.CompletePasswordReset(ctx, raw, "newpass123", "newpass123")
	assert.True(t, domain.IsInvalidOrExpiredToken(err))
	assert.Equal(t, http.StatusBadRequest, domain.HTTPStatus(err))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	err := svc.ForgotPassword(context.Background(), "ghost@natours.io", func(string) string { return "" })
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, "There is no user with provided email address", err.Error())
}

func TestForgotPasswordDeliveryFailureClearsReset(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, store, mailer := newAuthFixture(t, u)
	mailer.err = errors.New("smtp down")

	err := svc.ForgotPassword(context.Background(), "a@natours.io", func(string) string { return "x" })
	assert.True(t, domain.IsDelivery(err))
	assert.Equal(t, http.StatusInternalServerError, domain.HTTPStatus(err))
	assert.Equal(t, 2, store.resetCalls)
	assert.Empty(t, store.users[1].PasswordResetToken)
	assert.Nil(t, store.users[1].PasswordResetExpires)
}

func TestChangePassword(t *testing.T) {
	u := activeUser(t, 1, "a@natours.io", "test1234")
	svc, store, _ := newAuthFixture(t, u)
	ctx := context.Background()

	_, err := svc.ChangePassword(ctx, &u, "wrongpass", "newpass123", "newpass123")
	assert.True(t, domain.IsInvalidCredentials(err))
	assert.Equal(t, "Provided old password is incorrect", err.Error())

	_, err = svc.ChangePassword(ctx, &u, "test1234", "short", "short")
	assert.True(t, domain.IsValidation(err))

	sess, err := svc.ChangePassword(ctx, &u, "test1234", "newpass123", "newpass123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	ok, err := auth.BcryptHasher{}.Compare("newpass123", store.users[1].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
