package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KarinaChumak/tour-booking-system/internal/auth"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

const DefaultResetTTL = 10 * time.Minute

// UserStore is the persistence AuthService needs.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetPasswordReset(ctx context.Context, id int64, hash string, expires *time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string, changedAt time.Time) error
}

// AccountMailer delivers account emails.
type AccountMailer interface {
	SendWelcome(ctx context.Context, u models.User, url string) error
	SendPasswordReset(ctx context.Context, u models.User, url string) error
}

// Session is a freshly issued token and the user it belongs to.
type Session struct {
	Token string
	User  models.User
}

type SignupInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// AuthService issues and verifies sessions and runs the password flows.
type AuthService struct {
	Users    UserStore
	Tokens   *auth.TokenManager
	Hasher   auth.PasswordHasher
	Mailer   AccountMailer
	ResetTTL time.Duration
	Now      func() time.Time
}

func NewAuthService(users UserStore, tokens *auth.TokenManager, hasher auth.PasswordHasher, mailer AccountMailer) *AuthService {
	return &AuthService{
		Users:    users,
		Tokens:   tokens,
		Hasher:   hasher,
		Mailer:   mailer,
		ResetTTL: DefaultResetTTL,
		Now:      time.Now,
	}
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTTL
}

func (s *AuthService) IssueToken(userID int64) (string, error) {
	token, err := s.Tokens.Issue(userID)
	if err != nil {
		return "", domain.InternalError{Msg: "issue token", Err: err}
	}
	return token, nil
}

// VerifyToken fails with UnauthenticatedError whose reason tells expired
// tokens apart from malformed or forged ones.
func (s *AuthService) VerifyToken(token string) (auth.Claims, error) {
	claims, err := s.Tokens.Verify(token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, auth.ErrTokenExpired):
		return auth.Claims{}, domain.UnauthenticatedError{Reason: domain.ReasonExpiredToken, Err: err}
	default:
		return auth.Claims{}, domain.UnauthenticatedError{Reason: domain.ReasonInvalidToken, Err: err}
	}
}

// Authenticate resolves the request's session to an active user whose
// password has not changed since the token was issued.
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (*models.User, error) {
	raw := auth.TokenFromRequest(r)
	if raw == "" {
		return nil, domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	claims, err := s.VerifyToken(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.UnauthenticatedError{Reason: domain.ReasonSubjectGone, Err: err}
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, domain.UnauthenticatedError{Reason: domain.ReasonStaleToken}
	}
	return &user, nil
}

// OptionalAuthenticate is Authenticate for pages that also render for
// visitors. Any failure yields nil.
func (s *AuthService) OptionalAuthenticate(ctx context.Context, r *http.Request) *models.User {
	user, err := s.Authenticate(ctx, r)
	if err != nil {
		return nil
	}
	return user
}

// Authorize allows user only when its role is one of roles.
func (s *AuthService) Authorize(user *models.User, roles ...string) error {
	if user == nil || !user.HasRole(roles...) {
		return domain.ForbiddenError{}
	}
	return nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput, welcomeURL string) (Session, error) {
	user := models.User{Name: in.Name, Email: in.Email, Role: domain.RoleUser}
	user.Normalize()
	if err := user.Validate(); err != nil {
		return Session{}, err
	}
	if err := models.ValidatePassword(in.Password, in.PasswordConfirm); err != nil {
		return Session{}, err
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return Session{}, domain.InternalError{Msg: "hash password", Err: err}
	}
	user.PasswordHash = hash
	if err := s.Users.Create(ctx, &user); err != nil {
		return Session{}, err
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, user, welcomeURL); err != nil {
			utils.LogError(utils.RequestIDFromContext(ctx), "auth", "welcome_email", err)
		}
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "auth", "signup", fmt.Sprintf("user_id=%d", user.ID))
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, domain.ValidationError{Msg: "Please provide email and password!"}
	}
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return Session{}, domain.InvalidCredentialsError{}
		}
		return Session{}, err
	}
	ok, err := s.Hasher.Compare(password, user.PasswordHash)
	if err != nil {
		return Session{}, domain.InternalError{Msg: "compare password", Err: err}
	}
	if !ok {
		return Session{}, domain.InvalidCredentialsError{}
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "auth", "login", fmt.Sprintf("user_id=%d", user.ID))
	return s.session(user)
}

// InitiatePasswordReset stores the digest of a new reset token and returns
// the raw token, which is never persisted.
func (s *AuthService) InitiatePasswordReset(ctx context.Context, email string) (string, models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.User{}, domain.ValidationError{Field: "email", Msg: "Please provide email address"}
	}
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", models.User{}, domain.NotFoundError{Resource: "user", Msg: "There is no user with provided email address", Err: err}
		}
		return "", models.User{}, err
	}

	raw, hash, err := auth.NewResetToken()
	if err != nil {
		return "", models.User{}, domain.InternalError{Msg: "reset token", Err: err}
	}
	expires := s.now().Add(s.resetTTL()).UTC()
	if err := s.Users.SetPasswordReset(ctx, user.ID, hash, &expires); err != nil {
		return "", models.User{}, err
	}
	user.PasswordResetToken = hash
	user.PasswordResetExpires = &expires
	return raw, user, nil
}

// CancelPasswordReset clears a pending reset. Failures are logged only.
func (s *AuthService) CancelPasswordReset(ctx context.Context, user models.User) {
	if err := s.Users.SetPasswordReset(ctx, user.ID, "", nil); err != nil {
		utils.LogError(utils.RequestIDFromContext(ctx), "auth", "cancel_password_reset", err)
	}
}

// ForgotPassword emails a reset link built by resetURL from the raw token.
// When delivery fails the pending reset is cleared and DeliveryError returned.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(raw string) string) error {
	raw, user, err := s.InitiatePasswordReset(ctx, email)
	if err != nil {
		return err
	}
	if s.Mailer == nil {
		s.CancelPasswordReset(ctx, user)
		return domain.DeliveryError{Err: errors.New("no mailer configured")}
	}
	if err := s.Mailer.SendPasswordReset(ctx, user, resetURL(raw)); err != nil {
		s.CancelPasswordReset(ctx, user)
		return domain.DeliveryError{Err: err}
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "auth", "forgot_password", fmt.Sprintf("user_id=%d", user.ID))
	return nil
}

// CompletePasswordReset sets a new password for the holder of an unexpired
// reset token and returns a fresh session.
func (s *AuthService) CompletePasswordReset(ctx context.Context, raw, password, confirm string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, domain.InvalidOrExpiredTokenError{}
	}
	user, err := s.Users.FindByResetTokenHash(ctx, auth.HashResetToken(raw))
	if err != nil {
		if domain.IsNotFound(err) {
			return Session{}, domain.InvalidOrExpiredTokenError{Err: err}
		}
		return Session{}, err
	}
	if user.PasswordResetExpires == nil || !user.PasswordResetExpires.After(s.now()) {
		return Session{}, domain.InvalidOrExpiredTokenError{}
	}

	if err := s.setPassword(ctx, &user, password, confirm); err != nil {
		return Session{}, err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "auth", "reset_password", fmt.Sprintf("user_id=%d", user.ID))
	return s.session(user)
}

// ChangePassword replaces the password of a signed-in user who proves the
// current one, and returns a fresh session.
func (s *AuthService) ChangePassword(ctx context.Context, current *models.User, oldPassword, password, confirm string) (Session, error) {
	if current == nil {
		return Session{}, domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	user, err := s.Users.FindByID(ctx, current.ID)
	if err != nil {
		return Session{}, err
	}
	ok, err := s.Hasher.Compare(oldPassword, user.PasswordHash)
	if err != nil {
		return Session{}, domain.InternalError{Msg: "compare password", Err: err}
	}
	if !ok {
		return Session{}, domain.InvalidCredentialsError{Msg: "Provided old password is incorrect"}
	}

	if err := s.setPassword(ctx, &user, password, confirm); err != nil {
		return Session{}, err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "auth", "update_password", fmt.Sprintf("user_id=%d", user.ID))
	return s.session(user)
}

// setPassword stamps passwordChangedAt one second in the past so the token
// issued right after the change is not considered stale.
func (s *AuthService) setPassword(ctx context.Context, user *models.User, password, confirm string) error {
	if err := models.ValidatePassword(password, confirm); err != nil {
		return err
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.InternalError{Msg: "hash password", Err: err}
	}
	changedAt := s.now().Add(-time.Second).UTC()
	if err := s.Users.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return nil
}

func (s *AuthService) session(user models.User) (Session, error) {
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}
