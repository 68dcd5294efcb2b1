package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
)

const (
	CookieName = "jwt"

	// LoggedOutValue overwrites the session cookie on logout.
	LoggedOutValue = "loggedOut"
)

// TokenFromRequest extracts the session token. The Authorization header
// takes precedence over the cookie.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" && v != LoggedOutValue {
			return v
		}
	}
	return ""
}

type ctxKey struct{}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}
