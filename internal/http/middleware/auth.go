package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/auth"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
)

// UserKey holds the signed-in user in the gin context, for templates.
const UserKey = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*models.User, error)
	OptionalAuthenticate(ctx context.Context, r *http.Request) *models.User
}

// Protect rejects requests without a valid session.
func Protect(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Authenticate(c.Request.Context(), c.Request)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// IsLoggedIn attaches the user when the session is valid and never fails.
func IsLoggedIn(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := a.OptionalAuthenticate(c.Request.Context(), c.Request); user != nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// RestrictTo lets only the given roles through. It must run after Protect.
func RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasRole(roles...) {
			_ = c.Error(domain.ForbiddenError{})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	if c == nil || c.Request == nil {
		return nil
	}
	u, _ := auth.UserFromContext(c.Request.Context())
	return u
}

func setUser(c *gin.Context, u *models.User) {
	c.Set(UserKey, u)
	c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
}
