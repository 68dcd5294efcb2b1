package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/auth"
	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

// logoutCookieTTL is how long the placeholder cookie lives after logout.
const logoutCookieTTL = 10 * time.Second

type AuthHandler struct {
	Auth *services.AuthService
	// CookieDays is the lifetime of the session cookie.
	CookieDays int
	Now        func() time.Time
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// updatePasswordRequest also accepts the passwordOld/passwordNew names sent
// by the account page.
type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	PasswordOld     string `json:"passwordOld"`
	Password        string `json:"password"`
	PasswordNew     string `json:"passwordNew"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r updatePasswordRequest) current() string {
	if r.PasswordCurrent != "" {
		return r.PasswordCurrent
	}
	return r.PasswordOld
}

func (r updatePasswordRequest) next() string {
	if r.Password != "" {
		return r.Password
	}
	return r.PasswordNew
}

func (h AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// POST /api/v1/users/signup
func (h AuthHandler) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	sess, err := h.Auth.Signup(c.Request.Context(), req, requestBaseURL(c)+"/me")
	if err != nil {
		fail(c, err)
		return
	}
	h.sendSession(c, http.StatusCreated, sess)
}

// POST /api/v1/users/login
func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	sess, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendSession(c, http.StatusOK, sess)
}

// GET /api/v1/users/logout
func (h AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     auth.CookieName,
		Value:    auth.LoggedOutValue,
		Path:     "/",
		Expires:  h.now().Add(logoutCookieTTL),
		HttpOnly: true,
	})
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// POST /api/v1/users/forgotPassword
func (h AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	base := requestBaseURL(c)
	err := h.Auth.ForgotPassword(c.Request.Context(), req.Email, func(raw string) string {
		return base + "/api/v1/users/resetPassword/" + raw
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

// PATCH /api/v1/users/resetPassword/:token
func (h AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	sess, err := h.Auth.CompletePasswordReset(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendSession(c, http.StatusOK, sess)
}

// PATCH /api/v1/users/updatePassword
func (h AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	sess, err := h.Auth.ChangePassword(c.Request.Context(), middleware.CurrentUser(c),
		req.current(), req.next(), req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendSession(c, http.StatusOK, sess)
}

// sendSession sets the session cookie and returns the token with the user.
func (h AuthHandler) sendSession(c *gin.Context, status int, sess services.Session) {
	days := h.CookieDays
	if days <= 0 {
		days = 90
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  h.now().Add(time.Duration(days) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   isSecure(c),
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(status, gin.H{
		"status": "success",
		"token":  sess.Token,
		"data":   gin.H{"user": sess.User.ToPublic()},
	})
}
