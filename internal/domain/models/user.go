package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

const (
	DefaultPhoto      = "default.jpg"
	MinPasswordLength = 8
)

type User struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Photo                string     `json:"photo"`
	Role                 string     `json:"role"`
	Phone                string     `json:"phone,omitempty"`
	PasswordHash         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	Version              int        `json:"version"`
}

// PublicUser is the shape sent to clients.
type PublicUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	IsGuide   bool      `json:"isGuide"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Photo:     u.Photo,
		Role:      u.Role,
		Phone:     u.Phone,
		IsGuide:   u.IsGuide(),
		CreatedAt: u.CreatedAt,
	}
}

func (u *User) IsGuide() bool {
	return u.Role == domain.RoleGuide || u.Role == domain.RoleLeadGuide
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat, compared at second precision.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), u.Role) {
			return true
		}
	}
	return false
}

// Normalize applies defaults and canonical forms before validation.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Phone = strings.TrimSpace(u.Phone)
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
}

func (u *User) Validate() error {
	if u.Name == "" {
		return domain.ValidationError{Field: "name", Msg: "A user must have a name"}
	}
	if u.Email == "" {
		return domain.ValidationError{Field: "email", Msg: "A user must have an email"}
	}
	if !ValidEmail(u.Email) {
		return domain.ValidationError{Field: "email", Msg: "Please fill a valid email address"}
	}
	if !domain.IsValidRole(u.Role) {
		return domain.ValidationError{Field: "role", Msg: "Role should be user/guide/lead-guide/admin"}
	}
	return nil
}

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

// ValidatePassword checks a new password and its confirmation.
func ValidatePassword(password, confirm string) error {
	if password == "" {
		return domain.ValidationError{Field: "password", Msg: "A user must have a password"}
	}
	if len(password) < MinPasswordLength {
		return domain.ValidationError{Field: "password", Msg: "Password must have at least 8 characters"}
	}
	if password != confirm {
		return domain.ValidationError{Field: "passwordConfirm", Msg: "Passwords are not the same"}
	}
	return nil
}
