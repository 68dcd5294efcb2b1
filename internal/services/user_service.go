package services

import (
	"context"
	"fmt"

	"github.com/KarinaChumak/tour-booking-system/internal/auth"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

type UserAdminStore interface {
	List(ctx context.Context, q query.Query) ([]models.User, int, error)
	Get(ctx context.Context, id int64) (models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// NewUserInput is the admin form for creating an account.
type NewUserInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type UserService struct {
	Users  UserAdminStore
	Hasher auth.PasswordHasher
}

var selfEditable = map[string]bool{"name": true, "email": true}

func (s UserService) GetMe(ctx context.Context, me *models.User) (models.User, error) {
	if me == nil {
		return models.User{}, domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	return s.Users.Get(ctx, me.ID)
}

// UpdateMe lets a user change their name, email and photo. photo is the
// stored file name of a new upload, or empty.
func (s UserService) UpdateMe(ctx context.Context, me *models.User, body map[string]any, photo string) (models.User, error) {
	if me == nil {
		return models.User{}, domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	if present(body, "password") || present(body, "passwordConfirm") {
		return models.User{}, domain.ValidationError{
			Field: "password",
			Msg:   "This route is not for updating passwords. Please use /updatePassword",
		}
	}
	filtered := map[string]any{}
	for k, v := range body {
		if selfEditable[k] {
			filtered[k] = v
		}
	}

	u, err := s.Users.Get(ctx, me.ID)
	if err != nil {
		return u, err
	}
	if err := models.ApplyPatch(&u, filtered); err != nil {
		return u, err
	}
	if photo != "" {
		u.Photo = photo
	}
	u.Name = plainText(u.Name)
	u.Normalize()
	if err := u.Validate(); err != nil {
		return u, err
	}
	if err := s.Users.Save(ctx, &u); err != nil {
		return u, err
	}
	return u, nil
}

// DeleteMe deactivates the account. Inactive users are invisible to lookups.
func (s UserService) DeleteMe(ctx context.Context, me *models.User) error {
	if me == nil {
		return domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	if err := s.Users.Deactivate(ctx, me.ID); err != nil {
		return err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "users", "deactivate", fmt.Sprintf("user_id=%d", me.ID))
	return nil
}

func (s UserService) List(ctx context.Context, q query.Query) ([]models.User, int, error) {
	return s.Users.List(ctx, q)
}

func (s UserService) Get(ctx context.Context, id int64) (models.User, error) {
	return s.Users.Get(ctx, id)
}

func (s UserService) Create(ctx context.Context, in NewUserInput) (models.User, error) {
	u := models.User{Name: plainText(in.Name), Email: in.Email, Role: in.Role}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return u, err
	}
	if err := models.ValidatePassword(in.Password, in.PasswordConfirm); err != nil {
		return u, err
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return u, domain.InternalError{Msg: "hash password", Err: err}
	}
	u.PasswordHash = hash
	if err := s.Users.Create(ctx, &u); err != nil {
		return u, err
	}
	return u, nil
}

// Update is the admin edit. Passwords are not changed here.
func (s UserService) Update(ctx context.Context, id int64, patch map[string]any) (models.User, error) {
	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return u, err
	}
	if err := models.ApplyPatch(&u, patch, "password", "passwordConfirm", "isGuide"); err != nil {
		return u, err
	}
	u.Name = plainText(u.Name)
	u.Normalize()
	if err := u.Validate(); err != nil {
		return u, err
	}
	if err := s.Users.Save(ctx, &u); err != nil {
		return u, err
	}
	return u, nil
}

func (s UserService) Delete(ctx context.Context, id int64) error {
	return s.Users.Delete(ctx, id)
}

func present(body map[string]any, key string) bool {
	v, ok := body[key]
	if !ok || v == nil {
		return false
	}
	if str, isStr := v.(string); isStr {
		return str != ""
	}
	return true
}
