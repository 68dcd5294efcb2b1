package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "github.com/KarinaChumak/tour-booking-system/internal/db"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

// UserRepository reads and writes the users table. Deactivated users are
// invisible to every lookup.
type UserRepository struct {
	DB *sql.DB
}

var userColumns = columns{
	"id":        {Name: "u.id"},
	"name":      {Name: "u.name"},
	"email":     {Name: "u.email"},
	"photo":     {Name: "u.photo"},
	"role":      {Name: "u.role"},
	"phone":     {Name: "u.phone"},
	"createdAt": {Name: "u.created_at"},
}

const userSelect = `SELECT u.id, u.name, u.email, u.photo, u.role, u.phone, u.password_hash,
       u.password_changed_at, u.password_reset_token, u.password_reset_expires,
       u.active, u.created_at, u.version
FROM users u`

const activeUser = "u.active = 1"

func scanUser(row intdb.RowScanner) (models.User, error) {
	var (
		u          models.User
		phone      sql.NullString
		resetToken sql.NullString
		changedAt  sql.NullTime
		resetExp   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &phone, &u.PasswordHash,
		&changedAt, &resetToken, &resetExp, &u.Active, &u.CreatedAt, &u.Version)
	if err != nil {
		return u, err
	}
	u.Phone = phone.String
	u.PasswordResetToken = resetToken.String
	if changedAt.Valid {
		t := changedAt.Time
		u.PasswordChangedAt = &t
	}
	if resetExp.Valid {
		t := resetExp.Time
		u.PasswordResetExpires = &t
	}
	return u, nil
}

func (r UserRepository) List(ctx context.Context, q query.Query) ([]models.User, int, error) {
	where, args := whereClause(q.Conditions, userColumns, activeUser)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users u"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit, limitArgs := limitClause(q)
	rows, err := r.DB.QueryContext(ctx, userSelect+where+orderClause(q.Sort, userColumns, "u.id")+limit, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return out, total, nil
}

func (r UserRepository) findOne(ctx context.Context, clause string, args ...any) (models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE "+clause+" AND "+activeUser+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return u, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r UserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	return r.findOne(ctx, "u.id = ?", id)
}

func (r UserRepository) Get(ctx context.Context, id int64) (models.User, error) {
	return r.FindByID(ctx, id)
}

func (r UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "u.email = ?", email)
}

func (r UserRepository) FindByResetTokenHash(ctx context.Context, hash string) (models.User, error) {
	return r.findOne(ctx, "u.password_reset_token = ?", hash)
}

// FindByIDs returns the active users among ids, in id order.
func (r UserRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		userSelect+" WHERE u.id IN ("+intdb.Placeholders(len(ids))+") AND "+activeUser+" ORDER BY u.id", args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO users
        (name, email, photo, role, phone, password_hash, password_changed_at, active, created_at, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, 0)`,
		u.Name, u.Email, u.Photo, u.Role, intdb.NullIfEmpty(u.Phone), u.PasswordHash,
		u.PasswordChangedAt, u.CreatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return emailConflict(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	u.ID = id
	u.Active = true
	u.Version = 0
	return nil
}

// Save persists profile fields. Credentials have their own methods.
func (r UserRepository) Save(ctx context.Context, u *models.User) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users
        SET name = ?, email = ?, photo = ?, role = ?, phone = ?, version = version + 1
        WHERE id = ? AND active = 1`,
		u.Name, u.Email, u.Photo, u.Role, intdb.NullIfEmpty(u.Phone), u.ID)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return emailConflict(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if err := expectOneRow(res, "user"); err != nil {
		return err
	}
	u.Version++
	return nil
}

// SetPasswordReset stores a reset digest and expiry; an empty hash clears both.
func (r UserRepository) SetPasswordReset(ctx context.Context, id int64, hash string, expires *time.Time) error {
	var exp any
	if hash != "" && expires != nil {
		exp = *expires
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_reset_token = ?, password_reset_expires = ? WHERE id = ?`,
		intdb.NullIfEmpty(hash), exp, id)
	if err != nil {
		return fmt.Errorf("set password reset: %w", err)
	}
	return nil
}

// UpdatePassword replaces the credential and clears any pending reset.
func (r UserRepository) UpdatePassword(ctx context.Context, id int64, hash string, changedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users
        SET password_hash = ?, password_changed_at = ?, password_reset_token = NULL,
            password_reset_expires = NULL, version = version + 1
        WHERE id = ? AND active = 1`, hash, changedAt, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOneRow(res, "user")
}

func (r UserRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET active = 0, version = version + 1 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return expectOneRow(res, "user")
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneRow(res, "user")
}

func emailConflict(err error) error {
	return domain.ConflictError{Resource: "email", Msg: "Duplicate field value: email. Please use another value", Err: err}
}

func expectOneRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return nil
}
