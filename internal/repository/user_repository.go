package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// User mirrors the 'users' table of the user service.
type User struct {
	ID                     uint64
	Name                   string
	Email                  string
	PasswordHash           string
	Role                   string
	IsActive               bool
	IsConfirmed            bool
	ConfirmationToken      sql.NullString
	PasswordResetToken     sql.NullString
	PasswordResetExpiresAt sql.NullTime
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,role,is_active,is_confirmed,confirmation_token,password_reset_token,password_reset_expires_at,created_at,updated_at"

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.IsConfirmed, &u.ConfirmationToken,
		&u.PasswordResetToken, &u.PasswordResetExpiresAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// Create inserts a new account. Accounts start active and unconfirmed; the
// confirmation token is redeemed later via the confirm-email link.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role, confirmationToken string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, is_active, is_confirmed, confirmation_token) VALUES (?,?,?,?,1,0,?)",
		name, email, passwordHash, role, confirmationToken)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByConfirmationToken fetches the account holding an unredeemed
// confirmation token.
func (r *UserRepo) GetByConfirmationToken(ctx context.Context, token string) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE confirmation_token=? LIMIT 1", token))
}

// GetByResetToken fetches the account holding an unredeemed password-reset
// token. Expiry is checked by the caller against PasswordResetExpiresAt.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE password_reset_token=? LIMIT 1", token))
}

// List returns a page of users ordered by id.
func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?",
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, pageSize)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.IsActive, &u.IsConfirmed, &u.ConfirmationToken,
			&u.PasswordResetToken, &u.PasswordResetExpiresAt,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update rewrites the mutable profile fields. Callers verify existence
// first; MySQL reports zero affected rows for a no-change update, so rows
// affected is not a reliable existence signal here.
func (r *UserRepo) Update(ctx context.Context, id uint64, name, email, role string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, role=? WHERE id=?",
		name, email, role, id)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// SetActive flips the is_active flag. Setting the flag to its current value
// is a valid no-op: activate/deactivate are idempotent.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}

// Confirm marks the account confirmed and burns the confirmation token.
func (r *UserRepo) Confirm(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_confirmed=1, confirmation_token=NULL WHERE id=?", id)
	return err
}

// SetResetToken stores a fresh password-reset token with its expiry.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=?, password_reset_expires_at=? WHERE id=?",
		token, expiresAt, id)
	return err
}

// ResetPassword replaces the password hash and burns the reset token.
func (r *UserRepo) ResetPassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_reset_token=NULL, password_reset_expires_at=NULL WHERE id=?",
		passwordHash, id)
	return err
}

// Delete removes the account row permanently. Deletion is physical: the
// email becomes free for re-registration.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
