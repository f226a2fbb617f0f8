package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, name, email, role, password_hash,
	reset_token_hash, reset_expires_at,
	formatted_address, city, state, zip_code, country, longitude, latitude,
	created_at, updated_at`

// Create inserts a new user. The UNIQUE constraint on email is the
// source of truth for duplicate detection — racing registrations can't
// both pass a pre-check, but they can't both survive the constraint.
func (r *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, password_hash,
			formatted_address, city, state, zip_code, country, longitude, latitude,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		string(user.Role),
		user.PasswordHash,
		user.Location.FormattedAddress,
		user.Location.City,
		user.Location.State,
		user.Location.ZipCode,
		user.Location.Country,
		user.Location.Longitude,
		user.Location.Latitude,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email match (case-sensitive, as
// stored). Returns apperror.ErrNotFound when absent — the auth service
// translates that into the uniform invalid-credentials error.
func (r *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// UpdateDetails changes name and email, nothing else, and returns the
// updated record.
func (r *UserDB) UpdateDetails(ctx context.Context, id, name, email string) (*model.User, error) {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		name, email, time.Now(), id,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, apperror.Conflict(fmt.Sprintf("email %s is already registered", email))
		}
		return nil, fmt.Errorf("sqlite: updating user details %s: %w", id, err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	} else if n == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return r.GetByID(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (r *UserDB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %s: %w", id, err)
	}
	return rowsAffectedOrNotFound(result, "user", id)
}

// SetResetToken records a pending password reset. Hash and expiry are
// written together — the pair is never half-set.
func (r *UserDB) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET reset_token_hash = ?, reset_expires_at = ?, updated_at = ? WHERE id = ?`,
		tokenHash, expiresAt, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting reset token for user %s: %w", id, err)
	}
	return rowsAffectedOrNotFound(result, "user", id)
}

// ClearResetToken abandons a pending reset without changing the password.
// Used when reset-mail dispatch fails after the token was stored.
func (r *UserDB) ClearResetToken(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET reset_token_hash = NULL, reset_expires_at = NULL, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: clearing reset token for user %s: %w", id, err)
	}
	return rowsAffectedOrNotFound(result, "user", id)
}

// GetByResetTokenHash finds the user carrying the given reset hash with
// an expiry still in the future. The lookup key is the hash of the
// presented token — the plaintext never touches the database.
func (r *UserDB) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE reset_token_hash = ? AND reset_expires_at > ?`,
		tokenHash, now,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("reset token", "presented")
		}
		return nil, fmt.Errorf("sqlite: getting user by reset token: %w", err)
	}
	return user, nil
}

// ResetPassword writes the new hash and clears both reset fields in one
// UPDATE. Atomic by construction — there is no state where the password
// changed but the consumed token survived.
func (r *UserDB) ResetPassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, reset_token_hash = NULL, reset_expires_at = NULL, updated_at = ?
		 WHERE id = ?`,
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: resetting password for user %s: %w", id, err)
	}
	return rowsAffectedOrNotFound(result, "user", id)
}

// scanUser reads a user row. Works for both QueryRow results and rows
// from an iterator via the scanner interface.
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var role string
	var resetHash sql.NullString
	var resetExpires sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&role,
		&u.PasswordHash,
		&resetHash,
		&resetExpires,
		&u.Location.FormattedAddress,
		&u.Location.City,
		&u.Location.State,
		&u.Location.ZipCode,
		&u.Location.Country,
		&u.Location.Longitude,
		&u.Location.Latitude,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	if resetHash.Valid && resetExpires.Valid {
		u.ResetTokenHash = &resetHash.String
		u.ResetExpiresAt = &resetExpires.Time
	}
	return &u, nil
}

// rowsAffectedOrNotFound translates a zero-row UPDATE/DELETE into the
// domain NotFound error.
func rowsAffectedOrNotFound(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
