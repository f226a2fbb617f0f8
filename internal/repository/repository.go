// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/mfaisal/fittrack/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists identity records. Password material arrives
// pre-hashed — the repository never sees a raw password.
type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict when the
	// email is already taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateDetails changes name and email only. Role and password are
	// unreachable through this path.
	UpdateDetails(ctx context.Context, id, name, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// SetResetToken records a pending reset: hash and expiry together.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// ClearResetToken removes a pending reset without touching the password.
	ClearResetToken(ctx context.Context, id string) error
	// GetByResetTokenHash finds the user holding the given reset hash,
	// provided the reset has not expired as of now.
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	// ResetPassword replaces the password hash and clears both reset
	// fields in a single statement, so a crash can't leave a consumed
	// token behind.
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *model.Exercise) error
	GetByID(ctx context.Context, id string) (*model.Exercise, error)
	// List returns a page of exercises plus the total count, newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Exercise, int, error)
	Update(ctx context.Context, exercise *model.Exercise) error
	Delete(ctx context.Context, id string) error
}

type WorkoutRepository interface {
	Create(ctx context.Context, workout *model.Workout) error
	GetByID(ctx context.Context, id string) (*model.Workout, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Workout, error)
	// ListPublic returns public workouts only, newest first.
	ListPublic(ctx context.Context, opts ListOptions) ([]model.Workout, error)
	Update(ctx context.Context, workout *model.Workout) error
	Delete(ctx context.Context, id string) error
}
