// Package service — workout business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/auth"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

const MaxWorkoutTitleLength = 100

// WorkoutService handles business logic for workouts.
//
// A workout is an ordered list of references into the exercise catalog,
// owned by exactly one user. Ownership never changes; mutations follow
// the same owner-or-admin rule as exercises. Concurrent updates are
// last-write-wins; there is no version column.
type WorkoutService struct {
	repo      repository.WorkoutRepository
	exercises repository.ExerciseRepository
	logger    *slog.Logger
}

func NewWorkoutService(repo repository.WorkoutRepository, exercises repository.ExerciseRepository, logger *slog.Logger) *WorkoutService {
	return &WorkoutService{
		repo:      repo,
		exercises: exercises,
		logger:    logger,
	}
}

// WorkoutInput carries the mutable workout fields from a create or
// update request.
type WorkoutInput struct {
	Title       string
	Privacy     model.Privacy
	ExerciseIDs []string
}

// Create validates and saves a new workout owned by the requester.
//
// Every exercise reference must point at an existing catalog entry —
// a dangling ID is rejected up front rather than left for the foreign
// key to trip over, so the caller gets told WHICH reference is bad.
func (s *WorkoutService) Create(ctx context.Context, requester auth.Identity, in WorkoutInput) (*model.Workout, error) {
	if err := s.validateInput(ctx, &in); err != nil {
		return nil, err
	}

	workout := &model.Workout{
		OwnerUserID: requester.UserID,
		Title:       in.Title,
		Privacy:     in.Privacy,
		ExerciseIDs: in.ExerciseIDs,
	}
	if err := s.repo.Create(ctx, workout); err != nil {
		s.logger.Error("failed to create workout",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating workout: %w", err)
	}

	s.logger.Info("workout created",
		slog.String("id", workout.ID),
		slog.String("owner", requester.UserID),
	)
	return workout, nil
}

// GetByID retrieves a single workout.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *WorkoutService) GetByID(ctx context.Context, id string) (*model.Workout, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "workout ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ListOwn returns every workout the requester owns, private ones
// included.
func (s *WorkoutService) ListOwn(ctx context.Context, requester auth.Identity) ([]model.Workout, error) {
	workouts, err := s.repo.ListByOwner(ctx, requester.UserID)
	if err != nil {
		s.logger.Error("failed to list workouts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	return workouts, nil
}

// ListPublic returns a page of public workouts — the shared browse
// feed. Limit clamps to 1-100, default 10.
func (s *WorkoutService) ListPublic(ctx context.Context, limit, offset int) ([]model.Workout, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	workouts, err := s.repo.ListPublic(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list public workouts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public workouts: %w", err)
	}
	return workouts, nil
}

// Update replaces the title, privacy, and exercise list. NotFound is
// reported before the ownership check. Concurrent updates to the same
// workout are last-write-wins.
func (s *WorkoutService) Update(ctx context.Context, requester auth.Identity, id string, in WorkoutInput) (*model.Workout, error) {
	workout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(requester, workout.OwnerUserID); err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, &in); err != nil {
		return nil, err
	}

	workout.Title = in.Title
	workout.Privacy = in.Privacy
	workout.ExerciseIDs = in.ExerciseIDs

	if err := s.repo.Update(ctx, workout); err != nil {
		s.logger.Error("failed to update workout",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating workout: %w", err)
	}

	s.logger.Info("workout updated", slog.String("id", id))
	return workout, nil
}

// Delete removes a workout, subject to the owner-or-admin rule.
func (s *WorkoutService) Delete(ctx context.Context, requester auth.Identity, id string) error {
	workout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(requester, workout.OwnerUserID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("workout deleted", slog.String("id", id))
	return nil
}

// validateInput applies the shared create/update rules, including the
// existence check on every exercise reference. Order and duplicates in
// ExerciseIDs are preserved as given — a movement repeated twice in a
// session is legitimate.
func (s *WorkoutService) validateInput(ctx context.Context, in *WorkoutInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperror.ValidationFailed("title", "workout title is required")
	}
	if len(in.Title) > MaxWorkoutTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("workout title must be %d characters or less", MaxWorkoutTitleLength))
	}
	if in.Privacy == "" {
		in.Privacy = model.PrivacyPublic
	}
	if !model.ValidPrivacy(in.Privacy) {
		return apperror.ValidationFailed("privacy", "privacy must be public or private")
	}

	// Each distinct reference is checked once even when it appears
	// multiple times in the list.
	checked := make(map[string]bool, len(in.ExerciseIDs))
	for _, exerciseID := range in.ExerciseIDs {
		if exerciseID == "" {
			return apperror.ValidationFailed("exercises", "exercise ID cannot be empty")
		}
		if checked[exerciseID] {
			continue
		}
		if _, err := s.exercises.GetByID(ctx, exerciseID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.InvalidReference("exercise", exerciseID)
			}
			return fmt.Errorf("checking exercise reference %s: %w", exerciseID, err)
		}
		checked[exerciseID] = true
	}
	return nil
}
