// Package service — exercise catalog business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/auth"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100

	defaultSets         = 3
	defaultRepsPerSet   = 10
	defaultWeightPerRep = 45
	defaultWeightUnits  = "lbs"
)

// ExerciseService handles business logic for the exercise catalog.
//
// OWNERSHIP MODEL:
// Reads require a session, nothing more. Mutations require the requester
// to be the row's owner, or an admin. Seeded catalog rows have no owner
// at all — only admins can touch those.
type ExerciseService struct {
	repo   repository.ExerciseRepository
	logger *slog.Logger
}

func NewExerciseService(repo repository.ExerciseRepository, logger *slog.Logger) *ExerciseService {
	return &ExerciseService{
		repo:   repo,
		logger: logger,
	}
}

// ExerciseInput carries the mutable exercise fields from a create or
// update request. Classification fields are validated against the closed
// enum sets; an unknown value is a 400, never silently stored.
type ExerciseInput struct {
	Name             string
	Aliases          []string
	PrimaryMuscles   []string
	SecondaryMuscles []string
	Force            string
	Level            string
	Mechanic         string
	Equipment        string
	Category         string
	Instructions     []string
	Description      string
	Tips             []string
	Sets             int
	RepsPerSet       int
	Weighted         *bool
	WeightPerRep     float64
	WeightUnits      string
}

// Create validates and saves a new catalog entry owned by the requester.
func (s *ExerciseService) Create(ctx context.Context, requester auth.Identity, in ExerciseInput) (*model.Exercise, error) {
	if err := validateExerciseInput(&in); err != nil {
		return nil, err
	}

	// Unset numeric fields fall back to the conventional defaults:
	// 3 sets of 10, a 45 lbs bar.
	if in.Sets == 0 {
		in.Sets = defaultSets
	}
	if in.RepsPerSet == 0 {
		in.RepsPerSet = defaultRepsPerSet
	}
	weighted := true
	if in.Weighted != nil {
		weighted = *in.Weighted
	}
	if in.WeightPerRep == 0 {
		in.WeightPerRep = defaultWeightPerRep
	}
	if in.WeightUnits == "" {
		in.WeightUnits = defaultWeightUnits
	}

	exercise := &model.Exercise{
		Name:             in.Name,
		Aliases:          in.Aliases,
		PrimaryMuscles:   in.PrimaryMuscles,
		SecondaryMuscles: in.SecondaryMuscles,
		Force:            in.Force,
		Level:            in.Level,
		Mechanic:         in.Mechanic,
		Equipment:        in.Equipment,
		Category:         in.Category,
		Instructions:     in.Instructions,
		Description:      strings.TrimSpace(in.Description),
		Tips:             in.Tips,
		Sets:             in.Sets,
		RepsPerSet:       in.RepsPerSet,
		Weighted:         weighted,
		WeightPerRep:     in.WeightPerRep,
		WeightUnits:      in.WeightUnits,
		OwnerUserID:      requester.UserID,
	}

	if err := s.repo.Create(ctx, exercise); err != nil {
		s.logger.Error("failed to create exercise",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating exercise: %w", err)
	}

	s.logger.Info("exercise created",
		slog.String("id", exercise.ID),
		slog.String("owner", requester.UserID),
	)
	return exercise, nil
}

// GetByID retrieves a catalog entry.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *ExerciseService) GetByID(ctx context.Context, id string) (*model.Exercise, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "exercise ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves a page of the catalog plus the total count for the
// pagination envelope. Limit is clamped to 1-100, default 10.
func (s *ExerciseService) List(ctx context.Context, limit, offset int) ([]model.Exercise, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	exercises, total, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list exercises", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing exercises: %w", err)
	}
	return exercises, total, nil
}

// Update modifies a catalog entry. NotFound is reported before the
// ownership check — probing IDs through this endpoint learns nothing
// that GET would not reveal.
func (s *ExerciseService) Update(ctx context.Context, requester auth.Identity, id string, in ExerciseInput) (*model.Exercise, error) {
	exercise, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(requester, exercise.OwnerUserID); err != nil {
		return nil, err
	}
	if err := validateExerciseInput(&in); err != nil {
		return nil, err
	}

	exercise.Name = in.Name
	exercise.Aliases = in.Aliases
	exercise.PrimaryMuscles = in.PrimaryMuscles
	exercise.SecondaryMuscles = in.SecondaryMuscles
	exercise.Force = in.Force
	exercise.Level = in.Level
	exercise.Mechanic = in.Mechanic
	exercise.Equipment = in.Equipment
	exercise.Category = in.Category
	exercise.Instructions = in.Instructions
	exercise.Description = strings.TrimSpace(in.Description)
	exercise.Tips = in.Tips
	if in.Sets != 0 {
		exercise.Sets = in.Sets
	}
	if in.RepsPerSet != 0 {
		exercise.RepsPerSet = in.RepsPerSet
	}
	if in.Weighted != nil {
		exercise.Weighted = *in.Weighted
	}
	if in.WeightPerRep != 0 {
		exercise.WeightPerRep = in.WeightPerRep
	}
	if in.WeightUnits != "" {
		exercise.WeightUnits = in.WeightUnits
	}

	if err := s.repo.Update(ctx, exercise); err != nil {
		s.logger.Error("failed to update exercise",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating exercise: %w", err)
	}

	s.logger.Info("exercise updated", slog.String("id", id))
	return exercise, nil
}

// Delete removes a catalog entry, subject to the same ownership rule as
// Update.
func (s *ExerciseService) Delete(ctx context.Context, requester auth.Identity, id string) error {
	exercise, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(requester, exercise.OwnerUserID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("exercise deleted", slog.String("id", id))
	return nil
}

// authorizeOwner enforces the mutation rule shared by exercises and
// workouts: the requester must own the row or hold the admin role. An
// empty ownerID means a seeded row, which only admins may mutate.
func authorizeOwner(requester auth.Identity, ownerID string) error {
	if requester.Role == string(model.RoleAdmin) {
		return nil
	}
	if ownerID != "" && ownerID == requester.UserID {
		return nil
	}
	return apperror.Forbidden("you do not have permission to modify this resource")
}

// validateExerciseInput applies the shared create/update rules: required
// fields and membership in the closed classification sets.
func validateExerciseInput(in *ExerciseInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperror.ValidationFailed("name", "exercise name is required")
	}
	if in.Category == "" {
		return apperror.ValidationFailed("category", "exercise category is required")
	}
	if !model.Categories[in.Category] {
		return apperror.ValidationFailed("category", "unknown exercise category")
	}
	if len(in.Instructions) == 0 {
		return apperror.ValidationFailed("instructions", "at least one instruction step is required")
	}

	for _, m := range in.PrimaryMuscles {
		if !model.Muscles[m] {
			return apperror.ValidationFailed("primaryMuscles", "unknown muscle: "+m)
		}
	}
	for _, m := range in.SecondaryMuscles {
		if !model.Muscles[m] {
			return apperror.ValidationFailed("secondaryMuscles", "unknown muscle: "+m)
		}
	}
	if in.Force != "" && !model.Forces[in.Force] {
		return apperror.ValidationFailed("force", "force must be pull, push, or static")
	}
	if in.Level != "" && !model.Levels[in.Level] {
		return apperror.ValidationFailed("level", "level must be beginner, intermediate, or expert")
	}
	if in.Mechanic != "" && !model.Mechanics[in.Mechanic] {
		return apperror.ValidationFailed("mechanic", "mechanic must be compound or isolation")
	}
	if in.Equipment != "" && !model.Equipment[in.Equipment] {
		return apperror.ValidationFailed("equipment", "unknown equipment type")
	}
	if in.WeightUnits != "" && !model.WeightUnits[in.WeightUnits] {
		return apperror.ValidationFailed("weightUnits", "weight units must be lbs or kgs")
	}
	if in.Sets < 0 || in.RepsPerSet < 0 || in.WeightPerRep < 0 {
		return apperror.ValidationFailed("sets", "sets, reps, and weight cannot be negative")
	}
	return nil
}
