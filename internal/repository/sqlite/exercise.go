package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

// compile-time check that *ExerciseDB implements repository.ExerciseRepository
var _ repository.ExerciseRepository = (*ExerciseDB)(nil)

const exerciseColumns = `id, name, aliases, primary_muscles, secondary_muscles,
	force, level, mechanic, equipment, category, instructions, description, tips,
	sets, reps_per_set, weighted, weight_per_rep, weight_units,
	owner_user_id, created_at, updated_at`

// Create inserts a new exercise catalog entry.
func (r *ExerciseDB) Create(ctx context.Context, exercise *model.Exercise) error {
	exercise.ID = xid.New().String()

	now := time.Now()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exercise.ID,
		exercise.Name,
		marshalList(exercise.Aliases),
		marshalList(exercise.PrimaryMuscles),
		marshalList(exercise.SecondaryMuscles),
		exercise.Force,
		exercise.Level,
		exercise.Mechanic,
		exercise.Equipment,
		exercise.Category,
		marshalList(exercise.Instructions),
		exercise.Description,
		marshalList(exercise.Tips),
		exercise.Sets,
		exercise.RepsPerSet,
		exercise.Weighted,
		exercise.WeightPerRep,
		exercise.WeightUnits,
		nullString(exercise.OwnerUserID),
		exercise.CreatedAt,
		exercise.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating exercise: %w", err)
	}

	return nil
}

// GetByID retrieves a single exercise.
// Returns apperror.ErrNotFound if absent.
func (r *ExerciseDB) GetByID(ctx context.Context, id string) (*model.Exercise, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)

	exercise, err := scanExercise(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("exercise", id)
		}
		return nil, fmt.Errorf("sqlite: getting exercise %s: %w", id, err)
	}
	return exercise, nil
}

// List returns a page of exercises and the total row count so handlers
// can build the next/prev pagination envelope.
func (r *ExerciseDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Exercise, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercises`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting exercises: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]model.Exercise, 0, limit)
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning exercise row: %w", err)
		}
		exercises = append(exercises, *exercise)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating exercises: %w", err)
	}

	return exercises, total, nil
}

// Update modifies an existing exercise. ID, owner, and created_at stay
// immutable.
func (r *ExerciseDB) Update(ctx context.Context, exercise *model.Exercise) error {
	exercise.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE exercises
		 SET name = ?, aliases = ?, primary_muscles = ?, secondary_muscles = ?,
		     force = ?, level = ?, mechanic = ?, equipment = ?, category = ?,
		     instructions = ?, description = ?, tips = ?,
		     sets = ?, reps_per_set = ?, weighted = ?, weight_per_rep = ?, weight_units = ?,
		     updated_at = ?
		 WHERE id = ?`,
		exercise.Name,
		marshalList(exercise.Aliases),
		marshalList(exercise.PrimaryMuscles),
		marshalList(exercise.SecondaryMuscles),
		exercise.Force,
		exercise.Level,
		exercise.Mechanic,
		exercise.Equipment,
		exercise.Category,
		marshalList(exercise.Instructions),
		exercise.Description,
		marshalList(exercise.Tips),
		exercise.Sets,
		exercise.RepsPerSet,
		exercise.Weighted,
		exercise.WeightPerRep,
		exercise.WeightUnits,
		exercise.UpdatedAt,
		exercise.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating exercise %s: %w", exercise.ID, err)
	}
	return rowsAffectedOrNotFound(result, "exercise", exercise.ID)
}

// Delete removes an exercise by ID.
func (r *ExerciseDB) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting exercise %s: %w", id, err)
	}
	return rowsAffectedOrNotFound(result, "exercise", id)
}

func scanExercise(row interface{ Scan(...any) error }) (*model.Exercise, error) {
	var e model.Exercise
	var aliases, primary, secondary, instructions, tips string
	var owner sql.NullString

	err := row.Scan(
		&e.ID,
		&e.Name,
		&aliases,
		&primary,
		&secondary,
		&e.Force,
		&e.Level,
		&e.Mechanic,
		&e.Equipment,
		&e.Category,
		&instructions,
		&e.Description,
		&tips,
		&e.Sets,
		&e.RepsPerSet,
		&e.Weighted,
		&e.WeightPerRep,
		&e.WeightUnits,
		&owner,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Aliases = unmarshalList(aliases)
	e.PrimaryMuscles = unmarshalList(primary)
	e.SecondaryMuscles = unmarshalList(secondary)
	e.Instructions = unmarshalList(instructions)
	e.Tips = unmarshalList(tips)
	e.OwnerUserID = owner.String
	return &e, nil
}

// marshalList encodes a string slice as a JSON column value.
// A nil slice becomes "[]" so the NOT NULL default holds.
func marshalList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		// Marshalling []string cannot fail; keep the column well-formed anyway.
		return "[]"
	}
	return string(encoded)
}

func unmarshalList(encoded string) []string {
	if encoded == "" || encoded == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil
	}
	return values
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
