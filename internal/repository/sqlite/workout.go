package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

// compile-time check that *WorkoutDB implements repository.WorkoutRepository
var _ repository.WorkoutRepository = (*WorkoutDB)(nil)

// Create inserts a workout and its ordered exercise references in
// one transaction. Position in workout_exercises preserves the caller's
// ordering and allows the same exercise id to appear more than once.
func (r *WorkoutDB) Create(ctx context.Context, workout *model.Workout) error {
	workout.ID = xid.New().String()

	now := time.Now()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workouts (id, owner_user_id, title, privacy, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		workout.ID,
		workout.OwnerUserID,
		workout.Title,
		string(workout.Privacy),
		workout.CreatedAt,
		workout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating workout: %w", err)
	}

	if err := insertWorkoutExercises(ctx, tx, workout.ID, workout.ExerciseIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing workout: %w", err)
	}
	return nil
}

// GetByID retrieves a workout with its exercise ids in stored order.
func (r *WorkoutDB) GetByID(ctx context.Context, id string) (*model.Workout, error) {
	var w model.Workout
	var privacy string

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, owner_user_id, title, privacy, created_at, updated_at
		 FROM workouts WHERE id = ?`,
		id,
	).Scan(&w.ID, &w.OwnerUserID, &w.Title, &privacy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("workout", id)
		}
		return nil, fmt.Errorf("sqlite: getting workout %s: %w", id, err)
	}
	w.Privacy = model.Privacy(privacy)

	exerciseIDs, err := r.workoutExerciseIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	w.ExerciseIDs = exerciseIDs

	return &w, nil
}

// ListByOwner returns every workout owned by the given user,
// public and private alike, newest first.
func (r *WorkoutDB) ListByOwner(ctx context.Context, ownerID string) ([]model.Workout, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, owner_user_id, title, privacy, created_at, updated_at
		 FROM workouts
		 WHERE owner_user_id = ?
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing workouts for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return r.collectWorkouts(ctx, rows)
}

// ListPublic returns a page of public workouts, newest first.
func (r *WorkoutDB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.Workout, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, owner_user_id, title, privacy, created_at, updated_at
		 FROM workouts
		 WHERE privacy = 'public'
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing public workouts: %w", err)
	}
	defer rows.Close()

	return r.collectWorkouts(ctx, rows)
}

// Update rewrites the title, privacy, and exercise list. The
// owner column is never touched — ownership is immutable. The exercise
// rows are replaced wholesale inside the same transaction, so a reader
// never observes a half-rewritten list. Concurrent updates to the same
// workout are last-write-wins; no version column exists.
func (r *WorkoutDB) Update(ctx context.Context, workout *model.Workout) error {
	workout.UpdatedAt = time.Now()

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE workouts SET title = ?, privacy = ?, updated_at = ? WHERE id = ?`,
		workout.Title,
		string(workout.Privacy),
		workout.UpdatedAt,
		workout.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating workout %s: %w", workout.ID, err)
	}
	if err := rowsAffectedOrNotFound(result, "workout", workout.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM workout_exercises WHERE workout_id = ?`, workout.ID); err != nil {
		return fmt.Errorf("sqlite: clearing workout exercises: %w", err)
	}
	if err := insertWorkoutExercises(ctx, tx, workout.ID, workout.ExerciseIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing workout update: %w", err)
	}
	return nil
}

// Delete removes a workout; the join rows go with it via
// ON DELETE CASCADE.
func (r *WorkoutDB) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting workout %s: %w", id, err)
	}
	return rowsAffectedOrNotFound(result, "workout", id)
}

func (r *WorkoutDB) workoutExerciseIDs(ctx context.Context, workoutID string) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT exercise_id FROM workout_exercises
		 WHERE workout_id = ?
		 ORDER BY position`,
		workoutID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading workout exercises: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning workout exercise: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating workout exercises: %w", err)
	}
	return ids, nil
}

func (r *WorkoutDB) collectWorkouts(ctx context.Context, rows *sql.Rows) ([]model.Workout, error) {
	workouts := []model.Workout{}
	for rows.Next() {
		var w model.Workout
		var privacy string
		if err := rows.Scan(&w.ID, &w.OwnerUserID, &w.Title, &privacy, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning workout row: %w", err)
		}
		w.Privacy = model.Privacy(privacy)
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating workouts: %w", err)
	}

	// Second pass for the exercise lists — must happen after the outer
	// rows are drained so the connection is free.
	for i := range workouts {
		ids, err := r.workoutExerciseIDs(ctx, workouts[i].ID)
		if err != nil {
			return nil, err
		}
		workouts[i].ExerciseIDs = ids
	}
	return workouts, nil
}

func insertWorkoutExercises(ctx context.Context, tx *sql.Tx, workoutID string, exerciseIDs []string) error {
	for position, exerciseID := range exerciseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workout_exercises (workout_id, position, exercise_id)
			 VALUES (?, ?, ?)`,
			workoutID, position, exerciseID,
		); err != nil {
			return fmt.Errorf("sqlite: inserting workout exercise %s: %w", exerciseID, err)
		}
	}
	return nil
}
