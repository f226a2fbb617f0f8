package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

// workoutFixture wires the three repositories a workout test needs on one
// shared in-memory database, pre-seeded with an owner and two exercises.
type workoutFixture struct {
	workouts  *WorkoutDB
	owner     *model.User
	exercises []*model.Exercise
}

func newWorkoutFixture(t *testing.T) *workoutFixture {
	t.Helper()
	db := newTestDB(t)

	owner := createTestUser(t, db.Users(), "Owner", "owner@example.com")
	e := db.Exercises()
	first := createTestExercise(t, e, "Squat")
	second := createTestExercise(t, e, "Bench Press")

	return &workoutFixture{
		workouts:  db.Workouts(),
		owner:     owner,
		exercises: []*model.Exercise{first, second},
	}
}

func (f *workoutFixture) create(t *testing.T, title string, privacy model.Privacy, exerciseIDs []string) *model.Workout {
	t.Helper()
	workout := &model.Workout{
		OwnerUserID: f.owner.ID,
		Title:       title,
		Privacy:     privacy,
		ExerciseIDs: exerciseIDs,
	}
	if err := f.workouts.Create(context.Background(), workout); err != nil {
		t.Fatalf("failed to create test workout: %v", err)
	}
	return workout
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestWorkoutCreate_PreservesOrderAndDuplicates(t *testing.T) {
	f := newWorkoutFixture(t)
	squat, bench := f.exercises[0].ID, f.exercises[1].ID

	// Same exercise twice, interleaved — stored order must survive.
	created := f.create(t, "Leg Day", model.PrivacyPublic,
		[]string{squat, bench, squat})

	found, err := f.workouts.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	want := []string{squat, bench, squat}
	if len(found.ExerciseIDs) != len(want) {
		t.Fatalf("ExerciseIDs has %d entries, want %d", len(found.ExerciseIDs), len(want))
	}
	for i := range want {
		if found.ExerciseIDs[i] != want[i] {
			t.Errorf("ExerciseIDs[%d] = %q, want %q", i, found.ExerciseIDs[i], want[i])
		}
	}
	if found.Title != "Leg Day" {
		t.Errorf("Title = %q, want %q", found.Title, "Leg Day")
	}
	if found.OwnerUserID != f.owner.ID {
		t.Errorf("OwnerUserID = %q, want %q", found.OwnerUserID, f.owner.ID)
	}
}

func TestWorkoutCreate_UnknownExerciseRejected(t *testing.T) {
	f := newWorkoutFixture(t)

	// The foreign key on workout_exercises catches dangling references,
	// and the transaction rolls the workout row back with them.
	workout := &model.Workout{
		OwnerUserID: f.owner.ID,
		Title:       "Broken",
		Privacy:     model.PrivacyPrivate,
		ExerciseIDs: []string{"no-such-exercise"},
	}
	err := f.workouts.Create(context.Background(), workout)
	if err == nil {
		t.Fatal("Create() should have failed on a dangling exercise reference")
	}

	_, err = f.workouts.GetByID(context.Background(), workout.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after failed Create = %v, want ErrNotFound", err)
	}
}

func TestWorkoutCreate_EmptyExerciseList(t *testing.T) {
	f := newWorkoutFixture(t)

	created := f.create(t, "Rest Day", model.PrivacyPrivate, nil)

	found, err := f.workouts.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(found.ExerciseIDs) != 0 {
		t.Errorf("ExerciseIDs = %v, want empty", found.ExerciseIDs)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestWorkoutListByOwner_IncludesPrivate(t *testing.T) {
	f := newWorkoutFixture(t)
	f.create(t, "Public One", model.PrivacyPublic, nil)
	f.create(t, "Private One", model.PrivacyPrivate, nil)

	listed, err := f.workouts.ListByOwner(context.Background(), f.owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("len(listed) = %d, want 2 (owner sees private workouts)", len(listed))
	}
}

func TestWorkoutListByOwner_EmptyForStranger(t *testing.T) {
	f := newWorkoutFixture(t)
	f.create(t, "Mine", model.PrivacyPublic, nil)

	listed, err := f.workouts.ListByOwner(context.Background(), "someone-else")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("len(listed) = %d, want 0", len(listed))
	}
}

func TestWorkoutListPublic_ExcludesPrivate(t *testing.T) {
	f := newWorkoutFixture(t)
	f.create(t, "Visible", model.PrivacyPublic, []string{f.exercises[0].ID})
	f.create(t, "Hidden", model.PrivacyPrivate, nil)

	listed, err := f.workouts.ListPublic(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("len(listed) = %d, want 1", len(listed))
	}
	if listed[0].Title != "Visible" {
		t.Errorf("Title = %q, want %q", listed[0].Title, "Visible")
	}
	// Exercise lists ride along on list reads too.
	if len(listed[0].ExerciseIDs) != 1 {
		t.Errorf("ExerciseIDs = %v, want one entry", listed[0].ExerciseIDs)
	}
}

func TestWorkoutListPublic_Pagination(t *testing.T) {
	f := newWorkoutFixture(t)
	for i := 0; i < 5; i++ {
		f.create(t, fmt.Sprintf("workout-%d", i), model.PrivacyPublic, nil)
	}

	page, err := f.workouts.ListPublic(context.Background(), repository.ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("len(page) = %d, want 1", len(page))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestWorkoutUpdate_ReplacesExerciseList(t *testing.T) {
	f := newWorkoutFixture(t)
	squat, bench := f.exercises[0].ID, f.exercises[1].ID
	created := f.create(t, "Before", model.PrivacyPublic, []string{squat, squat})

	created.Title = "After"
	created.Privacy = model.PrivacyPrivate
	created.ExerciseIDs = []string{bench}

	if err := f.workouts.Update(context.Background(), created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := f.workouts.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() after Update: %v", err)
	}
	if found.Title != "After" {
		t.Errorf("Title = %q, want %q", found.Title, "After")
	}
	if found.Privacy != model.PrivacyPrivate {
		t.Errorf("Privacy = %q, want %q", found.Privacy, model.PrivacyPrivate)
	}
	if len(found.ExerciseIDs) != 1 || found.ExerciseIDs[0] != bench {
		t.Errorf("ExerciseIDs = %v, want [%s]", found.ExerciseIDs, bench)
	}
	if found.OwnerUserID != f.owner.ID {
		t.Errorf("OwnerUserID = %q, want %q (ownership is immutable)", found.OwnerUserID, f.owner.ID)
	}
}

func TestWorkoutUpdate_NotFound(t *testing.T) {
	f := newWorkoutFixture(t)

	missing := &model.Workout{ID: "nonexistent-id", Title: "Ghost", Privacy: model.PrivacyPublic}
	err := f.workouts.Update(context.Background(), missing)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestWorkoutDelete_CascadesJoinRows(t *testing.T) {
	f := newWorkoutFixture(t)
	created := f.create(t, "Doomed", model.PrivacyPublic, []string{f.exercises[0].ID})

	if err := f.workouts.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := f.workouts.GetByID(context.Background(), created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after Delete = %v, want ErrNotFound", err)
	}

	// ON DELETE CASCADE removed the join rows with the workout.
	var joinRows int
	err = f.workouts.db.conn.QueryRow(
		`SELECT COUNT(*) FROM workout_exercises WHERE workout_id = ?`, created.ID,
	).Scan(&joinRows)
	if err != nil {
		t.Fatalf("counting join rows: %v", err)
	}
	if joinRows != 0 {
		t.Errorf("join rows remaining = %d, want 0", joinRows)
	}
}

func TestWorkoutDelete_NotFound(t *testing.T) {
	f := newWorkoutFixture(t)

	err := f.workouts.Delete(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
