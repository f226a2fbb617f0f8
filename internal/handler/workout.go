package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/service"
)

// WorkoutHandler exposes the workout endpoints.
type WorkoutHandler struct {
	svc    *service.WorkoutService
	logger *slog.Logger
}

func NewWorkoutHandler(svc *service.WorkoutService, logger *slog.Logger) *WorkoutHandler {
	return &WorkoutHandler{svc: svc, logger: logger}
}

// workoutRequest is the JSON body for create and update.
type workoutRequest struct {
	Title       string   `json:"title"`
	Privacy     string   `json:"privacy"`
	ExerciseIDs []string `json:"exercises"`
}

func (req *workoutRequest) toInput() service.WorkoutInput {
	return service.WorkoutInput{
		Title:       req.Title,
		Privacy:     model.Privacy(req.Privacy),
		ExerciseIDs: req.ExerciseIDs,
	}
}

// HandleListOwn returns every workout the requester owns, private ones
// included.
//
// HTTP: GET /workouts
// Auth: Required
func (h *WorkoutHandler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	workouts, err := h.svc.ListOwn(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, workouts)
}

// HandleListPublic returns a page of public workouts — the shared feed.
//
// HTTP: GET /workouts/public?page=1&limit=10
// Auth: Required
func (h *WorkoutHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	workouts, err := h.svc.ListPublic(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, workouts)
}

// HandleCreate saves a new workout owned by the requester.
//
// HTTP: POST /workouts
// Auth: Required
func (h *WorkoutHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	workout, err := h.svc.Create(r.Context(), identity, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, workout)
}

// HandleGet returns a single workout.
//
// HTTP: GET /workouts/{id}
// Auth: Required
func (h *WorkoutHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	workout, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, workout)
}

// HandleUpdate modifies a workout (owner or admin).
//
// HTTP: PUT /workouts/{id}
// Auth: Required
func (h *WorkoutHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	workout, err := h.svc.Update(r.Context(), identity, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, workout)
}

// HandleDelete removes a workout (owner or admin).
//
// HTTP: DELETE /workouts/{id}
// Auth: Required
func (h *WorkoutHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{})
}
