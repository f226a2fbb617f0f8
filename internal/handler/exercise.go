package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mfaisal/fittrack/internal/service"
)

// ExerciseHandler exposes the exercise catalog endpoints.
type ExerciseHandler struct {
	svc    *service.ExerciseService
	logger *slog.Logger
}

func NewExerciseHandler(svc *service.ExerciseService, logger *slog.Logger) *ExerciseHandler {
	return &ExerciseHandler{svc: svc, logger: logger}
}

// pageRef points at a neighbouring page in a paginated listing.
type pageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// pagination carries next/prev links. A missing field means there is no
// page in that direction.
type pagination struct {
	Next *pageRef `json:"next,omitempty"`
	Prev *pageRef `json:"prev,omitempty"`
}

// listResponse is the success envelope for paginated listings.
type listResponse struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Pagination pagination `json:"pagination"`
	Data       any        `json:"data"`
}

// pageParams reads ?page= and ?limit= with 1-based pages. Out-of-range
// values fall back to the defaults; the service clamps the limit again.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = service.DefaultListLimit
	}
	if limit > service.MaxListLimit {
		limit = service.MaxListLimit
	}
	return page, limit
}

// buildPagination computes the next/prev refs from the page position and
// the total row count.
func buildPagination(page, limit, total int) pagination {
	var p pagination
	if page*limit < total {
		p.Next = &pageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &pageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// exerciseRequest is the JSON body for create and update.
type exerciseRequest struct {
	Name             string   `json:"name"`
	Aliases          []string `json:"aliases"`
	PrimaryMuscles   []string `json:"primaryMuscles"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Force            string   `json:"force"`
	Level            string   `json:"level"`
	Mechanic         string   `json:"mechanic"`
	Equipment        string   `json:"equipment"`
	Category         string   `json:"category"`
	Instructions     []string `json:"instructions"`
	Description      string   `json:"description"`
	Tips             []string `json:"tips"`
	Sets             int      `json:"sets"`
	RepsPerSet       int      `json:"repsPerSet"`
	Weighted         *bool    `json:"weight"`
	WeightPerRep     float64  `json:"weightPerRep"`
	WeightUnits      string   `json:"weightUnits"`
}

func (req *exerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:             req.Name,
		Aliases:          req.Aliases,
		PrimaryMuscles:   req.PrimaryMuscles,
		SecondaryMuscles: req.SecondaryMuscles,
		Force:            req.Force,
		Level:            req.Level,
		Mechanic:         req.Mechanic,
		Equipment:        req.Equipment,
		Category:         req.Category,
		Instructions:     req.Instructions,
		Description:      req.Description,
		Tips:             req.Tips,
		Sets:             req.Sets,
		RepsPerSet:       req.RepsPerSet,
		Weighted:         req.Weighted,
		WeightPerRep:     req.WeightPerRep,
		WeightUnits:      req.WeightUnits,
	}
}

// HandleList returns a page of the catalog.
//
// HTTP: GET /exercises?page=2&limit=10
// Auth: Required
func (h *ExerciseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	exercises, total, err := h.svc.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Success:    true,
		Count:      len(exercises),
		Pagination: buildPagination(page, limit, total),
		Data:       exercises,
	})
}

// HandleCreate adds a catalog entry owned by the requester.
//
// HTTP: POST /exercises
// Auth: Required
func (h *ExerciseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	exercise, err := h.svc.Create(r.Context(), identity, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, exercise)
}

// HandleGet returns a single catalog entry.
//
// HTTP: GET /exercises/{id}
// Auth: Required
func (h *ExerciseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	exercise, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, exercise)
}

// HandleUpdate modifies a catalog entry (owner or admin).
//
// HTTP: PUT /exercises/{id}
// Auth: Required
func (h *ExerciseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	exercise, err := h.svc.Update(r.Context(), identity, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, exercise)
}

// HandleDelete removes a catalog entry (owner or admin).
//
// HTTP: DELETE /exercises/{id}
// Auth: Required
func (h *ExerciseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
