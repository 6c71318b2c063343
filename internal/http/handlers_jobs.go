// Package httpx provides the JSON API surface of the field service system.
package httpx

import (
	"net/http"

	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

// JobHandlers provides HTTP handlers for job lifecycle operations.
type JobHandlers struct {
	Svc *service.JobService
}

// jobResponse pairs a job with the notification fan-out report produced by
// the transition that returned it.
type jobResponse struct {
	Job           *model.Job                `json:"job"`
	Notifications *model.NotificationReport `json:"notifications,omitempty"`
}

// Create handles HTTP requests to open a new job.
func (h *JobHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}

	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, report, err := h.Svc.Create(r.Context(), actor, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, jobResponse{Job: job, Notifications: report})
}

// Transition handles HTTP requests to move a job to a new status.
func (h *JobHandlers) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req model.TransitionJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, report, err := h.Svc.Transition(r.Context(), actor, id, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobResponse{Job: job, Notifications: report})
}

// GetByID handles HTTP requests to fetch a single job.
func (h *JobHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// List handles HTTP requests to list jobs, newest first.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}
