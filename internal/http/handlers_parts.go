package httpx

import (
	"net/http"

	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

// PartOrderHandlers provides HTTP handlers for spare-part order operations.
type PartOrderHandlers struct {
	Svc *service.PartOrderService
}

type partOrderResponse struct {
	PartOrder     *model.PartOrder          `json:"part_order"`
	Notifications *model.NotificationReport `json:"notifications,omitempty"`
}

// Create handles HTTP requests to register a part request against a job.
func (h *PartOrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}

	var req model.CreatePartOrderRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	order, report, err := h.Svc.Create(r.Context(), actor, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, partOrderResponse{PartOrder: order, Notifications: report})
}

// Transition handles HTTP requests to move a part order to a new status.
func (h *PartOrderHandlers) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req model.TransitionPartOrderRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	order, report, err := h.Svc.Transition(r.Context(), actor, id, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, partOrderResponse{PartOrder: order, Notifications: report})
}

// GetByID handles HTTP requests to fetch a single part order.
func (h *PartOrderHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

// ListByService handles HTTP requests to list all part orders linked to a job.
func (h *PartOrderHandlers) ListByService(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Svc.ListByService(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"part_orders": orders})
}
