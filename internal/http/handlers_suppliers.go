package httpx

import (
	"net/http"

	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

// SupplierHandlers provides HTTP handlers for the supplier routing table.
// Supplier maintenance is a back-office concern, so both endpoints are
// admin only.
type SupplierHandlers struct {
	Svc *service.SupplierService
}

// Create handles HTTP requests to register a supplier.
func (h *SupplierHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != model.RoleAdmin {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "permission",
			Err:     errAdminOnly,
		})
		return
	}

	var req model.CreateSupplierRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	supplier, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, supplier)
}

// List handles HTTP requests to list all suppliers.
func (h *SupplierHandlers) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := RequireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != model.RoleAdmin {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "permission",
			Err:     errAdminOnly,
		})
		return
	}

	suppliers, err := h.Svc.List(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
}
