package httpx

import (
	"errors"
	"net/http"

	"github.com/repairhq/fieldservice/internal/core"
)

// AuditHandlers exposes the append-only audit trail for reads.
type AuditHandlers struct {
	Repo core.AuditRepository
}

var errBadAuditKind = errors.New("entity kind must be job or part_order")

// ListByEntity handles HTTP requests to read the audit trail of one entity.
func (h *AuditHandlers) ListByEntity(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if kind != "job" && kind != "part_order" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errBadAuditKind})
		return
	}

	records, err := h.Repo.ListByEntity(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"audit": records})
}
