package httpx

import (
	"log/slog"
	"net/http"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs      *service.JobService
	Parts     *service.PartOrderService
	Suppliers *service.SupplierService
	Audit     core.AuditRepository
	Logger    *slog.Logger
}

// NewRouter creates and configures the API router. The middleware chain is
// recover outermost, then request logging, then actor extraction.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	registerJobRoutes(mux, &JobHandlers{Svc: services.Jobs})
	registerPartRoutes(mux, &PartOrderHandlers{Svc: services.Parts})
	registerSupplierRoutes(mux, &SupplierHandlers{Svc: services.Suppliers})
	registerAuditRoutes(mux, &AuditHandlers{Repo: services.Audit})
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	handler := WithActor()(mux)
	handler = Logging(logger.With("component", "http"))(handler)
	return Recover(logger.With("component", "http"))(handler)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/jobs", h.Create)
	mux.HandleFunc("GET /api/jobs", h.List)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetByID)
	mux.HandleFunc("POST /api/jobs/{id}/transition", h.Transition)
}

func registerPartRoutes(mux *http.ServeMux, h *PartOrderHandlers) {
	mux.HandleFunc("POST /api/part-orders", h.Create)
	mux.HandleFunc("GET /api/part-orders/{id}", h.GetByID)
	mux.HandleFunc("POST /api/part-orders/{id}/transition", h.Transition)
	mux.HandleFunc("GET /api/jobs/{id}/part-orders", h.ListByService)
}

func registerSupplierRoutes(mux *http.ServeMux, h *SupplierHandlers) {
	mux.HandleFunc("POST /api/suppliers", h.Create)
	mux.HandleFunc("GET /api/suppliers", h.List)
}

func registerAuditRoutes(mux *http.ServeMux, h *AuditHandlers) {
	mux.HandleFunc("GET /api/audit/{kind}/{id}", h.ListByEntity)
}
