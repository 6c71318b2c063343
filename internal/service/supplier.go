package service

import (
	"context"
	"log/slog"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/domain/model"
)

// SupplierService maintains the supplier routing table.
type SupplierService struct {
	suppliers core.SupplierRepository
	logger    *slog.Logger
}

// SupplierServiceOptions configures a SupplierService.
type SupplierServiceOptions struct {
	Suppliers core.SupplierRepository
	Logger    *slog.Logger
}

// NewSupplierService creates a supplier service.
func NewSupplierService(opts SupplierServiceOptions) *SupplierService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SupplierService{
		suppliers: opts.Suppliers,
		logger:    logger.With("component", "supplier_service"),
	}
}

// Create registers a supplier.
func (s *SupplierService) Create(ctx context.Context, req *model.CreateSupplierRequest) (*model.Supplier, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.suppliers.Create(ctx, req)
}

// List returns all suppliers ordered by name.
func (s *SupplierService) List(ctx context.Context) ([]*model.Supplier, error) {
	return s.suppliers.List(ctx)
}
