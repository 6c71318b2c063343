// Package devseed populates a development database with suppliers and a few
// sample jobs so the API has data to serve right after a fresh migration.
// It is only invoked in dev mode and every step is idempotent.
package devseed

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Jobs      *service.JobService
	Suppliers *service.SupplierService
}

// seedActor is the identity recorded in the audit trail for seeded rows.
var seedActor = model.Actor{Role: model.RoleAdmin, ID: "devseed"}

// Run executes the development seeding workflow.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")

	failures := seedSuppliers(ctx, svcs.Suppliers, logger)
	if err := seedJobs(ctx, svcs.Jobs, logger); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedSuppliers(ctx context.Context, svc *service.SupplierService, logger *slog.Logger) int {
	failures := 0
	for _, req := range defaultSuppliers() {
		created, err := createSupplier(ctx, svc, req)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create supplier", "name", req.Name, "error", err)
			failures++
			continue
		}
		msg := "supplier already exists"
		if created {
			msg = "created supplier"
		}
		logger.InfoContext(ctx, msg, "name", req.Name)
	}
	return failures
}

func createSupplier(ctx context.Context, svc *service.SupplierService, req *model.CreateSupplierRequest) (bool, error) {
	if _, err := svc.Create(ctx, req); err != nil {
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func defaultSuppliers() []*model.CreateSupplierRequest {
	return []*model.CreateSupplierRequest{
		{
			Name:  "Bosch",
			Email: strptr("orders@bosch-parts.example.com"),
			Phone: strptr("+12125550121"),
		},
		{
			Name:  "Whirlpool",
			Email: strptr("parts@whirlpool.example.com"),
		},
		{
			Name:  "Appliance Parts Direct",
			Email: strptr("sales@apd.example.com"),
			Phone: strptr("+12125550188"),
		},
	}
}

// seedJobs creates sample jobs only when the table is empty, so repeated
// dev starts do not pile up duplicates.
func seedJobs(ctx context.Context, svc *service.JobService, logger *slog.Logger) error {
	existing, err := svc.List(ctx, 1, 0)
	if err != nil {
		return fmt.Errorf("check existing jobs: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "jobs already present, skipping job seed")
		return nil
	}

	for _, req := range defaultJobs() {
		job, _, err := svc.Create(ctx, seedActor, req)
		if err != nil {
			return fmt.Errorf("create job for client %s: %w", req.ClientID, err)
		}
		logger.InfoContext(ctx, "created job", "id", job.ID, "client_id", job.ClientID)
	}
	return nil
}

func defaultJobs() []*model.CreateJobRequest {
	return []*model.CreateJobRequest{
		{
			ClientID:       "client-demo-1",
			ApplianceID:    "appliance-washer-01",
			WarrantyStatus: model.WarrantyInWarranty,
		},
		{
			ClientID:          "client-demo-2",
			ApplianceID:       "appliance-fridge-02",
			WarrantyStatus:    model.WarrantyOutOfWarranty,
			BusinessPartnerID: strptr("partner-demo-1"),
		},
		{
			ClientID:    "client-demo-3",
			ApplianceID: "appliance-oven-03",
		},
	}
}

func strptr(s string) *string { return &s }
