package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// SupplierRouter resolves the supplier a part order should be sent to.
// Resolution order: brand-group override, exact case-insensitive name match,
// token-overlap partial match. An unresolved route is not an error; the
// caller logs it and carries on.
type SupplierRouter struct {
	suppliers          core.SupplierRepository
	brandGroup         map[string]struct{}
	brandGroupSupplier string
	logger             *slog.Logger
}

// SupplierRouterOptions configures a SupplierRouter.
type SupplierRouterOptions struct {
	Suppliers core.SupplierRepository
	// BrandGroupManufacturers always route to BrandGroupSupplier, regardless
	// of what the order's supplier name says.
	BrandGroupManufacturers []string
	BrandGroupSupplier      string
	Logger                  *slog.Logger
}

// NewSupplierRouter creates a supplier router.
func NewSupplierRouter(opts SupplierRouterOptions) *SupplierRouter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	group := make(map[string]struct{}, len(opts.BrandGroupManufacturers))
	for _, m := range opts.BrandGroupManufacturers {
		group[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &SupplierRouter{
		suppliers:          opts.Suppliers,
		brandGroup:         group,
		brandGroupSupplier: opts.BrandGroupSupplier,
		logger:             logger.With("component", "supplier_router"),
	}
}

// Resolve returns the supplier for a part order, or nil when routing is
// unresolved. Unresolved routing is reported as (nil, nil); errors are
// reserved for repository failures.
func (r *SupplierRouter) Resolve(ctx context.Context, part *model.PartOrder) (*model.Supplier, error) {
	if part.Manufacturer != nil {
		if _, ok := r.brandGroup[strings.ToLower(strings.TrimSpace(*part.Manufacturer))]; ok {
			supplier, err := r.suppliers.GetByName(ctx, r.brandGroupSupplier)
			if err == nil && supplier != nil {
				return supplier, nil
			}
			r.logger.WarnContext(ctx, "brand group supplier missing from supplier table",
				"manufacturer", *part.Manufacturer, "supplier", r.brandGroupSupplier, "err", err)
		}
	}

	name := ""
	if part.SupplierName != nil {
		name = strings.TrimSpace(*part.SupplierName)
	}
	if name == "" && part.Manufacturer != nil {
		name = strings.TrimSpace(*part.Manufacturer)
	}
	if name == "" {
		return nil, nil
	}

	supplier, err := r.suppliers.GetByName(ctx, name)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if supplier != nil {
		return supplier, nil
	}

	all, err := r.suppliers.List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := tokenize(name)
	for _, candidate := range all {
		if tokensOverlap(wanted, tokenize(candidate.Name)) {
			return candidate, nil
		}
	}
	return nil, nil
}

// tokenize lowercases a name and splits it on non-alphanumeric runes.
func tokenize(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// tokensOverlap reports whether any token of one name contains, or is
// contained by, any token of the other.
func tokensOverlap(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				return true
			}
		}
	}
	return false
}
