package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/repairhq/fieldservice/internal/data/pgxutil"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

const supplierColumns = `id, name, email, phone, created_at`

// SupplierRepo provides database operations for the supplier routing table.
// The table is read-mostly; the router loads it per resolution and relies on
// Postgres snapshot reads for consistency under concurrent updates.
type SupplierRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSupplierRepo creates a new SupplierRepo.
func NewSupplierRepo(db *sql.DB) *SupplierRepo {
	return &SupplierRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Create registers a new supplier.
func (r *SupplierRepo) Create(
	ctx context.Context,
	req *model.CreateSupplierRequest,
) (*model.Supplier, error) {
	if req == nil {
		return nil, errors.New("create supplier request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var supplier model.Supplier
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO suppliers (id, name, email, phone, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+supplierColumns,
			uuid.NewString(), req.Name, req.Email, req.Phone, r.timeProvider.Now())
		if err != nil {
			return err
		}
		defer rows.Close()
		supplier, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Supplier])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", apperrors.MapDBError(err))
	}

	return &supplier, nil
}

// GetByName retrieves a supplier by exact, case-insensitive name.
func (r *SupplierRepo) GetByName(ctx context.Context, name string) (*model.Supplier, error) {
	var supplier model.Supplier
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+supplierColumns+` FROM suppliers WHERE lower(name) = lower($1)`, name)
		if err != nil {
			return err
		}
		defer rows.Close()
		supplier, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Supplier])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("supplier %q not found", name)
		}
		return nil, fmt.Errorf("get supplier: %w", apperrors.MapDBError(err))
	}

	return &supplier, nil
}

// List retrieves all suppliers ordered by name.
func (r *SupplierRepo) List(ctx context.Context) ([]*model.Supplier, error) {
	var suppliers []*model.Supplier
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		slice, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Supplier])
		if err != nil {
			return err
		}
		suppliers = make([]*model.Supplier, len(slice))
		for i := range slice {
			suppliers[i] = &slice[i]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", apperrors.MapDBError(err))
	}

	return suppliers, nil
}
