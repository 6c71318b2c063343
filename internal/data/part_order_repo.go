package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/data/pgxutil"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

const partOrderColumns = `id, service_id, technician_id, part_name, part_number,
	manufacturer, quantity, urgency, status, supplier_name, order_date,
	expected_delivery, actual_cost, consumed_for_service_id, admin_notes,
	created_at, updated_at`

// PartOrderRepo provides database operations for spare-part orders.
type PartOrderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPartOrderRepo creates a new PartOrderRepo.
func NewPartOrderRepo(db *sql.DB) *PartOrderRepo {
	return &PartOrderRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewPartOrderRepoWithTimeProvider creates a new PartOrderRepo with a custom time provider.
func NewPartOrderRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PartOrderRepo {
	return &PartOrderRepo{DB: db, timeProvider: tp}
}

// Create inserts a new part order in status requested.
func (r *PartOrderRepo) Create(
	ctx context.Context,
	req *model.CreatePartOrderRequest,
) (*model.PartOrder, error) {
	if req == nil {
		return nil, errors.New("create part order request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	var order model.PartOrder
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO part_orders (
				id, service_id, technician_id, part_name, part_number, manufacturer,
				quantity, urgency, status, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			RETURNING `+partOrderColumns,
			uuid.NewString(), req.ServiceID, req.TechnicianID, req.PartName,
			req.PartNumber, req.Manufacturer, req.Quantity, req.Urgency,
			model.PartStatusRequested, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		order, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PartOrder])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create part order: %w", apperrors.MapDBError(err))
	}

	return &order, nil
}

// GetByID retrieves a part order by its ID.
func (r *PartOrderRepo) GetByID(ctx context.Context, id string) (*model.PartOrder, error) {
	var order model.PartOrder
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+partOrderColumns+` FROM part_orders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		order, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PartOrder])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("part order %s not found", id)
		}
		return nil, fmt.Errorf("get part order: %w", apperrors.MapDBError(err))
	}

	return &order, nil
}

// ListByService retrieves all part orders linked to a job.
func (r *PartOrderRepo) ListByService(
	ctx context.Context,
	serviceID string,
) ([]*model.PartOrder, error) {
	return r.listWhere(ctx, partOrderListQuery{
		where: `service_id = $1`,
		arg:   serviceID,
	})
}

// OpenOrdersForService retrieves the part orders still blocking a job.
func (r *PartOrderRepo) OpenOrdersForService(
	ctx context.Context,
	serviceID string,
) ([]*model.PartOrder, error) {
	return r.listWhere(ctx, partOrderListQuery{
		where: `service_id = $1 AND status IN ('requested', 'pending', 'admin_ordered', 'waiting_delivery')`,
		arg:   serviceID,
	})
}

type partOrderListQuery struct {
	where string
	arg   any
}

func (r *PartOrderRepo) listWhere(
	ctx context.Context,
	q partOrderListQuery,
) ([]*model.PartOrder, error) {
	var orders []*model.PartOrder
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+partOrderColumns+` FROM part_orders WHERE `+q.where+` ORDER BY created_at ASC`,
			q.arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		slice, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.PartOrder])
		if err != nil {
			return err
		}
		orders = make([]*model.PartOrder, len(slice))
		for i := range slice {
			orders[i] = &slice[i]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list part orders: %w", apperrors.MapDBError(err))
	}

	return orders, nil
}

// TransitionStatus applies a compare-and-set status update for a part order.
// The expected-status match accepts the pending/requested aliases interchangeably.
func (r *PartOrderRepo) TransitionStatus(
	ctx context.Context,
	p core.TransitionPartStatusParams,
) (*model.PartOrder, error) {
	now := r.timeProvider.Now()
	setParts, args := buildPartUpdateParts(p, now)

	accepted := []string{string(p.Expected.Normalize())}
	if p.Expected.Normalize() == model.PartStatusRequested {
		accepted = append(accepted, string(model.PartStatusPending))
	}
	args = append(args, p.ID, accepted)
	query := fmt.Sprintf(
		`UPDATE part_orders SET %s WHERE id = $%d AND status = ANY($%d::text[]) RETURNING %s`,
		strings.Join(setParts, ", "), len(args)-1, len(args), partOrderColumns)

	var order model.PartOrder
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		order, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.PartOrder])
		return err
	})
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition part order: %w", apperrors.MapDBError(err))
	}

	current, getErr := r.GetByID(ctx, p.ID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.Conflictf(
		"part order %s is %s, not %s as observed", p.ID, current.Status, p.Expected)
}

func buildPartUpdateParts(p core.TransitionPartStatusParams, now any) ([]string, []any) {
	setParts := []string{"status = $1", "updated_at = $2"}
	args := []any{p.Target.Normalize(), now}
	idx := 3

	add := func(column string, value any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	f := p.Fields
	if f.SupplierName != nil {
		add("supplier_name", *f.SupplierName)
	}
	if f.ExpectedDelivery != nil {
		add("expected_delivery", *f.ExpectedDelivery)
	}
	if f.ActualCost != nil {
		add("actual_cost", *f.ActualCost)
	}
	if f.ConsumedForServiceID != nil {
		add("consumed_for_service_id", *f.ConsumedForServiceID)
	}
	if f.AdminNotes != nil {
		add("admin_notes", *f.AdminNotes)
	}
	if f.SetOrderDate {
		add("order_date", now)
	}

	return setParts, args
}
