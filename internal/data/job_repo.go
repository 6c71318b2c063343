// Package data implements the persistence layer on PostgreSQL via pgx.
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

const jobColumns = `id, client_id, appliance_id, technician_id, business_partner_id,
	status, warranty_status, scheduled_at, completed_at, technician_notes,
	work_performed, used_parts, cost, is_completely_fixed, customer_refusal_reason,
	client_unavailable_reason, repair_failure_reason, created_at, updated_at`

// JobRepo provides database operations for service jobs.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewJobRepoWithTimeProvider creates a new JobRepo with a custom time provider.
func NewJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: tp}
}

// Create inserts a new job in status pending.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	var job model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO jobs (
				id, client_id, appliance_id, technician_id, business_partner_id,
				status, warranty_status, scheduled_at, used_parts, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}', $9, $9)
			RETURNING `+jobColumns,
			uuid.NewString(), req.ClientID, req.ApplianceID, req.TechnicianID,
			req.BusinessPartnerID, model.JobStatusPending, req.WarrantyStatus,
			req.ScheduledAt, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", apperrors.MapDBError(err))
	}

	return &job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, fmt.Errorf("get job: %w", apperrors.MapDBError(err))
	}

	return &job, nil
}

// List retrieves jobs ordered by creation time, newest first.
func (r *JobRepo) List(ctx context.Context, limit, offset int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
			limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		slice, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
		if err != nil {
			return err
		}
		jobs = make([]*model.Job, len(slice))
		for i := range slice {
			jobs[i] = &slice[i]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", apperrors.MapDBError(err))
	}

	return jobs, nil
}

// TransitionStatus applies a compare-and-set status update together with the
// field updates the target status requires. The WHERE clause pins the expected
// status, so a concurrent transition that committed first makes this one fail
// with a Conflict instead of silently overwriting it.
func (r *JobRepo) TransitionStatus(
	ctx context.Context,
	p core.TransitionStatusParams,
) (*model.Job, error) {
	now := r.timeProvider.Now()
	setParts, args := buildJobUpdateParts(p, now)

	args = append(args, p.ID, p.Expected)
	query := fmt.Sprintf(
		`UPDATE jobs SET %s WHERE id = $%d AND status = $%d RETURNING %s`,
		strings.Join(setParts, ", "), len(args)-1, len(args), jobColumns)

	var job model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition job: %w", apperrors.MapDBError(err))
	}

	// Zero rows matched: either the job is gone or the expected status is stale.
	current, getErr := r.GetByID(ctx, p.ID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.Conflictf(
		"job %s is %s, not %s as observed", p.ID, current.Status, p.Expected)
}

func buildJobUpdateParts(p core.TransitionStatusParams, now any) ([]string, []any) {
	setParts := []string{"status = $1", "updated_at = $2"}
	args := []any{p.Target, now}
	idx := 3

	add := func(column string, value any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	f := p.Fields
	if f.TechnicianID != nil {
		add("technician_id", *f.TechnicianID)
	}
	if f.TechnicianNotes != nil {
		add("technician_notes", *f.TechnicianNotes)
	}
	if f.WorkPerformed != nil {
		add("work_performed", *f.WorkPerformed)
	}
	if f.UsedParts != nil {
		add("used_parts", f.UsedParts)
	}
	if f.Cost != nil {
		add("cost", *f.Cost)
	}
	if f.IsCompletelyFixed != nil {
		add("is_completely_fixed", *f.IsCompletelyFixed)
	}
	if f.CustomerRefusalReason != nil {
		add("customer_refusal_reason", *f.CustomerRefusalReason)
	}
	if f.ClientUnavailableReason != nil {
		add("client_unavailable_reason", *f.ClientUnavailableReason)
	}
	if f.RepairFailureReason != nil {
		add("repair_failure_reason", *f.RepairFailureReason)
	}
	if f.ScheduledAt != nil {
		add("scheduled_at", *f.ScheduledAt)
	}
	if f.SetCompletedAt {
		add("completed_at", now)
	}

	return setParts, args
}
