package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/data/pgxutil"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// AuditRepo is the append-only trail of transitions and notification outcomes.
// Rows are never updated or deleted; reconciliation reads them by entity id.
type AuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Append writes one audit record. Detail is marshalled to JSON when present.
func (r *AuditRepo) Append(ctx context.Context, p core.AppendAuditParams) error {
	var detail []byte
	if p.Detail != nil {
		var err error
		detail, err = json.Marshal(p.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audit_log (id, entity_kind, entity_id, kind, summary, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), p.EntityKind, p.EntityID, p.Kind, p.Summary, detail,
		r.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("append audit record: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ListByEntity retrieves the audit trail for one entity, oldest first.
func (r *AuditRepo) ListByEntity(
	ctx context.Context,
	kind, id string,
) ([]*model.AuditRecord, error) {
	var records []*model.AuditRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, entity_kind, entity_id, kind, summary, detail, created_at
			FROM audit_log
			WHERE entity_kind = $1 AND entity_id = $2
			ORDER BY created_at ASC, id ASC`, kind, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		slice, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.AuditRecord])
		if err != nil {
			return err
		}
		records = make([]*model.AuditRecord, len(slice))
		for i := range slice {
			records[i] = &slice[i]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", apperrors.MapDBError(err))
	}

	return records, nil
}
