// Package core defines the repository and collaborator ports of the system.
// Service implementations depend on these interfaces, not on concrete
// implementations, so tests can substitute fakes and assert call counts.
package core

import (
	"context"
	"time"

	"github.com/repairhq/fieldservice/internal/domain/model"
)

// JobUpdateFields carries the optional column updates applied together with a
// CAS status change, so the transition and its side fields commit atomically.
type JobUpdateFields struct {
	TechnicianID            *string
	TechnicianNotes         *string
	WorkPerformed           *string
	UsedParts               []string
	Cost                    *float64
	IsCompletelyFixed       *bool
	CustomerRefusalReason   *string
	ClientUnavailableReason *string
	RepairFailureReason     *string
	ScheduledAt             *time.Time
	SetCompletedAt          bool
}

// JobRepository defines persistence for service jobs, including the atomic
// compare-and-set status update used to serialize concurrent transitions.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, limit, offset int) ([]*model.Job, error)
	// TransitionStatus updates status only if the persisted status still equals
	// expected. It returns the updated row, or a Conflict error when the
	// compare-and-set lost the race.
	TransitionStatus(ctx context.Context, p TransitionStatusParams) (*model.Job, error)
}

// TransitionStatusParams groups parameters for JobRepository.TransitionStatus.
type TransitionStatusParams struct {
	ID       string
	Expected model.JobStatus
	Target   model.JobStatus
	Fields   JobUpdateFields
}

// PartOrderUpdateFields carries optional column updates for a part transition.
type PartOrderUpdateFields struct {
	SupplierName         *string
	ExpectedDelivery     *time.Time
	ActualCost           *float64
	ConsumedForServiceID *string
	AdminNotes           *string
	SetOrderDate         bool
}

// TransitionPartStatusParams groups parameters for PartOrderRepository.TransitionStatus.
type TransitionPartStatusParams struct {
	ID       string
	Expected model.PartOrderStatus
	Target   model.PartOrderStatus
	Fields   PartOrderUpdateFields
}

// PartOrderRepository defines persistence for spare-part orders.
type PartOrderRepository interface {
	Create(ctx context.Context, req *model.CreatePartOrderRequest) (*model.PartOrder, error)
	GetByID(ctx context.Context, id string) (*model.PartOrder, error)
	ListByService(ctx context.Context, serviceID string) ([]*model.PartOrder, error)
	// OpenOrdersForService returns orders whose status still blocks the job
	// (requested or admin_ordered or waiting_delivery).
	OpenOrdersForService(ctx context.Context, serviceID string) ([]*model.PartOrder, error)
	TransitionStatus(ctx context.Context, p TransitionPartStatusParams) (*model.PartOrder, error)
}

// SupplierRepository defines persistence for the supplier routing table.
type SupplierRepository interface {
	Create(ctx context.Context, req *model.CreateSupplierRequest) (*model.Supplier, error)
	GetByName(ctx context.Context, name string) (*model.Supplier, error)
	List(ctx context.Context) ([]*model.Supplier, error)
}

// AppendAuditParams groups parameters for AuditRepository.Append.
type AppendAuditParams struct {
	EntityKind string
	EntityID   string
	Kind       model.AuditKind
	Summary    string
	Detail     any
}

// AuditRepository is the append-only transition/notification trail.
type AuditRepository interface {
	Append(ctx context.Context, p AppendAuditParams) error
	ListByEntity(ctx context.Context, kind, id string) ([]*model.AuditRecord, error)
}

// ContactDirectory resolves a role+id pair to a reachability record. It is an
// external collaborator; implementations may cache.
type ContactDirectory interface {
	Lookup(ctx context.Context, role model.Role, id string) (*model.Contact, error)
}

// CacheRepository is a byte-oriented TTL cache used in front of slow collaborators.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
}
