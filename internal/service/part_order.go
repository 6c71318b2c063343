package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// PartOrderService owns the spare-part order lifecycle and the automatic
// job pause/resume it triggers. Part transitions never fail because of a
// notification problem; routing and delivery outcomes land in the report
// and the audit trail.
type PartOrderService struct {
	parts      core.PartOrderRepository
	jobs       core.JobRepository
	jobSvc     *JobService
	audit      core.AuditRepository
	dispatcher EventDispatcher
	logger     *slog.Logger
}

// PartOrderServiceOptions configures a PartOrderService.
type PartOrderServiceOptions struct {
	Parts      core.PartOrderRepository
	Jobs       core.JobRepository
	JobService *JobService
	Audit      core.AuditRepository
	Dispatcher EventDispatcher
	Logger     *slog.Logger
}

// NewPartOrderService creates a part order service.
func NewPartOrderService(opts PartOrderServiceOptions) *PartOrderService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PartOrderService{
		parts:      opts.Parts,
		jobs:       opts.Jobs,
		jobSvc:     opts.JobService,
		audit:      opts.Audit,
		dispatcher: opts.Dispatcher,
		logger:     logger.With("component", "part_order_service"),
	}
}

// Create registers a part request against a job, notifies back office and
// pauses the job if work was in progress.
func (s *PartOrderService) Create(
	ctx context.Context,
	actor model.Actor,
	req *model.CreatePartOrderRequest,
) (*model.PartOrder, *model.NotificationReport, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	job, err := s.jobs.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status.Terminal() {
		return nil, nil, apperrors.Preconditionf("job %s is %s and cannot take part orders", job.ID, job.Status)
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleTechnician:
		if actor.ID != req.TechnicianID {
			return nil, nil, apperrors.Permission("technicians may only request parts as themselves")
		}
		if job.TechnicianID != nil && actor.ID != *job.TechnicianID {
			return nil, nil, apperrors.Permissionf("technician %s is not assigned to job %s", actor.ID, job.ID)
		}
	default:
		return nil, nil, apperrors.Permissionf("role %s cannot request parts", actor.Role)
	}

	order, err := s.parts.Create(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	s.auditPartTransition(ctx, order.ID, "", string(order.Status), actor, "")
	report := s.raise(ctx, model.EventPartRequested, job, order)

	s.pauseJob(ctx, job, report)
	return order, report, nil
}

// Get returns one part order by id.
func (s *PartOrderService) Get(ctx context.Context, id string) (*model.PartOrder, error) {
	return s.parts.GetByID(ctx, id)
}

// ListByService returns all part orders linked to a job.
func (s *PartOrderService) ListByService(ctx context.Context, serviceID string) ([]*model.PartOrder, error) {
	return s.parts.ListByService(ctx, serviceID)
}

// Transition applies an actor-requested status change to a part order and
// runs the cross-machine triggers: ordering a part pauses an in-progress
// job, an arriving part resumes a waiting one.
func (s *PartOrderService) Transition(
	ctx context.Context,
	actor model.Actor,
	id string,
	req *model.TransitionPartOrderRequest,
) (*model.PartOrder, *model.NotificationReport, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	order, err := s.parts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// A stale observation is a conflict, not a precondition failure. Normalize
	// both sides so the legacy pending alias still matches requested.
	if req.ExpectedStatus != "" && req.ExpectedStatus.Normalize() != order.Status.Normalize() {
		return nil, nil, apperrors.Conflictf(
			"part order %s is %s, not %s as observed", id, order.Status, req.ExpectedStatus)
	}

	if order.Status.Normalize() == req.Target.Normalize() {
		return order, &model.NotificationReport{Event: model.PartEventFor(req.Target)}, nil
	}

	job, err := s.jobs.GetByID(ctx, order.ServiceID)
	if err != nil {
		return nil, nil, err
	}

	if err := checkPartActor(actor, job, order, req.Target); err != nil {
		return nil, nil, err
	}
	if err := model.ValidatePartTransition(order, req); err != nil {
		return nil, nil, err
	}

	// CAS against the stored value, not the request's spelling of it; the
	// pre-check above already proved they name the same status.
	updated, err := s.parts.TransitionStatus(ctx, core.TransitionPartStatusParams{
		ID:       id,
		Expected: order.Status,
		Target:   req.Target,
		Fields:   buildPartFields(req),
	})
	if err != nil {
		return nil, nil, err
	}

	s.auditPartTransition(ctx, updated.ID, string(order.Status), string(updated.Status), actor, "")
	report := s.raise(ctx, model.PartEventFor(updated.Status), job, updated)

	switch updated.Status.Normalize() {
	case model.PartStatusAdminOrdered:
		s.pauseJob(ctx, job, report)
	case model.PartStatusAvailable:
		s.resumeJob(ctx, job, report)
	}
	return updated, report, nil
}

// pauseJob moves the linked job to waiting_parts when work is in progress.
func (s *PartOrderService) pauseJob(ctx context.Context, job *model.Job, report *model.NotificationReport) {
	if job.Status != model.JobStatusInProgress {
		return
	}
	_, jobReport, err := s.jobSvc.PauseForParts(ctx, job.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to pause job for parts", "job_id", job.ID, "err", err)
		return
	}
	mergeReports(report, jobReport)
}

// resumeJob moves the linked job back to in_progress once no open part
// orders remain.
func (s *PartOrderService) resumeJob(ctx context.Context, job *model.Job, report *model.NotificationReport) {
	open, err := s.parts.OpenOrdersForService(ctx, job.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check open part orders", "job_id", job.ID, "err", err)
		return
	}
	if len(open) > 0 {
		return
	}
	_, jobReport, err := s.jobSvc.ResumeFromParts(ctx, job.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resume job from parts", "job_id", job.ID, "err", err)
		return
	}
	mergeReports(report, jobReport)
}

func (s *PartOrderService) raise(ctx context.Context, eventType model.EventType, job *model.Job, order *model.PartOrder) *model.NotificationReport {
	if s.dispatcher == nil {
		return &model.NotificationReport{Event: eventType}
	}
	return s.dispatcher.Dispatch(ctx, model.LifecycleEvent{
		Type:       eventType,
		Job:        job,
		Part:       order,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *PartOrderService) auditPartTransition(
	ctx context.Context,
	orderID, from, to string,
	actor model.Actor,
	reason string,
) {
	if err := s.audit.Append(ctx, core.AppendAuditParams{
		EntityKind: "part_order",
		EntityID:   orderID,
		Kind:       model.AuditTransition,
		Summary:    transitionSummary(from, to),
		Detail: model.TransitionAuditDetail{
			From:      from,
			To:        to,
			ActorRole: actor.Role,
			ActorID:   actor.ID,
			Reason:    reason,
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit part transition",
			"part_order_id", orderID, "to", to, "err", err)
	}
}

// checkPartActor enforces the actor rules of the part machine. Consuming a
// part is restricted to the technician assigned to the linked job; ordering
// and delivery confirmation are back-office moves.
func checkPartActor(actor model.Actor, job *model.Job, order *model.PartOrder, target model.PartOrderStatus) error {
	switch target.Normalize() {
	case model.PartStatusConsumed:
		if actor.Role != model.RoleTechnician {
			return apperrors.Permission("only the assigned technician may consume a part")
		}
		if job.TechnicianID == nil || actor.ID != *job.TechnicianID {
			return apperrors.Permissionf("technician %s is not assigned to job %s", actor.ID, job.ID)
		}
		return nil
	case model.PartStatusCancelled:
		if actor.Role == model.RoleAdmin {
			return nil
		}
		if actor.Role == model.RoleTechnician && actor.ID == order.TechnicianID {
			return nil
		}
		return apperrors.Permission("only back office or the requesting technician may cancel a part order")
	default:
		if actor.Role == model.RoleAdmin {
			return nil
		}
		return apperrors.Permissionf("role %s cannot move a part order to %s", actor.Role, target)
	}
}

func buildPartFields(req *model.TransitionPartOrderRequest) core.PartOrderUpdateFields {
	fields := core.PartOrderUpdateFields{
		ExpectedDelivery: req.ExpectedDelivery,
		AdminNotes:       optString(req.AdminNotes),
	}
	switch req.Target.Normalize() {
	case model.PartStatusAdminOrdered:
		fields.SupplierName = optString(req.SupplierName)
		fields.SetOrderDate = true
	case model.PartStatusWaitingDelivery:
		fields.ActualCost = req.ActualCost
	case model.PartStatusConsumed:
		if id := strings.TrimSpace(req.ConsumedForServiceID); id != "" {
			fields.ConsumedForServiceID = &id
		}
	}
	return fields
}

func mergeReports(dst, extra *model.NotificationReport) {
	if dst == nil || extra == nil {
		return
	}
	dst.Entries = append(dst.Entries, extra.Entries...)
}
