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

// EventDispatcher is the dispatcher surface the business services depend on.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event model.LifecycleEvent) *model.NotificationReport
}

// systemActor performs the automatic cross-machine transitions.
var systemActor = model.Actor{Role: model.RoleAdmin, ID: "system"}

// JobService owns the job lifecycle: creation, actor-driven transitions and
// the automatic pause/resume triggered by part orders. Every committed
// transition is audited and raises exactly one lifecycle event, after the
// persistence commit, never before.
type JobService struct {
	jobs       core.JobRepository
	audit      core.AuditRepository
	dispatcher EventDispatcher
	logger     *slog.Logger
}

// JobServiceOptions configures a JobService.
type JobServiceOptions struct {
	Jobs       core.JobRepository
	Audit      core.AuditRepository
	Dispatcher EventDispatcher
	Logger     *slog.Logger
}

// NewJobService creates a job service.
func NewJobService(opts JobServiceOptions) *JobService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		jobs:       opts.Jobs,
		audit:      opts.Audit,
		dispatcher: opts.Dispatcher,
		logger:     logger.With("component", "job_service"),
	}
}

// Create opens a new job in pending status and notifies the client.
func (s *JobService) Create(
	ctx context.Context,
	actor model.Actor,
	req *model.CreateJobRequest,
) (*model.Job, *model.NotificationReport, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	s.auditTransition(ctx, "job", job.ID, "", string(job.Status), actor, "")
	report := s.raise(ctx, model.EventJobCreated, job, nil)
	return job, report, nil
}

// Get returns one job by id.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// List returns jobs ordered by creation time, newest first.
func (s *JobService) List(ctx context.Context, limit, offset int) ([]*model.Job, error) {
	return s.jobs.List(ctx, limit, offset)
}

// Transition applies an actor-requested status change. The persist step is a
// compare-and-set against the status the caller last observed; a lost race
// surfaces as a Conflict error, never a silent overwrite. Re-applying the
// current status is a successful no-op that raises no event.
func (s *JobService) Transition(
	ctx context.Context,
	actor model.Actor,
	id string,
	req *model.TransitionJobRequest,
) (*model.Job, *model.NotificationReport, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// A stale observation is a conflict, not a precondition failure. Callers
	// key refresh-and-retry off the conflict code, so report it before any
	// validation against the current state.
	if req.ExpectedStatus != "" && req.ExpectedStatus != job.Status {
		return nil, nil, apperrors.Conflictf(
			"job %s is %s, not %s as observed", id, job.Status, req.ExpectedStatus)
	}

	if err := checkJobActor(actor, job, req.Target); err != nil {
		return nil, nil, err
	}
	if err := model.ValidateJobTransition(job, req); err != nil {
		return nil, nil, err
	}

	if job.Status == req.Target {
		return job, &model.NotificationReport{Event: model.JobEventFor(req.Target)}, nil
	}

	expected := req.ExpectedStatus
	if expected == "" {
		expected = job.Status
	}

	updated, err := s.jobs.TransitionStatus(ctx, core.TransitionStatusParams{
		ID:       id,
		Expected: expected,
		Target:   req.Target,
		Fields:   buildJobFields(req),
	})
	if err != nil {
		return nil, nil, err
	}

	s.auditTransition(ctx, "job", updated.ID, string(job.Status), string(updated.Status), actor, req.Reason)
	report := s.raise(ctx, model.JobEventFor(updated.Status), updated, nil)
	return updated, report, nil
}

// PauseForParts moves an in-progress job to waiting_parts when a linked part
// order enters requested or admin_ordered. Jobs in any other status are left
// alone, and a lost race is treated the same way.
func (s *JobService) PauseForParts(ctx context.Context, jobID string) (*model.Job, *model.NotificationReport, error) {
	return s.systemTransition(ctx, jobID, model.JobStatusInProgress, model.JobStatusWaitingParts)
}

// ResumeFromParts moves a waiting_parts job back to in_progress once its part
// order became available.
func (s *JobService) ResumeFromParts(ctx context.Context, jobID string) (*model.Job, *model.NotificationReport, error) {
	return s.systemTransition(ctx, jobID, model.JobStatusWaitingParts, model.JobStatusInProgress)
}

func (s *JobService) systemTransition(
	ctx context.Context,
	jobID string,
	from, to model.JobStatus,
) (*model.Job, *model.NotificationReport, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != from {
		return job, nil, nil
	}

	updated, err := s.jobs.TransitionStatus(ctx, core.TransitionStatusParams{
		ID:       jobID,
		Expected: from,
		Target:   to,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			s.logger.InfoContext(ctx, "automatic transition lost the race, skipping",
				"job_id", jobID, "from", from, "to", to)
			return job, nil, nil
		}
		return nil, nil, err
	}

	s.auditTransition(ctx, "job", updated.ID, string(from), string(to), systemActor, "part order trigger")
	report := s.raise(ctx, model.JobEventFor(to), updated, nil)
	return updated, report, nil
}

func (s *JobService) raise(ctx context.Context, eventType model.EventType, job *model.Job, part *model.PartOrder) *model.NotificationReport {
	if s.dispatcher == nil {
		return &model.NotificationReport{Event: eventType}
	}
	return s.dispatcher.Dispatch(ctx, model.LifecycleEvent{
		Type:       eventType,
		Job:        job,
		Part:       part,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *JobService) auditTransition(
	ctx context.Context,
	entityKind, entityID, from, to string,
	actor model.Actor,
	reason string,
) {
	if err := s.audit.Append(ctx, core.AppendAuditParams{
		EntityKind: entityKind,
		EntityID:   entityID,
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
		s.logger.ErrorContext(ctx, "failed to audit transition",
			"entity_kind", entityKind, "entity_id", entityID, "to", to, "err", err)
	}
}

func transitionSummary(from, to string) string {
	if from == "" {
		return "created as " + to
	}
	return from + " -> " + to
}

// checkJobActor enforces role and ownership rules on job transitions. Admins
// may do anything; technicians only on jobs they are assigned to; clients may
// only cancel their own job.
func checkJobActor(actor model.Actor, job *model.Job, target model.JobStatus) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTechnician:
		if job.TechnicianID != nil && actor.ID != *job.TechnicianID {
			return apperrors.Permissionf("technician %s is not assigned to job %s", actor.ID, job.ID)
		}
		return nil
	case model.RoleClient:
		if target == model.JobStatusCancelled && actor.ID == job.ClientID {
			return nil
		}
		return apperrors.Permission("clients may only cancel their own jobs")
	default:
		return apperrors.Permissionf("role %s cannot modify jobs", actor.Role)
	}
}

func buildJobFields(req *model.TransitionJobRequest) core.JobUpdateFields {
	fields := core.JobUpdateFields{
		TechnicianID: req.TechnicianID,
		ScheduledAt:  req.ScheduledAt,
	}

	switch req.Target {
	case model.JobStatusCompleted:
		fields.TechnicianNotes = optString(req.TechnicianNotes)
		fields.WorkPerformed = optString(req.WorkPerformed)
		fields.UsedParts = req.UsedParts
		fields.Cost = req.Cost
		fields.IsCompletelyFixed = req.IsCompletelyFixed
		fields.SetCompletedAt = true
	case model.JobStatusCustomerRefused:
		fields.CustomerRefusalReason = optString(req.Reason)
	case model.JobStatusClientNotHome, model.JobStatusClientNotAnswering:
		fields.ClientUnavailableReason = optString(req.Reason)
	case model.JobStatusRepairFailed:
		fields.RepairFailureReason = optString(req.Reason)
	}
	return fields
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
