// Package model defines the core data types for the field-service coordination system.
package model

import (
	"strings"
	"time"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// JobStatus represents the current lifecycle status of a service job.
type JobStatus string

// WarrantyStatus represents the warranty coverage of the serviced appliance.
type WarrantyStatus string

const (
	// JobStatusPending indicates a job is awaiting technician assignment.
	JobStatusPending JobStatus = "pending"
	// JobStatusAssigned indicates a technician has been assigned.
	JobStatusAssigned JobStatus = "assigned"
	// JobStatusScheduled indicates a visit has been scheduled.
	JobStatusScheduled JobStatus = "scheduled"
	// JobStatusInProgress indicates the technician is actively working.
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusWaitingParts indicates work is paused until a part order arrives.
	JobStatusWaitingParts JobStatus = "waiting_parts"
	// JobStatusClientNotHome indicates the technician found nobody at the address.
	JobStatusClientNotHome JobStatus = "client_not_home"
	// JobStatusClientNotAnswering indicates the client could not be reached.
	JobStatusClientNotAnswering JobStatus = "client_not_answering"
	// JobStatusCustomerRefused indicates the customer declined the repair.
	JobStatusCustomerRefused JobStatus = "customer_refused_repair"
	// JobStatusRepairFailed indicates the repair could not be completed.
	JobStatusRepairFailed JobStatus = "repair_failed"
	// JobStatusCompleted indicates the repair finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled indicates the job was cancelled.
	JobStatusCancelled JobStatus = "cancelled"

	// WarrantyInWarranty covers repairs billed to the manufacturer.
	WarrantyInWarranty WarrantyStatus = "in_warranty"
	// WarrantyOutOfWarranty covers repairs billed to the client.
	WarrantyOutOfWarranty WarrantyStatus = "out_of_warranty"
	// WarrantyUnknown is used until coverage has been verified.
	WarrantyUnknown WarrantyStatus = "unknown"
)

// Valid returns true if the JobStatus is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusAssigned, JobStatusScheduled, JobStatusInProgress,
		JobStatusWaitingParts, JobStatusClientNotHome, JobStatusClientNotAnswering,
		JobStatusCustomerRefused, JobStatusRepairFailed, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal returns true if no further transitions are allowed from this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCancelled, JobStatusCustomerRefused, JobStatusRepairFailed:
		return true
	default:
		return false
	}
}

// Valid returns true if the WarrantyStatus is a known value.
func (w WarrantyStatus) Valid() bool {
	return w == WarrantyInWarranty || w == WarrantyOutOfWarranty || w == WarrantyUnknown
}

// jobTransitions enumerates the legal target statuses for each current status.
// Re-applying the current status is always accepted as an idempotent no-op and
// is handled before this table is consulted; intake and mobile clients retry.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {
		JobStatusAssigned, JobStatusScheduled, JobStatusInProgress, JobStatusCancelled,
	},
	JobStatusAssigned: {
		JobStatusScheduled, JobStatusInProgress, JobStatusCancelled,
	},
	JobStatusScheduled: {
		JobStatusAssigned, JobStatusInProgress, JobStatusClientNotHome,
		JobStatusClientNotAnswering, JobStatusCancelled,
	},
	JobStatusInProgress: {
		JobStatusWaitingParts, JobStatusClientNotHome, JobStatusClientNotAnswering,
		JobStatusCustomerRefused, JobStatusCompleted, JobStatusRepairFailed, JobStatusCancelled,
	},
	JobStatusWaitingParts: {
		JobStatusInProgress, JobStatusCancelled,
	},
	JobStatusClientNotHome: {
		JobStatusScheduled, JobStatusInProgress, JobStatusCancelled,
	},
	JobStatusClientNotAnswering: {
		JobStatusScheduled, JobStatusInProgress, JobStatusCancelled,
	},
}

// CanTransitionTo reports whether the transition table allows moving from s to target.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range jobTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Job represents one repair request tying together a client, an appliance and
// an assigned technician.
type Job struct {
	ID                      string         `json:"id"                                  db:"id"`
	ClientID                string         `json:"client_id"                           db:"client_id"`
	ApplianceID             string         `json:"appliance_id"                        db:"appliance_id"`
	TechnicianID            *string        `json:"technician_id,omitempty"             db:"technician_id"`
	BusinessPartnerID       *string        `json:"business_partner_id,omitempty"       db:"business_partner_id"`
	Status                  JobStatus      `json:"status"                              db:"status"`
	WarrantyStatus          WarrantyStatus `json:"warranty_status"                     db:"warranty_status"`
	ScheduledAt             *time.Time     `json:"scheduled_at,omitempty"              db:"scheduled_at"`
	CompletedAt             *time.Time     `json:"completed_at,omitempty"              db:"completed_at"`
	TechnicianNotes         *string        `json:"technician_notes,omitempty"          db:"technician_notes"`
	WorkPerformed           *string        `json:"work_performed,omitempty"            db:"work_performed"`
	UsedParts               []string       `json:"used_parts"                          db:"used_parts"`
	Cost                    *float64       `json:"cost,omitempty"                      db:"cost"`
	IsCompletelyFixed       *bool          `json:"is_completely_fixed,omitempty"       db:"is_completely_fixed"`
	CustomerRefusalReason   *string        `json:"customer_refusal_reason,omitempty"   db:"customer_refusal_reason"`
	ClientUnavailableReason *string        `json:"client_unavailable_reason,omitempty" db:"client_unavailable_reason"`
	RepairFailureReason     *string        `json:"repair_failure_reason,omitempty"     db:"repair_failure_reason"`
	CreatedAt               time.Time      `json:"created_at"                          db:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"                          db:"updated_at"`
}

// CreateJobRequest represents a request to open a new service job.
type CreateJobRequest struct {
	ClientID          string         `json:"client_id"`
	ApplianceID       string         `json:"appliance_id"`
	TechnicianID      *string        `json:"technician_id,omitempty"`
	BusinessPartnerID *string        `json:"business_partner_id,omitempty"`
	WarrantyStatus    WarrantyStatus `json:"warranty_status,omitempty"`
	ScheduledAt       *time.Time     `json:"scheduled_at,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.ClientID) == "" {
		return apperrors.ValidationField("client_id", "client id is required")
	}
	if strings.TrimSpace(r.ApplianceID) == "" {
		return apperrors.ValidationField("appliance_id", "appliance id is required")
	}
	if r.WarrantyStatus == "" {
		r.WarrantyStatus = WarrantyUnknown
	}
	if !r.WarrantyStatus.Valid() {
		return apperrors.ValidationField("warranty_status", "invalid warranty status")
	}
	return nil
}

// TransitionJobRequest carries a requested status change for a job. The
// ExpectedStatus is the status the caller last observed; the persist step is a
// compare-and-set against it so concurrent actors cannot race the job into an
// inconsistent state.
type TransitionJobRequest struct {
	Target            JobStatus  `json:"target"`
	ExpectedStatus    JobStatus  `json:"expected_status"`
	Reason            string     `json:"reason,omitempty"`
	TechnicianID      *string    `json:"technician_id,omitempty"`
	TechnicianNotes   string     `json:"technician_notes,omitempty"`
	WorkPerformed     string     `json:"work_performed,omitempty"`
	UsedParts         []string   `json:"used_parts,omitempty"`
	Cost              *float64   `json:"cost,omitempty"`
	IsCompletelyFixed *bool      `json:"is_completely_fixed,omitempty"`
	ScheduledAt       *time.Time `json:"scheduled_at,omitempty"`
}

// Validate checks the request shape without consulting the current job state.
func (r *TransitionJobRequest) Validate() error {
	if !r.Target.Valid() {
		return apperrors.ValidationField("target", "invalid target status")
	}
	if r.ExpectedStatus != "" && !r.ExpectedStatus.Valid() {
		return apperrors.ValidationField("expected_status", "invalid expected status")
	}
	return nil
}

// ValidateJobTransition validates the transition against the current job state
// and the required-field preconditions of the target status. It returns a
// Precondition error when the transition is illegal and the record must remain
// unchanged. A same-status re-apply passes (idempotent no-op).
func ValidateJobTransition(job *Job, req *TransitionJobRequest) error {
	if job.Status == req.Target {
		return nil
	}

	if !job.Status.CanTransitionTo(req.Target) {
		return apperrors.Preconditionf(
			"transition from %s to %s is not allowed", job.Status, req.Target)
	}

	// Technician must be attached before the job leaves intake statuses.
	if (job.Status == JobStatusPending || job.Status == JobStatusAssigned) &&
		req.Target != JobStatusAssigned && req.Target != JobStatusCancelled {
		if job.TechnicianID == nil && req.TechnicianID == nil {
			return apperrors.Precondition("a technician must be assigned first")
		}
	}

	switch req.Target {
	case JobStatusAssigned:
		if job.TechnicianID == nil && req.TechnicianID == nil {
			return apperrors.ValidationField("technician_id", "technician id is required")
		}
	case JobStatusCompleted:
		if strings.TrimSpace(req.TechnicianNotes) == "" {
			return apperrors.ValidationField("technician_notes", "technician notes are required to complete a job")
		}
		if strings.TrimSpace(req.WorkPerformed) == "" {
			return apperrors.ValidationField("work_performed", "work performed is required to complete a job")
		}
	case JobStatusCustomerRefused:
		if strings.TrimSpace(req.Reason) == "" {
			return apperrors.ValidationField("reason", "a refusal reason is required")
		}
	case JobStatusRepairFailed:
		if strings.TrimSpace(req.Reason) == "" {
			return apperrors.ValidationField("reason", "a failure reason is required")
		}
	case JobStatusClientNotHome, JobStatusClientNotAnswering:
		if strings.TrimSpace(req.Reason) == "" {
			return apperrors.ValidationField("reason", "a reason is required")
		}
	}

	return nil
}
