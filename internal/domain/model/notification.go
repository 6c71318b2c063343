package model

import "time"

// EventType identifies a lifecycle event raised by a successful transition.
// The set is closed; the dispatcher switches over it exhaustively.
type EventType string

const (
	// EventJobCreated is raised when an intake call opens a job.
	EventJobCreated EventType = "job_created"
	// EventJobAssigned is raised when a technician is assigned.
	EventJobAssigned EventType = "job_assigned"
	// EventJobScheduled is raised when a visit date is set.
	EventJobScheduled EventType = "job_scheduled"
	// EventJobInProgress is raised when work starts or resumes.
	EventJobInProgress EventType = "job_in_progress"
	// EventJobWaitingParts is raised when work pauses on a part order.
	EventJobWaitingParts EventType = "job_waiting_parts"
	// EventJobClientNotHome is raised when nobody answered the door.
	EventJobClientNotHome EventType = "job_client_not_home"
	// EventJobClientNotAnswering is raised when the client is unreachable.
	EventJobClientNotAnswering EventType = "job_client_not_answering"
	// EventJobCustomerRefused is raised when the customer declined the repair.
	EventJobCustomerRefused EventType = "job_customer_refused"
	// EventJobRepairFailed is raised when the repair could not be completed.
	EventJobRepairFailed EventType = "job_repair_failed"
	// EventJobCompleted is raised when the repair finished.
	EventJobCompleted EventType = "job_completed"
	// EventJobCancelled is raised when the job was cancelled.
	EventJobCancelled EventType = "job_cancelled"

	// EventPartRequested is raised when a technician requests a part.
	EventPartRequested EventType = "part_requested"
	// EventPartOrdered is raised when back office orders a part from a supplier.
	EventPartOrdered EventType = "part_ordered"
	// EventPartWaitingDelivery is raised when the supplier confirmed the order.
	EventPartWaitingDelivery EventType = "part_waiting_delivery"
	// EventPartAvailable is raised when the part arrived.
	EventPartAvailable EventType = "part_available"
	// EventPartConsumed is raised when the part was installed.
	EventPartConsumed EventType = "part_consumed"
	// EventPartCancelled is raised when the order was withdrawn.
	EventPartCancelled EventType = "part_cancelled"
)

// Valid returns true if the EventType is a known event.
func (e EventType) Valid() bool {
	switch e {
	case EventJobCreated, EventJobAssigned, EventJobScheduled, EventJobInProgress,
		EventJobWaitingParts, EventJobClientNotHome, EventJobClientNotAnswering,
		EventJobCustomerRefused, EventJobRepairFailed, EventJobCompleted, EventJobCancelled,
		EventPartRequested, EventPartOrdered, EventPartWaitingDelivery,
		EventPartAvailable, EventPartConsumed, EventPartCancelled:
		return true
	}
	return false
}

// JobEventFor maps a job status to the lifecycle event its entry raises.
func JobEventFor(status JobStatus) EventType {
	switch status {
	case JobStatusAssigned:
		return EventJobAssigned
	case JobStatusScheduled:
		return EventJobScheduled
	case JobStatusInProgress:
		return EventJobInProgress
	case JobStatusWaitingParts:
		return EventJobWaitingParts
	case JobStatusClientNotHome:
		return EventJobClientNotHome
	case JobStatusClientNotAnswering:
		return EventJobClientNotAnswering
	case JobStatusCustomerRefused:
		return EventJobCustomerRefused
	case JobStatusRepairFailed:
		return EventJobRepairFailed
	case JobStatusCompleted:
		return EventJobCompleted
	case JobStatusCancelled:
		return EventJobCancelled
	default:
		return ""
	}
}

// PartEventFor maps a part-order status to the lifecycle event its entry raises.
func PartEventFor(status PartOrderStatus) EventType {
	switch status.Normalize() {
	case PartStatusRequested:
		return EventPartRequested
	case PartStatusAdminOrdered:
		return EventPartOrdered
	case PartStatusWaitingDelivery:
		return EventPartWaitingDelivery
	case PartStatusAvailable:
		return EventPartAvailable
	case PartStatusConsumed:
		return EventPartConsumed
	case PartStatusCancelled:
		return EventPartCancelled
	default:
		return ""
	}
}

// LifecycleEvent is the payload handed to the notification dispatcher after a
// transition has been committed. Exactly one of Part being nil distinguishes
// job events from part events; Job is always populated.
type LifecycleEvent struct {
	Type       EventType
	Job        *Job
	Part       *PartOrder
	OccurredAt time.Time
}

// EntityKind returns the audited entity kind for the event source.
func (e LifecycleEvent) EntityKind() string {
	if e.Part != nil {
		return "part_order"
	}
	return "job"
}

// EntityID returns the audited entity id for the event source.
func (e LifecycleEvent) EntityID() string {
	if e.Part != nil {
		return e.Part.ID
	}
	if e.Job != nil {
		return e.Job.ID
	}
	return ""
}

// Channel identifies a delivery channel.
type Channel string

const (
	// ChannelEmail delivers over electronic mail.
	ChannelEmail Channel = "email"
	// ChannelSMS delivers over text messaging.
	ChannelSMS Channel = "sms"
)

// NotificationEntry is one per-role, per-channel outcome within a report.
type NotificationEntry struct {
	Role      Role    `json:"role"`
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient,omitempty"`
	Attempted bool    `json:"attempted"`
	Succeeded bool    `json:"succeeded"`
	Attempts  int     `json:"attempts,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// NotificationReport is the best-effort delivery summary returned alongside a
// committed transition. It never affects the transition outcome.
type NotificationReport struct {
	Event   EventType           `json:"event"`
	Entries []NotificationEntry `json:"entries"`
}

// Failed returns the entries that were attempted and did not succeed.
func (r *NotificationReport) Failed() []NotificationEntry {
	var out []NotificationEntry
	for _, e := range r.Entries {
		if e.Attempted && !e.Succeeded {
			out = append(out, e)
		}
	}
	return out
}
