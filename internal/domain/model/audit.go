package model

import (
	"encoding/json"
	"time"
)

// AuditKind distinguishes the two record families in the append-only audit log.
type AuditKind string

const (
	// AuditTransition records a committed status transition.
	AuditTransition AuditKind = "transition"
	// AuditNotification records one notification delivery outcome.
	AuditNotification AuditKind = "notification"
)

// AuditRecord is one append-only entry keyed by entity id, written for every
// transition and every notification attempt outcome, for later reconciliation.
type AuditRecord struct {
	ID         string          `json:"id"               db:"id"`
	EntityKind string          `json:"entity_kind"      db:"entity_kind"`
	EntityID   string          `json:"entity_id"        db:"entity_id"`
	Kind       AuditKind       `json:"kind"             db:"kind"`
	Summary    string          `json:"summary"          db:"summary"`
	Detail     json.RawMessage `json:"detail,omitempty" db:"detail"`
	CreatedAt  time.Time       `json:"created_at"       db:"created_at"`
}

// TransitionAuditDetail is marshalled into AuditRecord.Detail for transitions.
type TransitionAuditDetail struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ActorRole Role   `json:"actor_role,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// NotificationAuditDetail is marshalled into AuditRecord.Detail for deliveries.
type NotificationAuditDetail struct {
	Event     EventType `json:"event"`
	Role      Role      `json:"role"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient,omitempty"`
	Attempts  int       `json:"attempts"`
	Succeeded bool      `json:"succeeded"`
	LastError string    `json:"last_error,omitempty"`
}
