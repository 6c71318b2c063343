package model

import (
	"strings"
	"time"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// PartOrderStatus represents the lifecycle status of a spare-part order.
type PartOrderStatus string

// PartUrgency represents how urgently a part is needed.
type PartUrgency string

const (
	// PartStatusRequested is the entry status for technician-requested parts.
	// "pending" is accepted as an equivalent entry alias and normalized here.
	PartStatusRequested PartOrderStatus = "requested"
	// PartStatusPending is the legacy alias for the entry status.
	PartStatusPending PartOrderStatus = "pending"
	// PartStatusAdminOrdered indicates back office has placed the order with a supplier.
	PartStatusAdminOrdered PartOrderStatus = "admin_ordered"
	// PartStatusWaitingDelivery indicates the supplier confirmed the order.
	PartStatusWaitingDelivery PartOrderStatus = "waiting_delivery"
	// PartStatusAvailable indicates the part arrived and work can resume.
	PartStatusAvailable PartOrderStatus = "available"
	// PartStatusConsumed indicates the part was installed on a job.
	PartStatusConsumed PartOrderStatus = "consumed"
	// PartStatusCancelled indicates the order was withdrawn.
	PartStatusCancelled PartOrderStatus = "cancelled"

	// UrgencyNormal is the default urgency.
	UrgencyNormal PartUrgency = "normal"
	// UrgencyHigh marks parts blocking a scheduled visit.
	UrgencyHigh PartUrgency = "high"
	// UrgencyUrgent marks parts blocking an in-progress repair.
	UrgencyUrgent PartUrgency = "urgent"
)

// Valid returns true if the PartOrderStatus is a known status.
func (s PartOrderStatus) Valid() bool {
	switch s {
	case PartStatusRequested, PartStatusPending, PartStatusAdminOrdered,
		PartStatusWaitingDelivery, PartStatusAvailable, PartStatusConsumed, PartStatusCancelled:
		return true
	}
	return false
}

// Normalize folds the "pending" entry alias into "requested".
func (s PartOrderStatus) Normalize() PartOrderStatus {
	if s == PartStatusPending {
		return PartStatusRequested
	}
	return s
}

// Terminal returns true if no further transitions are allowed from this status.
func (s PartOrderStatus) Terminal() bool {
	return s == PartStatusConsumed || s == PartStatusCancelled
}

// Valid returns true if the PartUrgency is a known value.
func (u PartUrgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyHigh || u == UrgencyUrgent
}

// partTransitions enumerates the legal target statuses for each current status.
// cancelled is reachable from every non-terminal status.
var partTransitions = map[PartOrderStatus][]PartOrderStatus{
	PartStatusRequested:       {PartStatusAdminOrdered, PartStatusCancelled},
	PartStatusAdminOrdered:    {PartStatusWaitingDelivery, PartStatusCancelled},
	PartStatusWaitingDelivery: {PartStatusAvailable, PartStatusCancelled},
	PartStatusAvailable:       {PartStatusConsumed, PartStatusCancelled},
}

// CanTransitionTo reports whether the transition table allows moving from s to target.
func (s PartOrderStatus) CanTransitionTo(target PartOrderStatus) bool {
	s, target = s.Normalize(), target.Normalize()
	if s == target {
		return true
	}
	for _, allowed := range partTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PartOrder is a procurement request for a component needed to complete a job.
type PartOrder struct {
	ID                   string          `json:"id"                                db:"id"`
	ServiceID            string          `json:"service_id"                        db:"service_id"`
	TechnicianID         string          `json:"technician_id"                     db:"technician_id"`
	PartName             string          `json:"part_name"                         db:"part_name"`
	PartNumber           *string         `json:"part_number,omitempty"             db:"part_number"`
	Manufacturer         *string         `json:"manufacturer,omitempty"            db:"manufacturer"`
	Quantity             int             `json:"quantity"                          db:"quantity"`
	Urgency              PartUrgency     `json:"urgency"                           db:"urgency"`
	Status               PartOrderStatus `json:"status"                            db:"status"`
	SupplierName         *string         `json:"supplier_name,omitempty"           db:"supplier_name"`
	OrderDate            *time.Time      `json:"order_date,omitempty"              db:"order_date"`
	ExpectedDelivery     *time.Time      `json:"expected_delivery,omitempty"       db:"expected_delivery"`
	ActualCost           *float64        `json:"actual_cost,omitempty"             db:"actual_cost"`
	ConsumedForServiceID *string         `json:"consumed_for_service_id,omitempty" db:"consumed_for_service_id"`
	AdminNotes           *string         `json:"admin_notes,omitempty"             db:"admin_notes"`
	CreatedAt            time.Time       `json:"created_at"                        db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"                        db:"updated_at"`
}

// CreatePartOrderRequest represents a technician part request or a direct admin order.
type CreatePartOrderRequest struct {
	ServiceID    string      `json:"service_id"`
	TechnicianID string      `json:"technician_id"`
	PartName     string      `json:"part_name"`
	PartNumber   *string     `json:"part_number,omitempty"`
	Manufacturer *string     `json:"manufacturer,omitempty"`
	Quantity     int         `json:"quantity"`
	Urgency      PartUrgency `json:"urgency,omitempty"`
}

// Validate validates the CreatePartOrderRequest fields.
func (r *CreatePartOrderRequest) Validate() error {
	if strings.TrimSpace(r.ServiceID) == "" {
		return apperrors.ValidationField("service_id", "service id is required")
	}
	if strings.TrimSpace(r.TechnicianID) == "" {
		return apperrors.ValidationField("technician_id", "technician id is required")
	}
	if strings.TrimSpace(r.PartName) == "" {
		return apperrors.ValidationField("part_name", "part name is required")
	}
	if r.Quantity <= 0 {
		return apperrors.ValidationField("quantity", "quantity must be positive")
	}
	if r.Urgency == "" {
		r.Urgency = UrgencyNormal
	}
	if !r.Urgency.Valid() {
		return apperrors.ValidationField("urgency", "invalid urgency")
	}
	return nil
}

// TransitionPartOrderRequest carries a requested status change for a part order.
type TransitionPartOrderRequest struct {
	Target               PartOrderStatus `json:"target"`
	ExpectedStatus       PartOrderStatus `json:"expected_status"`
	SupplierName         string          `json:"supplier_name,omitempty"`
	ExpectedDelivery     *time.Time      `json:"expected_delivery,omitempty"`
	ActualCost           *float64        `json:"actual_cost,omitempty"`
	ConsumedForServiceID string          `json:"consumed_for_service_id,omitempty"`
	AdminNotes           string          `json:"admin_notes,omitempty"`
}

// Validate checks the request shape without consulting the current order state.
func (r *TransitionPartOrderRequest) Validate() error {
	if !r.Target.Valid() {
		return apperrors.ValidationField("target", "invalid target status")
	}
	if r.ExpectedStatus != "" && !r.ExpectedStatus.Valid() {
		return apperrors.ValidationField("expected_status", "invalid expected status")
	}
	return nil
}

// ValidatePartTransition validates the transition against the current order
// state and the required-field preconditions of the target status.
func ValidatePartTransition(order *PartOrder, req *TransitionPartOrderRequest) error {
	current, target := order.Status.Normalize(), req.Target.Normalize()
	if current == target {
		return nil
	}

	if !current.CanTransitionTo(target) {
		return apperrors.Preconditionf(
			"transition from %s to %s is not allowed", current, target)
	}

	switch target {
	case PartStatusAdminOrdered:
		if strings.TrimSpace(req.SupplierName) == "" && order.SupplierName == nil {
			return apperrors.ValidationField("supplier_name", "supplier name is required to order a part")
		}
	case PartStatusWaitingDelivery:
		if req.ActualCost == nil && order.ActualCost == nil {
			return apperrors.ValidationField("actual_cost", "actual cost is required")
		}
	case PartStatusConsumed:
		if strings.TrimSpace(req.ConsumedForServiceID) == "" {
			return apperrors.ValidationField("consumed_for_service_id", "consumed-for service id is required")
		}
	}

	return nil
}
