package model

import (
	"strings"
	"time"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// Supplier is an external spare-part supplier reachable for order notifications.
type Supplier struct {
	ID        string    `json:"id"              db:"id"`
	Name      string    `json:"name"            db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at"      db:"created_at"`
}

// Contact converts the supplier row into a dispatchable contact.
func (s *Supplier) Contact() Contact {
	c := Contact{Name: s.Name}
	if s.Email != nil {
		c.Email = *s.Email
	}
	if s.Phone != nil {
		c.Phone = *s.Phone
	}
	return c
}

// CreateSupplierRequest represents a request to register a supplier.
type CreateSupplierRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Validate validates the CreateSupplierRequest fields.
func (r *CreateSupplierRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.ValidationField("name", "supplier name is required")
	}
	return nil
}
