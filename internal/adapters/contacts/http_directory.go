// Package contacts provides the contact directory collaborator: an HTTP
// client against the record-keeping system, and a caching decorator.
package contacts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// HTTPDirectory looks up reachability records over the record system's API.
type HTTPDirectory struct {
	client       *resty.Client
	adminContact *model.Contact
}

// HTTPDirectoryOptions configures an HTTPDirectory.
type HTTPDirectoryOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // defaults to 10s
	// AdminContact is the back-office contact, served from configuration
	// instead of a directory roundtrip.
	AdminContact *model.Contact
}

// NewHTTPDirectory creates a directory client.
func NewHTTPDirectory(opts HTTPDirectoryOptions) *HTTPDirectory {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	return &HTTPDirectory{client: client, adminContact: opts.AdminContact}
}

// Lookup resolves a role+id pair to a contact.
func (d *HTTPDirectory) Lookup(ctx context.Context, role model.Role, id string) (*model.Contact, error) {
	if role == model.RoleAdmin && d.adminContact != nil {
		contact := *d.adminContact
		return &contact, nil
	}

	var contact model.Contact
	resp, err := d.client.R().
		SetContext(ctx).
		SetResult(&contact).
		SetPathParams(map[string]string{"role": string(role), "id": id}).
		Get("/contacts/{role}/{id}")
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "contact directory lookup %s/%s", role, id)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &contact, nil
	case http.StatusNotFound:
		return nil, apperrors.NotFoundf("no contact for %s %s", role, id)
	default:
		return nil, apperrors.Internalf("contact directory status %d: %s",
			resp.StatusCode(), fmt.Sprintf("%.200s", resp.String()))
	}
}
