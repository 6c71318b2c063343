// Package composer renders notification templates into channel-specific text.
package composer

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Message is the rendered output for a single delivery. Subject is empty for SMS.
type Message struct {
	Subject string
	Body    string
}

// Data is the render context handed to every template. Job or Part is set
// depending on which entity raised the event.
type Data struct {
	RecipientName string
	Role          model.Role
	Job           *model.Job
	Part          *model.PartOrder
}

// Composer holds the parsed template sets, one per channel.
type Composer struct {
	email *template.Template
	sms   *template.Template
}

// New parses the embedded template files. Email templates render subject on
// their first line and body on the rest; SMS templates render body only.
func New() (*Composer, error) {
	email, err := template.ParseFS(templatesFS, "templates/email.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	sms, err := template.ParseFS(templatesFS, "templates/sms.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse sms templates: %w", err)
	}
	return &Composer{email: email, sms: sms}, nil
}

// Render produces the message for templateID on the given channel.
func (c *Composer) Render(templateID string, channel model.Channel, data Data) (Message, error) {
	var set *template.Template
	switch channel {
	case model.ChannelEmail:
		set = c.email
	case model.ChannelSMS:
		set = c.sms
	default:
		return Message{}, apperrors.Internalf("unknown channel %q", channel)
	}

	tmpl := set.Lookup(templateID)
	if tmpl == nil {
		return Message{}, apperrors.Internalf("no %s template %q", channel, templateID)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "render template %q", templateID)
	}

	text := strings.TrimSpace(buf.String())
	if channel == model.ChannelSMS {
		return Message{Body: text}, nil
	}

	subject, body, found := strings.Cut(text, "\n")
	if !found {
		body = ""
	}
	return Message{Subject: strings.TrimSpace(subject), Body: strings.TrimSpace(body)}, nil
}
