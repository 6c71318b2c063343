package service

import (
	"context"
	"log/slog"

	"github.com/repairhq/fieldservice/internal/composer"
	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/delivery/mail"
	"github.com/repairhq/fieldservice/internal/delivery/sms"
	"github.com/repairhq/fieldservice/internal/domain/model"
)

// DeliveryTask is one (role, channel) delivery resolved from an event. Tasks
// are executed by the background notify runner, or inline for the primary
// notification.
type DeliveryTask struct {
	Event         model.LifecycleEvent
	Role          model.Role
	TemplateID    string
	Channel       model.Channel
	Recipient     string
	RecipientName string
}

// DeliveryQueue hands tasks to the background worker pool. Enqueue must not
// block; it returns false when the queue is full or stopped.
type DeliveryQueue interface {
	Enqueue(task DeliveryTask) bool
}

// MailSender is the email engine surface the dispatcher needs.
type MailSender interface {
	Send(ctx context.Context, env mail.Envelope) (int, error)
}

// SMSSender is the text-message engine surface the dispatcher needs.
type SMSSender interface {
	Send(ctx context.Context, phone, text string) (sms.Result, error)
}

// Dispatcher fans a lifecycle event out to its audience over both channels.
// The triggering transition never waits on delivery; every outcome lands in
// the audit trail.
type Dispatcher struct {
	contacts    core.ContactDirectory
	router      *SupplierRouter
	composer    *composer.Composer
	mail        MailSender
	sms         SMSSender
	audit       core.AuditRepository
	queue       DeliveryQueue
	syncPrimary bool
	logger      *slog.Logger
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Contacts core.ContactDirectory
	Router   *SupplierRouter
	Composer *composer.Composer
	Mail     MailSender
	SMS      SMSSender
	Audit    core.AuditRepository
	Queue    DeliveryQueue
	// SyncPrimary attempts the first client email synchronously so the
	// transition response carries a real outcome for the dominant channel.
	SyncPrimary bool
	Logger      *slog.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		contacts:    opts.Contacts,
		router:      opts.Router,
		composer:    opts.Composer,
		mail:        opts.Mail,
		sms:         opts.SMS,
		audit:       opts.Audit,
		queue:       opts.Queue,
		syncPrimary: opts.SyncPrimary,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Dispatch resolves the audience for event, optionally delivers the primary
// notification inline, queues the rest, and returns the best-effort report.
// It never returns an error: delivery problems are report and audit material,
// not transition failures.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.LifecycleEvent) *model.NotificationReport {
	report := &model.NotificationReport{Event: event.Type}

	tasks := d.resolveTasks(ctx, event, report)

	primaryDone := false
	for _, task := range tasks {
		if d.syncPrimary && !primaryDone && task.Role == model.RoleClient && task.Channel == model.ChannelEmail {
			report.Entries = append(report.Entries, d.Deliver(ctx, task))
			primaryDone = true
			continue
		}
		entry := model.NotificationEntry{Role: task.Role, Channel: task.Channel, Recipient: task.Recipient}
		if d.queue == nil || !d.queue.Enqueue(task) {
			entry.Error = "delivery queue unavailable"
			d.logger.ErrorContext(ctx, "failed to queue notification",
				"event", event.Type, "role", task.Role, "channel", task.Channel)
		}
		report.Entries = append(report.Entries, entry)
	}

	if failed := report.Failed(); len(failed) > 0 {
		d.logger.WarnContext(ctx, "notification deliveries failed",
			"event", event.Type, "failed", len(failed), "total", len(report.Entries))
	}
	return report
}

// resolveTasks looks up a contact per audience entry and expands it into one
// task per reachable channel. Resolution failures become report entries.
func (d *Dispatcher) resolveTasks(
	ctx context.Context,
	event model.LifecycleEvent,
	report *model.NotificationReport,
) []DeliveryTask {
	var tasks []DeliveryTask
	for _, member := range audienceFor(event) {
		contact, err := d.resolveContact(ctx, member.Role, event)
		if err != nil {
			d.logger.WarnContext(ctx, "contact resolution failed",
				"event", event.Type, "role", member.Role, "err", err)
			report.Entries = append(report.Entries, model.NotificationEntry{
				Role: member.Role, Channel: model.ChannelEmail, Error: err.Error(),
			})
			continue
		}
		if contact == nil {
			d.recordUnroutable(ctx, event, member.Role, report)
			continue
		}
		if !contact.Reachable() {
			report.Entries = append(report.Entries, model.NotificationEntry{
				Role: member.Role, Channel: model.ChannelEmail, Error: "contact has no email or phone",
			})
			continue
		}
		if contact.Email != "" {
			tasks = append(tasks, DeliveryTask{
				Event: event, Role: member.Role, TemplateID: member.TemplateID,
				Channel: model.ChannelEmail, Recipient: contact.Email, RecipientName: contact.Name,
			})
		}
		if contact.Phone != "" {
			tasks = append(tasks, DeliveryTask{
				Event: event, Role: member.Role, TemplateID: member.TemplateID,
				Channel: model.ChannelSMS, Recipient: contact.Phone, RecipientName: contact.Name,
			})
		}
	}
	return tasks
}

// resolveContact finds the reachability record for a role. Suppliers go
// through the routing table; everyone else through the contact directory.
// A nil contact with nil error means supplier routing was unresolved.
func (d *Dispatcher) resolveContact(ctx context.Context, role model.Role, event model.LifecycleEvent) (*model.Contact, error) {
	if role == model.RoleSupplier {
		supplier, err := d.router.Resolve(ctx, event.Part)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, nil
		}
		contact := supplier.Contact()
		return &contact, nil
	}

	id := ""
	if job := event.Job; job != nil {
		switch role {
		case model.RoleClient:
			id = job.ClientID
		case model.RoleTechnician:
			if job.TechnicianID != nil {
				id = *job.TechnicianID
			}
		case model.RolePartner:
			if job.BusinessPartnerID != nil {
				id = *job.BusinessPartnerID
			}
		case model.RoleAdmin:
			// Back office is a directory-level default, no per-job id.
		}
	}
	return d.contacts.Lookup(ctx, role, id)
}

func (d *Dispatcher) recordUnroutable(ctx context.Context, event model.LifecycleEvent, role model.Role, report *model.NotificationReport) {
	const msg = "no supplier address configured"
	report.Entries = append(report.Entries, model.NotificationEntry{
		Role: role, Channel: model.ChannelEmail, Error: msg,
	})
	if err := d.audit.Append(ctx, core.AppendAuditParams{
		EntityKind: event.EntityKind(),
		EntityID:   event.EntityID(),
		Kind:       model.AuditNotification,
		Summary:    msg,
		Detail: model.NotificationAuditDetail{
			Event: event.Type, Role: role, Channel: model.ChannelEmail, LastError: msg,
		},
	}); err != nil {
		d.logger.ErrorContext(ctx, "failed to audit unroutable notification", "event", event.Type, "err", err)
	}
}

// Deliver composes and sends one task, records the outcome in the audit
// trail, and returns the report entry.
func (d *Dispatcher) Deliver(ctx context.Context, task DeliveryTask) model.NotificationEntry {
	entry := model.NotificationEntry{
		Role:      task.Role,
		Channel:   task.Channel,
		Recipient: task.Recipient,
		Attempted: true,
	}

	msg, err := d.composer.Render(task.TemplateID, task.Channel, composer.Data{
		RecipientName: task.RecipientName,
		Role:          task.Role,
		Job:           task.Event.Job,
		Part:          task.Event.Part,
	})
	if err != nil {
		entry.Error = err.Error()
		d.recordOutcome(ctx, task, entry)
		return entry
	}

	switch task.Channel {
	case model.ChannelEmail:
		attempts, sendErr := d.mail.Send(ctx, mail.Envelope{To: task.Recipient, Subject: msg.Subject, Body: msg.Body})
		entry.Attempts = attempts
		if sendErr != nil {
			entry.Error = sendErr.Error()
		} else {
			entry.Succeeded = true
		}
	case model.ChannelSMS:
		res, sendErr := d.sms.Send(ctx, task.Recipient, msg.Body)
		entry.Attempts = res.Segments
		if sendErr != nil {
			entry.Error = sendErr.Error()
		} else {
			entry.Succeeded = true
		}
	}

	d.recordOutcome(ctx, task, entry)
	return entry
}

func (d *Dispatcher) recordOutcome(ctx context.Context, task DeliveryTask, entry model.NotificationEntry) {
	summary := "notification sent"
	if !entry.Succeeded {
		summary = "notification failed"
	}
	if err := d.audit.Append(ctx, core.AppendAuditParams{
		EntityKind: task.Event.EntityKind(),
		EntityID:   task.Event.EntityID(),
		Kind:       model.AuditNotification,
		Summary:    summary,
		Detail: model.NotificationAuditDetail{
			Event:     task.Event.Type,
			Role:      entry.Role,
			Channel:   entry.Channel,
			Recipient: entry.Recipient,
			Attempts:  entry.Attempts,
			Succeeded: entry.Succeeded,
			LastError: entry.Error,
		},
	}); err != nil {
		d.logger.ErrorContext(ctx, "failed to audit notification outcome",
			"event", task.Event.Type, "role", entry.Role, "channel", entry.Channel, "err", err)
	}

	level := slog.LevelInfo
	if !entry.Succeeded {
		level = slog.LevelWarn
	}
	d.logger.Log(ctx, level, "notification outcome",
		"event", task.Event.Type,
		"role", entry.Role,
		"channel", entry.Channel,
		"succeeded", entry.Succeeded,
		"attempts", entry.Attempts)
}
