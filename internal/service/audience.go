package service

import (
	"github.com/repairhq/fieldservice/internal/domain/model"
)

// audienceEntry names one party to notify and the template to render.
type audienceEntry struct {
	Role       model.Role
	TemplateID string
}

// audienceFor yields the parties interested in an event. The switch is
// exhaustive over the closed event set; conditional entries (partner,
// technician) appear only when the job references them.
func audienceFor(event model.LifecycleEvent) []audienceEntry {
	job := event.Job

	var out []audienceEntry
	add := func(role model.Role, templateID string) {
		out = append(out, audienceEntry{Role: role, TemplateID: templateID})
	}
	addTechnician := func(templateID string) {
		if job != nil && job.TechnicianID != nil {
			add(model.RoleTechnician, templateID)
		}
	}
	addPartner := func(templateID string) {
		if job != nil && job.BusinessPartnerID != nil {
			add(model.RolePartner, templateID)
		}
	}

	switch event.Type {
	case model.EventJobCreated:
		add(model.RoleClient, "job_created")
		addPartner("job_created")
	case model.EventJobAssigned:
		add(model.RoleClient, "job_assigned")
		addTechnician("job_assigned")
	case model.EventJobScheduled:
		add(model.RoleClient, "job_scheduled")
		addTechnician("job_scheduled")
	case model.EventJobInProgress:
		add(model.RoleClient, "job_in_progress")
	case model.EventJobWaitingParts:
		add(model.RoleClient, "job_waiting_parts")
	case model.EventJobClientNotHome:
		add(model.RoleClient, "job_client_not_home")
		add(model.RoleAdmin, "job_client_not_home")
	case model.EventJobClientNotAnswering:
		add(model.RoleClient, "job_client_not_answering")
		add(model.RoleAdmin, "job_client_not_answering")
	case model.EventJobCustomerRefused:
		add(model.RoleAdmin, "job_customer_refused")
		addPartner("job_customer_refused")
	case model.EventJobRepairFailed:
		add(model.RoleClient, "job_repair_failed")
		add(model.RoleAdmin, "job_repair_failed")
		addPartner("job_repair_failed")
	case model.EventJobCompleted:
		add(model.RoleClient, "job_completed")
		addPartner("job_completed")
	case model.EventJobCancelled:
		add(model.RoleClient, "job_cancelled")
		addTechnician("job_cancelled")
	case model.EventPartRequested:
		add(model.RoleAdmin, "part_requested")
	case model.EventPartOrdered:
		add(model.RoleSupplier, "part_order_supplier")
		addTechnician("part_ordered")
	case model.EventPartWaitingDelivery:
		add(model.RoleAdmin, "part_waiting_delivery")
		addTechnician("part_waiting_delivery")
	case model.EventPartAvailable:
		add(model.RoleClient, "part_available")
		addTechnician("part_available")
	case model.EventPartConsumed:
		add(model.RoleAdmin, "part_consumed")
	case model.EventPartCancelled:
		add(model.RoleAdmin, "part_cancelled")
		addTechnician("part_cancelled")
	}
	return out
}
