package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairhq/fieldservice/internal/domain/model"
)

// syncQueue executes queued tasks immediately so the whole fan-out is
// observable within the test.
type syncQueue struct {
	dispatcher *Dispatcher
	delivered  []model.NotificationEntry
}

func (q *syncQueue) Enqueue(task DeliveryTask) bool {
	q.delivered = append(q.delivered, q.dispatcher.Deliver(context.Background(), task))
	return true
}

func TestFullRepairWorkflow(t *testing.T) {
	ctx := context.Background()

	jobs := newMemJobRepo()
	parts := newMemPartRepo()
	suppliers := newMemSupplierRepo()
	audit := &memAuditRepo{}
	mailSender := &fakeMailSender{}
	smsSender := &fakeSMSSender{}
	seedSuppliers(t, suppliers, "ACME Parts")

	queue := &syncQueue{}
	dispatcher := NewDispatcher(DispatcherOptions{
		Contacts: directoryFor(map[model.Role]model.Contact{
			model.RoleClient:     {Name: "Ada", Email: "ada@example.com", Phone: "+12125550175"},
			model.RoleTechnician: {Name: "Tess", Email: "tess@example.com"},
			model.RoleAdmin:      {Name: "Back Office", Email: "office@example.com"},
		}),
		Router:      NewSupplierRouter(SupplierRouterOptions{Suppliers: suppliers}),
		Composer:    testComposer(t),
		Mail:        mailSender,
		SMS:         smsSender,
		Audit:       audit,
		Queue:       queue,
		SyncPrimary: true,
	})
	queue.dispatcher = dispatcher

	jobSvc := NewJobService(JobServiceOptions{Jobs: jobs, Audit: audit, Dispatcher: dispatcher})
	partSvc := NewPartOrderService(PartOrderServiceOptions{
		Parts: parts, Jobs: jobs, JobService: jobSvc, Audit: audit, Dispatcher: dispatcher,
	})

	// Intake opens the job.
	job, _, err := jobSvc.Create(ctx, adminActor, &model.CreateJobRequest{
		ClientID: "client-1", ApplianceID: "washer-9",
	})
	require.NoError(t, err)

	// Back office assigns a technician.
	job, assignReport, err := jobSvc.Transition(ctx, adminActor, job.ID, &model.TransitionJobRequest{
		Target: model.JobStatusAssigned, TechnicianID: strPtr("tech-1"),
	})
	require.NoError(t, err)
	assertAttemptedClientEntry(t, assignReport)

	tech := model.Actor{Role: model.RoleTechnician, ID: "tech-1"}
	job, _, err = jobSvc.Transition(ctx, tech, job.ID, &model.TransitionJobRequest{
		Target: model.JobStatusInProgress,
	})
	require.NoError(t, err)

	// The technician needs a part; the job pauses.
	order, _, err := partSvc.Create(ctx, tech, &model.CreatePartOrderRequest{
		ServiceID: job.ID, TechnicianID: "tech-1", PartName: "drain pump", Quantity: 1,
	})
	require.NoError(t, err)

	paused, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusWaitingParts, paused.Status)

	// Back office orders, the supplier confirms, the part arrives.
	order, _, err = partSvc.Transition(ctx, adminActor, order.ID, &model.TransitionPartOrderRequest{
		Target: model.PartStatusAdminOrdered, SupplierName: "ACME Parts",
	})
	require.NoError(t, err)
	order, _, err = partSvc.Transition(ctx, adminActor, order.ID, &model.TransitionPartOrderRequest{
		Target: model.PartStatusWaitingDelivery, ActualCost: floatPtr(18.40),
	})
	require.NoError(t, err)
	order, _, err = partSvc.Transition(ctx, adminActor, order.ID, &model.TransitionPartOrderRequest{
		Target: model.PartStatusAvailable,
	})
	require.NoError(t, err)

	resumed, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusInProgress, resumed.Status)

	// The technician installs the part and completes the job.
	order, _, err = partSvc.Transition(ctx, tech, order.ID, &model.TransitionPartOrderRequest{
		Target: model.PartStatusConsumed, ConsumedForServiceID: job.ID,
	})
	require.NoError(t, err)

	job, completeReport, err := jobSvc.Transition(ctx, tech, job.ID, &model.TransitionJobRequest{
		Target:          model.JobStatusCompleted,
		ExpectedStatus:  model.JobStatusInProgress,
		TechnicianNotes: "pump replaced, test cycle ok",
		WorkPerformed:   "drain pump replacement",
	})
	require.NoError(t, err)
	assertAttemptedClientEntry(t, completeReport)

	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, model.PartStatusConsumed, order.Status)

	// The supplier got the purchase order.
	foundSupplierMail := false
	for _, env := range mailSender.sent {
		if env.To == supplierEmail("ACME Parts") {
			foundSupplierMail = true
		}
	}
	assert.True(t, foundSupplierMail, "supplier received the order email")

	// Every transition and delivery outcome is on the audit trail.
	jobTrail := audit.summaries("job", job.ID)
	assert.Contains(t, jobTrail, "created as pending")
	assert.Contains(t, jobTrail, "in_progress -> completed")
	partTrail := audit.summaries("part_order", order.ID)
	assert.Contains(t, partTrail, "requested -> admin_ordered")
	assert.Contains(t, partTrail, "available -> consumed")
}

func assertAttemptedClientEntry(t *testing.T, report *model.NotificationReport) {
	t.Helper()
	require.NotNil(t, report)
	for _, entry := range report.Entries {
		if entry.Role == model.RoleClient && entry.Attempted {
			return
		}
	}
	t.Fatalf("report for %s has no attempted client entry: %+v", report.Event, report.Entries)
}
