package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/delivery/mail"
	"github.com/repairhq/fieldservice/internal/delivery/sms"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

// In-memory repositories with the same CAS semantics as the Postgres layer,
// so concurrency behavior can be asserted without a database.

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
	seq  int
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*model.Job)}
}

func (r *memJobRepo) Create(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now().UTC()
	job := &model.Job{
		ID:                fmt.Sprintf("job-%d", r.seq),
		ClientID:          req.ClientID,
		ApplianceID:       req.ApplianceID,
		TechnicianID:      req.TechnicianID,
		BusinessPartnerID: req.BusinessPartnerID,
		Status:            model.JobStatusPending,
		WarrantyStatus:    req.WarrantyStatus,
		ScheduledAt:       req.ScheduledAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.jobs[job.ID] = job
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) List(_ context.Context, limit, offset int) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Job
	for _, job := range r.jobs {
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memJobRepo) TransitionStatus(_ context.Context, p core.TransitionStatusParams) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[p.ID]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", p.ID)
	}
	if job.Status != p.Expected {
		return nil, apperrors.Conflictf("job %s is %s, not %s as observed", p.ID, job.Status, p.Expected)
	}
	job.Status = p.Target
	f := p.Fields
	if f.TechnicianID != nil {
		job.TechnicianID = f.TechnicianID
	}
	if f.TechnicianNotes != nil {
		job.TechnicianNotes = f.TechnicianNotes
	}
	if f.WorkPerformed != nil {
		job.WorkPerformed = f.WorkPerformed
	}
	if f.UsedParts != nil {
		job.UsedParts = f.UsedParts
	}
	if f.Cost != nil {
		job.Cost = f.Cost
	}
	if f.IsCompletelyFixed != nil {
		job.IsCompletelyFixed = f.IsCompletelyFixed
	}
	if f.CustomerRefusalReason != nil {
		job.CustomerRefusalReason = f.CustomerRefusalReason
	}
	if f.ClientUnavailableReason != nil {
		job.ClientUnavailableReason = f.ClientUnavailableReason
	}
	if f.RepairFailureReason != nil {
		job.RepairFailureReason = f.RepairFailureReason
	}
	if f.ScheduledAt != nil {
		job.ScheduledAt = f.ScheduledAt
	}
	if f.SetCompletedAt {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	job.UpdatedAt = time.Now().UTC()
	copied := *job
	return &copied, nil
}

type memPartRepo struct {
	mu     sync.Mutex
	orders map[string]*model.PartOrder
	seq    int
}

func newMemPartRepo() *memPartRepo {
	return &memPartRepo{orders: make(map[string]*model.PartOrder)}
}

func (r *memPartRepo) Create(_ context.Context, req *model.CreatePartOrderRequest) (*model.PartOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now().UTC()
	order := &model.PartOrder{
		ID:           fmt.Sprintf("po-%d", r.seq),
		ServiceID:    req.ServiceID,
		TechnicianID: req.TechnicianID,
		PartName:     req.PartName,
		PartNumber:   req.PartNumber,
		Manufacturer: req.Manufacturer,
		Quantity:     req.Quantity,
		Urgency:      req.Urgency,
		Status:       model.PartStatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.orders[order.ID] = order
	copied := *order
	return &copied, nil
}

func (r *memPartRepo) GetByID(_ context.Context, id string) (*model.PartOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFoundf("part order %s not found", id)
	}
	copied := *order
	return &copied, nil
}

func (r *memPartRepo) ListByService(_ context.Context, serviceID string) ([]*model.PartOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PartOrder
	for _, order := range r.orders {
		if order.ServiceID == serviceID {
			copied := *order
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPartRepo) OpenOrdersForService(ctx context.Context, serviceID string) ([]*model.PartOrder, error) {
	all, err := r.ListByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	var out []*model.PartOrder
	for _, order := range all {
		switch order.Status.Normalize() {
		case model.PartStatusRequested, model.PartStatusAdminOrdered, model.PartStatusWaitingDelivery:
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *memPartRepo) TransitionStatus(_ context.Context, p core.TransitionPartStatusParams) (*model.PartOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[p.ID]
	if !ok {
		return nil, apperrors.NotFoundf("part order %s not found", p.ID)
	}
	if order.Status.Normalize() != p.Expected.Normalize() {
		return nil, apperrors.Conflictf("part order %s is %s, not %s as observed", p.ID, order.Status, p.Expected)
	}
	order.Status = p.Target.Normalize()
	f := p.Fields
	if f.SupplierName != nil {
		order.SupplierName = f.SupplierName
	}
	if f.ExpectedDelivery != nil {
		order.ExpectedDelivery = f.ExpectedDelivery
	}
	if f.ActualCost != nil {
		order.ActualCost = f.ActualCost
	}
	if f.ConsumedForServiceID != nil {
		order.ConsumedForServiceID = f.ConsumedForServiceID
	}
	if f.AdminNotes != nil {
		order.AdminNotes = f.AdminNotes
	}
	if f.SetOrderDate {
		now := time.Now().UTC()
		order.OrderDate = &now
	}
	order.UpdatedAt = time.Now().UTC()
	copied := *order
	return &copied, nil
}

type memSupplierRepo struct {
	mu        sync.Mutex
	suppliers map[string]*model.Supplier
	seq       int
}

func newMemSupplierRepo() *memSupplierRepo {
	return &memSupplierRepo{suppliers: make(map[string]*model.Supplier)}
}

func (r *memSupplierRepo) Create(_ context.Context, req *model.CreateSupplierRequest) (*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(req.Name)
	if _, exists := r.suppliers[key]; exists {
		return nil, apperrors.Conflictf("supplier %q already exists", req.Name)
	}
	r.seq++
	supplier := &model.Supplier{
		ID:        fmt.Sprintf("sup-%d", r.seq),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}
	r.suppliers[key] = supplier
	copied := *supplier
	return &copied, nil
}

func (r *memSupplierRepo) GetByName(_ context.Context, name string) (*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	supplier, ok := r.suppliers[strings.ToLower(name)]
	if !ok {
		return nil, apperrors.NotFoundf("supplier %q not found", name)
	}
	copied := *supplier
	return &copied, nil
}

func (r *memSupplierRepo) List(_ context.Context) ([]*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Supplier
	for _, supplier := range r.suppliers {
		copied := *supplier
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []core.AppendAuditParams
}

func (r *memAuditRepo) Append(_ context.Context, p core.AppendAuditParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, p)
	return nil
}

func (r *memAuditRepo) ListByEntity(_ context.Context, kind, id string) ([]*model.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuditRecord
	for _, e := range r.entries {
		if e.EntityKind == kind && e.EntityID == id {
			out = append(out, &model.AuditRecord{
				EntityKind: e.EntityKind,
				EntityID:   e.EntityID,
				Kind:       e.Kind,
				Summary:    e.Summary,
			})
		}
	}
	return out, nil
}

func (r *memAuditRepo) summaries(kind, id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.EntityKind == kind && e.EntityID == id {
			out = append(out, e.Summary)
		}
	}
	return out
}

type stubContacts struct {
	lookupFn func(role model.Role, id string) (*model.Contact, error)
}

func (s *stubContacts) Lookup(_ context.Context, role model.Role, id string) (*model.Contact, error) {
	return s.lookupFn(role, id)
}

type stubDispatcher struct {
	mu     sync.Mutex
	events []model.LifecycleEvent
}

func (s *stubDispatcher) Dispatch(_ context.Context, event model.LifecycleEvent) *model.NotificationReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return &model.NotificationReport{Event: event.Type}
}

func (s *stubDispatcher) eventTypes() []model.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

type stubQueue struct {
	mu    sync.Mutex
	tasks []DeliveryTask
}

func (q *stubQueue) Enqueue(task DeliveryTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return true
}

type fakeMailSender struct {
	mu   sync.Mutex
	sent []mail.Envelope
	fail bool
}

func (f *fakeMailSender) Send(_ context.Context, env mail.Envelope) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	if f.fail {
		return 1, apperrors.Delivery("smtp unavailable")
	}
	return 1, nil
}

type fakeSMSSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeSMSSender) Send(_ context.Context, phone, text string) (sms.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, phone+": "+text)
	if f.fail {
		return sms.Result{Phone: phone, Segments: 1, FailedSegments: []int{1}}, apperrors.Delivery("gateway unavailable")
	}
	return sms.Result{Phone: phone, Segments: 1}, nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
