package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
	"github.com/repairhq/fieldservice/internal/service"
)

// In-memory repositories with the same compare-and-set semantics as the
// Postgres layer, so handler behavior can be asserted without a database.

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
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
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
	if p.Fields.TechnicianID != nil {
		job.TechnicianID = p.Fields.TechnicianID
	}
	if p.Fields.Cost != nil {
		job.Cost = p.Fields.Cost
	}
	if p.Fields.WorkPerformed != nil {
		job.WorkPerformed = p.Fields.WorkPerformed
	}
	if p.Fields.ScheduledAt != nil {
		job.ScheduledAt = p.Fields.ScheduledAt
	}
	if p.Fields.SetCompletedAt {
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
	if p.Fields.SupplierName != nil {
		order.SupplierName = p.Fields.SupplierName
	}
	if p.Fields.ActualCost != nil {
		order.ActualCost = p.Fields.ActualCost
	}
	if p.Fields.ConsumedForServiceID != nil {
		order.ConsumedForServiceID = p.Fields.ConsumedForServiceID
	}
	if p.Fields.SetOrderDate {
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
	r.seq++
	supplier := &model.Supplier{
		ID:        fmt.Sprintf("sup-%d", r.seq),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}
	r.suppliers[supplier.Name] = supplier
	copied := *supplier
	return &copied, nil
}

func (r *memSupplierRepo) GetByName(_ context.Context, name string) (*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	supplier, ok := r.suppliers[name]
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
	for i, e := range r.entries {
		if e.EntityKind == kind && e.EntityID == id {
			out = append(out, &model.AuditRecord{
				ID:         fmt.Sprintf("audit-%d", i+1),
				EntityKind: e.EntityKind,
				EntityID:   e.EntityID,
				Kind:       e.Kind,
				Summary:    e.Summary,
				CreatedAt:  time.Now().UTC(),
			})
		}
	}
	return out, nil
}

// testEnv bundles the router with the backing fakes so tests can seed state
// and inspect side effects directly.
type testEnv struct {
	handler   http.Handler
	jobs      *memJobRepo
	parts     *memPartRepo
	suppliers *memSupplierRepo
	audit     *memAuditRepo
	jobSvc    *service.JobService
}

func newTestEnv(t *testing.T, dispatcher service.EventDispatcher) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	jobs := newMemJobRepo()
	parts := newMemPartRepo()
	suppliers := newMemSupplierRepo()
	audit := &memAuditRepo{}

	jobSvc := service.NewJobService(service.JobServiceOptions{
		Jobs:       jobs,
		Audit:      audit,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	partSvc := service.NewPartOrderService(service.PartOrderServiceOptions{
		Parts:      parts,
		Jobs:       jobs,
		JobService: jobSvc,
		Audit:      audit,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	supplierSvc := service.NewSupplierService(service.SupplierServiceOptions{
		Suppliers: suppliers,
		Logger:    logger,
	})

	handler := NewRouter(RouterServices{
		Jobs:      jobSvc,
		Parts:     partSvc,
		Suppliers: supplierSvc,
		Audit:     audit,
		Logger:    logger,
	})

	return &testEnv{
		handler:   handler,
		jobs:      jobs,
		parts:     parts,
		suppliers: suppliers,
		audit:     audit,
		jobSvc:    jobSvc,
	}
}

// apiRequest describes one test call against the router.
type apiRequest struct {
	method string
	path   string
	actor  *model.Actor
	body   any
}

func (e *testEnv) do(t *testing.T, req apiRequest) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	httpReq := httptest.NewRequest(req.method, req.path, reader)
	if req.actor != nil {
		httpReq.Header.Set(HeaderActorRole, string(req.actor.Role))
		httpReq.Header.Set(HeaderActorID, req.actor.ID)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httpReq)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func adminActor() *model.Actor {
	return &model.Actor{Role: model.RoleAdmin, ID: "back-office-1"}
}

func techActor(id string) *model.Actor {
	return &model.Actor{Role: model.RoleTechnician, ID: id}
}

// seedPartOrder creates a requested part order directly through the repo so
// seeding does not trigger the pause-on-request side effect.
func (e *testEnv) seedPartOrder(t *testing.T, serviceID, techID string) *model.PartOrder {
	t.Helper()
	order, err := e.parts.Create(context.Background(), &model.CreatePartOrderRequest{
		ServiceID:    serviceID,
		TechnicianID: techID,
		PartName:     "compressor relay",
		Quantity:     1,
		Urgency:      model.UrgencyNormal,
	})
	require.NoError(t, err)
	return order
}

// seedJob creates a job directly through the service layer and walks it to
// the requested status with admin transitions.
func (e *testEnv) seedJob(t *testing.T, techID string, statuses ...model.JobStatus) *model.Job {
	t.Helper()
	ctx := context.Background()
	admin := model.Actor{Role: model.RoleAdmin, ID: "back-office-1"}

	job, _, err := e.jobSvc.Create(ctx, admin, &model.CreateJobRequest{
		ClientID:    "client-1",
		ApplianceID: "appliance-1",
	})
	require.NoError(t, err)

	for _, status := range statuses {
		req := &model.TransitionJobRequest{Target: status}
		if status == model.JobStatusAssigned {
			req.TechnicianID = &techID
		}
		job, _, err = e.jobSvc.Transition(ctx, admin, job.ID, req)
		require.NoError(t, err)
	}
	return job
}
