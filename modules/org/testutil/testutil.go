// Package testutil provides in-memory repository implementations for service
// tests. The fakes mirror the storage contracts the pg repositories honor:
// pgx.ErrNoRows for missing rows and pgconn.PgError for constraint hits, so
// the service error mapping is exercised the same way in tests as in
// production.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

// TxContext returns a context that satisfies the ambient transaction the
// services expect, without a database. composables.InTx reuses it instead of
// opening a real transaction.
func TxContext() context.Context {
	return WithTx(context.Background())
}

// WithTx adds the same fake transaction to an existing context, for tests
// that drive handlers through the HTTP stack.
func WithTx(ctx context.Context) context.Context {
	return composables.WithTx(ctx, nopTx{})
}

type nopTx struct{ pgx.Tx }

type DepartmentRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*department.Department
}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{items: map[uuid.UUID]*department.Department{}}
}

func (r *DepartmentRepository) Insert(_ context.Context, d *department.Department) (*department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Code == d.Code {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "departments_code_key"}
		}
	}
	clone := *d
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *DepartmentRepository) Update(_ context.Context, d *department.Department) (*department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.ID]; !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *d
	clone.UpdatedAt = time.Now().UTC()
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *DepartmentRepository) GetByID(_ context.Context, id uuid.UUID) (*department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *d
	return &out, nil
}

func (r *DepartmentRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.items {
		if d.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *DepartmentRepository) List(_ context.Context, activeOnly bool) ([]*department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*department.Department, 0, len(r.items))
	for _, d := range r.items {
		if activeOnly && !d.IsActive {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type PositionRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*position.Position
}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{items: map[uuid.UUID]*position.Position{}}
}

func (r *PositionRepository) Insert(_ context.Context, p *position.Position) (*position.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Code == p.Code {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "positions_code_key"}
		}
	}
	clone := *p
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *PositionRepository) Update(_ context.Context, p *position.Position) (*position.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *p
	clone.UpdatedAt = time.Now().UTC()
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *PositionRepository) GetByID(_ context.Context, id uuid.UUID) (*position.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *p
	return &out, nil
}

func (r *PositionRepository) Lock(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PositionRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *PositionRepository) GetReportsTo(_ context.Context, id uuid.UUID) (*uuid.UUID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || !p.IsActive {
		return nil, false, nil
	}
	if p.ReportsToPositionID == nil {
		return nil, true, nil
	}
	parent := *p.ReportsToPositionID
	return &parent, true, nil
}

func (r *PositionRepository) CountActiveSubordinates(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.items {
		if p.IsActive && p.ReportsToPositionID != nil && *p.ReportsToPositionID == id {
			count++
		}
	}
	return count, nil
}

func (r *PositionRepository) ListActive(_ context.Context) ([]*position.Position, error) {
	return r.list(func(p *position.Position) bool { return p.IsActive })
}

func (r *PositionRepository) ListActiveByDepartment(_ context.Context, departmentID uuid.UUID) ([]*position.Position, error) {
	return r.list(func(p *position.Position) bool {
		return p.IsActive && p.DepartmentID == departmentID
	})
}

func (r *PositionRepository) list(keep func(*position.Position) bool) ([]*position.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*position.Position, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// SetReportsTo rewires an edge directly, bypassing service validation. Tests
// use it to stage corrupted graphs.
func (r *PositionRepository) SetReportsTo(id uuid.UUID, reportsTo *uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		p.ReportsToPositionID = reportsTo
	}
}

type ChangeRequestRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*changerequest.ChangeRequest
}

func NewChangeRequestRepository() *ChangeRequestRepository {
	return &ChangeRequestRepository{items: map[uuid.UUID]*changerequest.ChangeRequest{}}
}

func (r *ChangeRequestRepository) Insert(_ context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.RequestNumber == cr.RequestNumber {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "structure_change_requests_request_number_key"}
		}
	}
	clone := *cr
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *ChangeRequestRepository) GetByID(_ context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *cr
	return &out, nil
}

func (r *ChangeRequestRepository) UpdateDraft(_ context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	return r.update(cr)
}

func (r *ChangeRequestRepository) UpdateStatus(_ context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	return r.update(cr)
}

func (r *ChangeRequestRepository) update(cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[cr.ID]; !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *cr
	clone.UpdatedAt = time.Now().UTC()
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *ChangeRequestRepository) HighestRequestNumber(_ context.Context, prefix string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	highest := ""
	for _, cr := range r.items {
		if len(cr.RequestNumber) < len(prefix) || cr.RequestNumber[:len(prefix)] != prefix {
			continue
		}
		if numberLess(highest, cr.RequestNumber) {
			highest = cr.RequestNumber
		}
	}
	return highest, highest != "", nil
}

// numberLess orders by length before value, matching the pg repository.
func numberLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (r *ChangeRequestRepository) List(_ context.Context, status changerequest.Status, limit int) ([]*changerequest.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*changerequest.ChangeRequest, 0, len(r.items))
	for _, cr := range r.items {
		if status != "" && cr.Status != status {
			continue
		}
		clone := *cr
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type ApprovalRepository struct {
	mu    sync.Mutex
	items []*changerequest.Approval
}

func NewApprovalRepository() *ApprovalRepository {
	return &ApprovalRepository{}
}

func (r *ApprovalRepository) Insert(_ context.Context, a *changerequest.Approval) (*changerequest.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	clone.ID = uuid.New()
	r.items = append(r.items, &clone)
	out := clone
	return &out, nil
}

func (r *ApprovalRepository) ListForRequest(_ context.Context, changeRequestID uuid.UUID) ([]*changerequest.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*changerequest.Approval, 0, len(r.items))
	for _, a := range r.items {
		if a.ChangeRequestID == changeRequestID {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DecidedAt.Before(out[j].DecidedAt) })
	return out, nil
}
