package changerequest

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, cr *ChangeRequest) (*ChangeRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ChangeRequest, error)

	// UpdateDraft persists payload fields; callers guarantee the request is
	// still a draft.
	UpdateDraft(ctx context.Context, cr *ChangeRequest) (*ChangeRequest, error)

	// UpdateStatus persists a status change plus submission stamps.
	UpdateStatus(ctx context.Context, cr *ChangeRequest) (*ChangeRequest, error)

	// HighestRequestNumber returns the lexicographically highest request
	// number with the given prefix, or ok=false when none exists.
	HighestRequestNumber(ctx context.Context, prefix string) (number string, ok bool, err error)

	List(ctx context.Context, status Status, limit int) ([]*ChangeRequest, error)
}

type ApprovalRepository interface {
	// Insert appends one decision record. Approval rows are never updated
	// or deleted.
	Insert(ctx context.Context, a *Approval) (*Approval, error)

	// ListForRequest returns the full trail ordered by decided_at ascending.
	ListForRequest(ctx context.Context, changeRequestID uuid.UUID) ([]*Approval, error)
}
