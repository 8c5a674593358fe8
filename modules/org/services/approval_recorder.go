package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
)

// ApprovalRecorder is the append-only writer for review decisions. A
// correction is recorded as a new row; existing rows are never touched.
type ApprovalRecorder struct {
	approvals changerequest.ApprovalRepository
}

func NewApprovalRecorder(approvals changerequest.ApprovalRepository) *ApprovalRecorder {
	return &ApprovalRecorder{approvals: approvals}
}

func (s *ApprovalRecorder) Record(ctx context.Context, changeRequestID, approverID uuid.UUID, decision changerequest.Decision, comments *string) (*changerequest.Approval, error) {
	if changeRequestID == uuid.Nil || approverID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "change request id and approver id are required")
	}
	if !decision.Valid() {
		return nil, badRequest("ORG_INVALID_BODY", "decision must be approved or rejected")
	}

	created, err := s.approvals.Insert(ctx, &changerequest.Approval{
		ChangeRequestID:    changeRequestID,
		ApproverEmployeeID: approverID,
		Decision:           decision,
		Comments:           comments,
		DecidedAt:          time.Now().UTC(),
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return created, nil
}

func (s *ApprovalRecorder) ListFor(ctx context.Context, changeRequestID uuid.UUID) ([]*changerequest.Approval, error) {
	if changeRequestID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "change request id is required")
	}
	out, err := s.approvals.ListForRequest(ctx, changeRequestID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}
