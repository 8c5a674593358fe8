package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/events"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
	"github.com/peopledesk/peopledesk/pkg/eventbus"
)

// ChangeRequestService drives the structure change request state machine. It
// reads the hierarchy to validate request targets but never mutates it;
// applying an approved request is a separate execution step.
type ChangeRequestService struct {
	requests    changerequest.Repository
	recorder    *ApprovalRecorder
	departments department.Repository
	positions   position.Repository
	publisher   eventbus.EventBus
}

func NewChangeRequestService(
	requests changerequest.Repository,
	recorder *ApprovalRecorder,
	departments department.Repository,
	positions position.Repository,
	publisher eventbus.EventBus,
) *ChangeRequestService {
	return &ChangeRequestService{
		requests:    requests,
		recorder:    recorder,
		departments: departments,
		positions:   positions,
		publisher:   publisher,
	}
}

type CreateChangeRequestInput struct {
	RequestedByEmployeeID uuid.UUID
	RequestType           changerequest.RequestType
	TargetDepartmentID    *uuid.UUID
	TargetPositionID      *uuid.UUID
	Details               json.RawMessage
	Reason                string
}

// CreateChangeRequest opens a draft and allocates its request number. The
// highest-number read and the insert share one transaction; a concurrent
// creation that races to the same number trips the unique index and surfaces
// as Conflict.
func (s *ChangeRequestService) CreateChangeRequest(ctx context.Context, in CreateChangeRequestInput) (*changerequest.ChangeRequest, error) {
	if in.RequestedByEmployeeID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_BODY", "requested_by_employee_id is required")
	}
	if !in.RequestType.Valid() {
		return nil, badRequest("ORG_INVALID_BODY", "unknown request type")
	}
	if in.TargetDepartmentID == nil && in.TargetPositionID == nil {
		return nil, badRequest("ORG_INVALID_BODY", "at least one of target_department_id and target_position_id is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, badRequest("ORG_INVALID_BODY", "reason is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		if err := s.validateTargets(txCtx, in.TargetDepartmentID, in.TargetPositionID); err != nil {
			return nil, err
		}

		number, err := s.allocateRequestNumber(txCtx, time.Now().UTC().Year())
		if err != nil {
			return nil, err
		}

		created, err := s.requests.Insert(txCtx, &changerequest.ChangeRequest{
			RequestNumber:         number,
			RequestedByEmployeeID: in.RequestedByEmployeeID,
			RequestType:           in.RequestType,
			TargetDepartmentID:    in.TargetDepartmentID,
			TargetPositionID:      in.TargetPositionID,
			Details:               in.Details,
			Reason:                reason,
			Status:                changerequest.StatusDraft,
		})
		if err != nil {
			return nil, mapPgError(err)
		}
		return created, nil
	})
}

type UpdateChangeRequestInput struct {
	RequestType        *changerequest.RequestType
	TargetDepartmentID *uuid.UUID
	TargetPositionID   *uuid.UUID
	Details            json.RawMessage
	Reason             *string
}

// UpdateChangeRequest patches the payload of a draft. Once submitted only the
// status may change.
func (s *ChangeRequestService) UpdateChangeRequest(ctx context.Context, id uuid.UUID, in UpdateChangeRequestInput) (*changerequest.ChangeRequest, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "change request id is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		current, err := s.requests.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		if current.Status != changerequest.StatusDraft {
			return nil, badRequest("ORG_INVALID_STATE", "only draft requests can be updated")
		}

		if in.RequestType != nil {
			if !in.RequestType.Valid() {
				return nil, badRequest("ORG_INVALID_BODY", "unknown request type")
			}
			current.RequestType = *in.RequestType
		}
		if in.TargetDepartmentID != nil {
			current.TargetDepartmentID = in.TargetDepartmentID
		}
		if in.TargetPositionID != nil {
			current.TargetPositionID = in.TargetPositionID
		}
		if current.TargetDepartmentID == nil && current.TargetPositionID == nil {
			return nil, badRequest("ORG_INVALID_BODY", "at least one of target_department_id and target_position_id is required")
		}
		if in.Details != nil {
			current.Details = in.Details
		}
		if in.Reason != nil {
			reason := strings.TrimSpace(*in.Reason)
			if reason == "" {
				return nil, badRequest("ORG_INVALID_BODY", "reason must not be empty")
			}
			current.Reason = reason
		}

		if err := s.validateTargets(txCtx, current.TargetDepartmentID, current.TargetPositionID); err != nil {
			return nil, err
		}

		updated, err := s.requests.UpdateDraft(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

// SubmitChangeRequest moves a draft to submitted and stamps who submitted it.
func (s *ChangeRequestService) SubmitChangeRequest(ctx context.Context, id, submitterID uuid.UUID) (*changerequest.ChangeRequest, error) {
	return s.transition(ctx, id, submitterID, changerequest.StatusSubmitted, nil, func(cr *changerequest.ChangeRequest, now time.Time) {
		cr.SubmittedByEmployeeID = &submitterID
		cr.SubmittedAt = &now
	})
}

type ReviewInput struct {
	Approved bool
	Comments *string
}

// ReviewChangeRequest decides a submitted request. Exactly one approval
// record is appended in the same transaction as the status change.
func (s *ChangeRequestService) ReviewChangeRequest(ctx context.Context, id, approverID uuid.UUID, in ReviewInput) (*changerequest.ChangeRequest, error) {
	decision := changerequest.DecisionRejected
	next := changerequest.StatusRejected
	if in.Approved {
		decision = changerequest.DecisionApproved
		next = changerequest.StatusApproved
	}
	return s.transition(ctx, id, approverID, next, &reviewDecision{decision: decision, comments: in.Comments}, nil)
}

func (s *ChangeRequestService) ApproveChangeRequest(ctx context.Context, id, approverID uuid.UUID, comments *string) (*changerequest.ChangeRequest, error) {
	return s.ReviewChangeRequest(ctx, id, approverID, ReviewInput{Approved: true, Comments: comments})
}

func (s *ChangeRequestService) RejectChangeRequest(ctx context.Context, id, approverID uuid.UUID, comments *string) (*changerequest.ChangeRequest, error) {
	return s.ReviewChangeRequest(ctx, id, approverID, ReviewInput{Approved: false, Comments: comments})
}

// CancelChangeRequest withdraws a draft or submitted request. Cancellation is
// not a decision, so no approval record is written.
func (s *ChangeRequestService) CancelChangeRequest(ctx context.Context, id, callerID uuid.UUID) (*changerequest.ChangeRequest, error) {
	return s.transition(ctx, id, callerID, changerequest.StatusCancelled, nil, nil)
}

func (s *ChangeRequestService) GetChangeRequest(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "change request id is required")
	}
	cr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return cr, nil
}

func (s *ChangeRequestService) ListChangeRequests(ctx context.Context, status changerequest.Status, limit int) ([]*changerequest.ChangeRequest, error) {
	if status != "" && !status.Valid() {
		return nil, badRequest("ORG_INVALID_BODY", "unknown status")
	}
	out, err := s.requests.List(ctx, status, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *ChangeRequestService) ListApprovals(ctx context.Context, id uuid.UUID) ([]*changerequest.Approval, error) {
	return s.recorder.ListFor(ctx, id)
}

type reviewDecision struct {
	decision changerequest.Decision
	comments *string
}

// transition applies one state change from the authoritative table, writing
// the optional approval record in the same transaction. The notification is
// published only after the transaction commits.
func (s *ChangeRequestService) transition(
	ctx context.Context,
	id, actorID uuid.UUID,
	next changerequest.Status,
	review *reviewDecision,
	stamp func(*changerequest.ChangeRequest, time.Time),
) (*changerequest.ChangeRequest, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "change request id is required")
	}
	if actorID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "actor id is required")
	}

	updated, err := inTx(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		current, err := s.requests.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		if !current.Status.CanTransition(next) {
			return nil, badRequest("ORG_INVALID_STATE", "request is "+string(current.Status)+", cannot move to "+string(next))
		}

		now := time.Now().UTC()
		current.Status = next
		if stamp != nil {
			stamp(current, now)
		}

		if review != nil {
			if _, err := s.recorder.Record(txCtx, current.ID, actorID, review.decision, review.comments); err != nil {
				return nil, err
			}
		}

		persisted, err := s.requests.UpdateStatus(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return persisted, nil
	})
	if err != nil {
		return nil, err
	}

	recordTransition(string(updated.Status))
	if s.publisher != nil {
		s.publisher.Publish(events.ChangeRequestTransitioned{
			RequestID:     updated.ID,
			RequestNumber: updated.RequestNumber,
			Status:        updated.Status,
			ActorID:       actorID,
			OccurredAt:    time.Now().UTC(),
		})
	}
	return updated, nil
}

// validateTargets confirms the referenced entities exist and are active.
func (s *ChangeRequestService) validateTargets(ctx context.Context, departmentID, positionID *uuid.UUID) error {
	if departmentID != nil {
		if err := requireActiveDepartment(ctx, s.departments, *departmentID); err != nil {
			return err
		}
	}
	if positionID != nil {
		if err := requireActivePosition(ctx, s.positions, *positionID, "target position"); err != nil {
			return err
		}
	}
	return nil
}

// allocateRequestNumber reads the highest existing number for the year and
// increments it. The unique index on request_number backs this up under
// concurrency.
func (s *ChangeRequestService) allocateRequestNumber(ctx context.Context, year int) (string, error) {
	prefix := changerequest.RequestNumberPrefix(year)
	highest, ok, err := s.requests.HighestRequestNumber(ctx, prefix)
	if err != nil {
		return "", mapPgError(err)
	}
	if !ok {
		highest = ""
	}
	number, err := changerequest.NextRequestNumber(year, highest)
	if err != nil {
		return "", newServiceError(http.StatusInternalServerError, "ORG_INTERNAL", "request number allocation failed", err)
	}
	return number, nil
}
