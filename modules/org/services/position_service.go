package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
)

type PositionService struct {
	positions   position.Repository
	departments department.Repository
}

func NewPositionService(positions position.Repository, departments department.Repository) *PositionService {
	return &PositionService{positions: positions, departments: departments}
}

type CreatePositionInput struct {
	Code                string
	Title               string
	Description         *string
	DepartmentID        uuid.UUID
	ReportsToPositionID *uuid.UUID
}

func (s *PositionService) CreatePosition(ctx context.Context, in CreatePositionInput) (*position.Position, error) {
	code := position.NormalizeCode(in.Code)
	title := strings.TrimSpace(in.Title)
	if code == "" || title == "" {
		return nil, badRequest("ORG_INVALID_BODY", "code and title are required")
	}
	if in.DepartmentID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_BODY", "department_id is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*position.Position, error) {
		exists, err := s.positions.CodeExists(txCtx, code)
		if err != nil {
			return nil, mapPgError(err)
		}
		if exists {
			return nil, conflict("ORG_CODE_CONFLICT", "position code already exists", nil)
		}

		if err := requireActiveDepartment(txCtx, s.departments, in.DepartmentID); err != nil {
			return nil, err
		}
		if in.ReportsToPositionID != nil {
			if err := requireActivePosition(txCtx, s.positions, *in.ReportsToPositionID, "reporting position"); err != nil {
				return nil, err
			}
		}

		created, err := s.positions.Insert(txCtx, &position.Position{
			Code:                code,
			Title:               title,
			Description:         in.Description,
			DepartmentID:        in.DepartmentID,
			ReportsToPositionID: in.ReportsToPositionID,
			IsActive:            true,
		})
		if err != nil {
			return nil, mapPgError(err)
		}
		return created, nil
	})
}

type UpdatePositionInput struct {
	Code        *string
	Title       *string
	Description *string
}

func (s *PositionService) UpdatePosition(ctx context.Context, id uuid.UUID, in UpdatePositionInput) (*position.Position, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "position id is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*position.Position, error) {
		current, err := s.positions.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}

		if in.Code != nil {
			code := position.NormalizeCode(*in.Code)
			if code == "" {
				return nil, badRequest("ORG_INVALID_BODY", "code must not be empty")
			}
			if code != current.Code {
				exists, err := s.positions.CodeExists(txCtx, code)
				if err != nil {
					return nil, mapPgError(err)
				}
				if exists {
					return nil, conflict("ORG_CODE_CONFLICT", "position code already exists", nil)
				}
				current.Code = code
			}
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return nil, badRequest("ORG_INVALID_BODY", "title must not be empty")
			}
			current.Title = title
		}
		if in.Description != nil {
			current.Description = in.Description
		}

		updated, err := s.positions.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

// RemovePosition soft-deletes a position. It refuses while any active
// position still reports to it; subordinates must be re-parented first.
func (s *PositionService) RemovePosition(ctx context.Context, id uuid.UUID) (*position.Position, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "position id is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*position.Position, error) {
		current, err := s.positions.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}

		subordinates, err := s.positions.CountActiveSubordinates(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		if subordinates > 0 {
			return nil, badRequest("ORG_HAS_SUBORDINATES", "position has active subordinates; re-parent them first")
		}

		current.IsActive = false
		updated, err := s.positions.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

// AssignReportingPosition sets (or clears, when reportsTo is nil) the
// reporting line of a position. The validating walk and the edge write share
// one transaction, so a concurrent graph edit surfaces as a write conflict
// rather than a silent cycle.
func (s *PositionService) AssignReportingPosition(ctx context.Context, positionID uuid.UUID, reportsTo *uuid.UUID) (*position.Position, error) {
	if positionID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "position id is required")
	}
	if reportsTo != nil && *reportsTo == positionID {
		return nil, badRequest("ORG_SELF_REPORT", "position cannot report to itself")
	}

	return inTx(ctx, func(txCtx context.Context) (*position.Position, error) {
		if err := s.positions.Lock(txCtx, positionID); err != nil {
			return nil, mapPgError(err)
		}
		current, err := s.positions.GetByID(txCtx, positionID)
		if err != nil {
			return nil, mapPgError(err)
		}

		if reportsTo != nil {
			if err := requireActivePosition(txCtx, s.positions, *reportsTo, "reporting position"); err != nil {
				return nil, err
			}
			if err := s.detectReportingCycle(txCtx, positionID, *reportsTo); err != nil {
				return nil, err
			}
		}

		current.ReportsToPositionID = reportsTo
		updated, err := s.positions.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

// AssignDepartmentToPosition moves a position to another department. A no-op
// move is rejected: it signals caller intent mismatch, not success.
func (s *PositionService) AssignDepartmentToPosition(ctx context.Context, positionID, departmentID uuid.UUID) (*position.Position, error) {
	if positionID == uuid.Nil || departmentID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "position id and department id are required")
	}

	return inTx(ctx, func(txCtx context.Context) (*position.Position, error) {
		current, err := s.positions.GetByID(txCtx, positionID)
		if err != nil {
			return nil, mapPgError(err)
		}
		if current.DepartmentID == departmentID {
			return nil, badRequest("ORG_SAME_DEPARTMENT", "position is already assigned to this department")
		}
		if err := requireActiveDepartment(txCtx, s.departments, departmentID); err != nil {
			return nil, err
		}

		current.DepartmentID = departmentID
		updated, err := s.positions.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

func (s *PositionService) GetPosition(ctx context.Context, id uuid.UUID) (*position.Position, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "position id is required")
	}
	p, err := s.positions.GetByID(ctx, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (s *PositionService) ListPositions(ctx context.Context) ([]*position.Position, error) {
	out, err := s.positions.ListActive(ctx)
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

// detectReportingCycle walks upward from the proposed parent. Reaching
// positionID means the new edge would close a cycle. Re-encountering a node
// indicates pre-existing corruption; the walk stops without blaming the
// current edit. The walk is bounded by hierarchy depth.
func (s *PositionService) detectReportingCycle(ctx context.Context, positionID, reportsTo uuid.UUID) error {
	visited := make(map[uuid.UUID]struct{})
	current := reportsTo
	for {
		if current == positionID {
			return badRequest("ORG_CYCLE", "circular reporting relationship detected")
		}
		if _, seen := visited[current]; seen {
			return nil
		}
		visited[current] = struct{}{}

		parent, exists, err := s.positions.GetReportsTo(ctx, current)
		if err != nil {
			return mapPgError(err)
		}
		if !exists || parent == nil {
			return nil
		}
		current = *parent
	}
}
