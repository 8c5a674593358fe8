package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

type DepartmentService struct {
	departments department.Repository
	positions   position.Repository
}

func NewDepartmentService(departments department.Repository, positions position.Repository) *DepartmentService {
	return &DepartmentService{departments: departments, positions: positions}
}

type CreateDepartmentInput struct {
	Code           string
	Name           string
	Description    *string
	HeadPositionID *uuid.UUID
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, in CreateDepartmentInput) (*department.Department, error) {
	code := department.NormalizeCode(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, badRequest("ORG_INVALID_BODY", "code and name are required")
	}

	return inTx(ctx, func(txCtx context.Context) (*department.Department, error) {
		exists, err := s.departments.CodeExists(txCtx, code)
		if err != nil {
			return nil, mapPgError(err)
		}
		if exists {
			return nil, conflict("ORG_CODE_CONFLICT", "department code already exists", nil)
		}

		if in.HeadPositionID != nil {
			if err := requireActivePosition(txCtx, s.positions, *in.HeadPositionID, "head position"); err != nil {
				return nil, err
			}
		}

		created, err := s.departments.Insert(txCtx, &department.Department{
			Code:           code,
			Name:           name,
			Description:    in.Description,
			HeadPositionID: in.HeadPositionID,
			IsActive:       true,
		})
		if err != nil {
			return nil, mapPgError(err)
		}
		return created, nil
	})
}

type UpdateDepartmentInput struct {
	Code        *string
	Name        *string
	Description *string
}

func (s *DepartmentService) UpdateDepartment(ctx context.Context, id uuid.UUID, in UpdateDepartmentInput) (*department.Department, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "department id is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*department.Department, error) {
		current, err := s.departments.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}

		if in.Code != nil {
			code := department.NormalizeCode(*in.Code)
			if code == "" {
				return nil, badRequest("ORG_INVALID_BODY", "code must not be empty")
			}
			if code != current.Code {
				exists, err := s.departments.CodeExists(txCtx, code)
				if err != nil {
					return nil, mapPgError(err)
				}
				if exists {
					return nil, conflict("ORG_CODE_CONFLICT", "department code already exists", nil)
				}
				current.Code = code
			}
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return nil, badRequest("ORG_INVALID_BODY", "name must not be empty")
			}
			current.Name = name
		}
		if in.Description != nil {
			current.Description = in.Description
		}

		updated, err := s.departments.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

// RemoveDepartment soft-deletes a department. Active positions may still
// reference it afterwards; that soft-orphaning is allowed and logged.
func (s *DepartmentService) RemoveDepartment(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "department id is required")
	}

	removed, err := inTx(ctx, func(txCtx context.Context) (*department.Department, error) {
		current, err := s.departments.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		current.IsActive = false
		updated, err := s.departments.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	if remaining, err := s.positions.ListActiveByDepartment(ctx, id); err == nil && len(remaining) > 0 {
		composables.UseLogger(ctx).
			WithField("department_id", id).
			WithField("active_positions", len(remaining)).
			Warn("department deactivated while active positions still reference it")
	}
	return removed, nil
}

// AssignDepartmentHead sets or clears (positionID == nil) a department's head.
func (s *DepartmentService) AssignDepartmentHead(ctx context.Context, departmentID uuid.UUID, positionID *uuid.UUID) (*department.Department, error) {
	if departmentID == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "department id is required")
	}

	return inTx(ctx, func(txCtx context.Context) (*department.Department, error) {
		current, err := s.departments.GetByID(txCtx, departmentID)
		if err != nil {
			return nil, mapPgError(err)
		}

		if positionID != nil {
			if err := requireActivePosition(txCtx, s.positions, *positionID, "head position"); err != nil {
				return nil, err
			}
		}

		current.HeadPositionID = positionID
		updated, err := s.departments.Update(txCtx, current)
		if err != nil {
			return nil, mapPgError(err)
		}
		return updated, nil
	})
}

func (s *DepartmentService) GetDepartment(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	if id == uuid.Nil {
		return nil, badRequest("ORG_INVALID_ID", "department id is required")
	}
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return d, nil
}

func (s *DepartmentService) ListDepartments(ctx context.Context, activeOnly bool) ([]*department.Department, error) {
	out, err := s.departments.List(ctx, activeOnly)
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}
