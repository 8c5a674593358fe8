package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/modules/org/domain/position"
)

// requireActiveDepartment fails BadRequest whether the referenced department
// is missing or inactive: references supplied inside a request body are
// caller input, not operation targets.
func requireActiveDepartment(ctx context.Context, departments department.Repository, id uuid.UUID) error {
	d, err := departments.GetByID(ctx, id)
	if err != nil {
		mapped := mapPgError(err)
		if isNotFound(mapped) {
			return badRequest("ORG_INVALID_REF", "department does not exist")
		}
		return mapped
	}
	if !d.IsActive {
		return badRequest("ORG_INACTIVE_REF", "department is inactive")
	}
	return nil
}

// requireActivePosition is the position counterpart; role names the reference
// in the error message ("head position", "reporting position").
func requireActivePosition(ctx context.Context, positions position.Repository, id uuid.UUID, role string) error {
	p, err := positions.GetByID(ctx, id)
	if err != nil {
		mapped := mapPgError(err)
		if isNotFound(mapped) {
			return badRequest("ORG_INVALID_REF", role+" does not exist")
		}
		return mapped
	}
	if !p.IsActive {
		return badRequest("ORG_INACTIVE_REF", role+" is inactive")
	}
	return nil
}
