package position

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, p *Position) (*Position, error)
	Update(ctx context.Context, p *Position) (*Position, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Position, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// Lock takes a row lock on the position for the rest of the
	// current transaction. Serializes concurrent reporting-edge writes.
	Lock(ctx context.Context, id uuid.UUID) error

	// GetReportsTo returns the reporting parent of an active position.
	// exists is false when the position is missing or inactive.
	GetReportsTo(ctx context.Context, id uuid.UUID) (reportsTo *uuid.UUID, exists bool, err error)

	// CountActiveSubordinates counts active positions reporting to id.
	CountActiveSubordinates(ctx context.Context, id uuid.UUID) (int64, error)

	ListActive(ctx context.Context) ([]*Position, error)
	ListActiveByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Position, error)
}
