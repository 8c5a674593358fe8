package department

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, d *Department) (*Department, error)
	Update(ctx context.Context, d *Department) (*Department, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]*Department, error)
}
