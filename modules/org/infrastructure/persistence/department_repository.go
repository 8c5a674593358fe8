package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/peopledesk/peopledesk/modules/org/domain/department"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

const departmentColumns = `
	id,
	code,
	name,
	description,
	head_position_id,
	is_active,
	created_at,
	updated_at`

type DepartmentRepository struct{}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{}
}

func (r *DepartmentRepository) Insert(ctx context.Context, d *department.Department) (*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
INSERT INTO departments (code, name, description, head_position_id, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING`+departmentColumns,
		d.Code,
		d.Name,
		pgNullableText(d.Description),
		pgNullableUUID(d.HeadPositionID),
		d.IsActive,
	)
	return scanDepartment(row)
}

func (r *DepartmentRepository) Update(ctx context.Context, d *department.Department) (*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
UPDATE departments
SET code=$2, name=$3, description=$4, head_position_id=$5, is_active=$6, updated_at=now()
WHERE id=$1
RETURNING`+departmentColumns,
		pgUUID(d.ID),
		d.Code,
		d.Name,
		pgNullableText(d.Description),
		pgNullableUUID(d.HeadPositionID),
		d.IsActive,
	)
	return scanDepartment(row)
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT`+departmentColumns+` FROM departments WHERE id=$1`, pgUUID(id))
	return scanDepartment(row)
}

func (r *DepartmentRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM departments WHERE code=$1)`, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *DepartmentRepository) List(ctx context.Context, activeOnly bool) ([]*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+departmentColumns+`
FROM departments
WHERE $1::bool = false OR is_active
ORDER BY code ASC`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*department.Department, 0, 16)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDepartment(row rowScanner) (*department.Department, error) {
	var d department.Department
	var description pgtype.Text
	var head pgtype.UUID
	if err := row.Scan(
		&d.ID,
		&d.Code,
		&d.Name,
		&description,
		&head,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Description = nullableText(description)
	d.HeadPositionID = nullableUUID(head)
	return &d, nil
}
