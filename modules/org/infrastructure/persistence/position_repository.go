package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/peopledesk/peopledesk/modules/org/domain/position"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

const positionColumns = `
	id,
	code,
	title,
	description,
	department_id,
	reports_to_position_id,
	is_active,
	created_at,
	updated_at`

type PositionRepository struct{}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{}
}

func (r *PositionRepository) Insert(ctx context.Context, p *position.Position) (*position.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
INSERT INTO positions (code, title, description, department_id, reports_to_position_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING`+positionColumns,
		p.Code,
		p.Title,
		pgNullableText(p.Description),
		pgUUID(p.DepartmentID),
		pgNullableUUID(p.ReportsToPositionID),
		p.IsActive,
	)
	return scanPosition(row)
}

func (r *PositionRepository) Update(ctx context.Context, p *position.Position) (*position.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
UPDATE positions
SET code=$2, title=$3, description=$4, department_id=$5, reports_to_position_id=$6, is_active=$7, updated_at=now()
WHERE id=$1
RETURNING`+positionColumns,
		pgUUID(p.ID),
		p.Code,
		p.Title,
		pgNullableText(p.Description),
		pgUUID(p.DepartmentID),
		pgNullableUUID(p.ReportsToPositionID),
		p.IsActive,
	)
	return scanPosition(row)
}

func (r *PositionRepository) GetByID(ctx context.Context, id uuid.UUID) (*position.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT`+positionColumns+` FROM positions WHERE id=$1`, pgUUID(id))
	return scanPosition(row)
}

func (r *PositionRepository) Lock(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	var locked uuid.UUID
	return tx.QueryRow(ctx, `SELECT id FROM positions WHERE id=$1 FOR UPDATE`, pgUUID(id)).Scan(&locked)
}

func (r *PositionRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM positions WHERE code=$1)`, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PositionRepository) GetReportsTo(ctx context.Context, id uuid.UUID) (*uuid.UUID, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, false, err
	}
	var reportsTo pgtype.UUID
	err = tx.QueryRow(ctx, `
SELECT reports_to_position_id FROM positions WHERE id=$1 AND is_active`, pgUUID(id)).Scan(&reportsTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return nullableUUID(reportsTo), true, nil
}

func (r *PositionRepository) CountActiveSubordinates(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `
SELECT COUNT(*) FROM positions WHERE reports_to_position_id=$1 AND is_active`, pgUUID(id)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PositionRepository) ListActive(ctx context.Context) ([]*position.Position, error) {
	return r.list(ctx, `SELECT`+positionColumns+` FROM positions WHERE is_active ORDER BY code ASC`)
}

func (r *PositionRepository) ListActiveByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*position.Position, error) {
	return r.list(ctx, `
SELECT`+positionColumns+`
FROM positions
WHERE department_id=$1 AND is_active
ORDER BY code ASC`, pgUUID(departmentID))
}

func (r *PositionRepository) list(ctx context.Context, query string, args ...any) ([]*position.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*position.Position, 0, 32)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPosition(row rowScanner) (*position.Position, error) {
	var p position.Position
	var description pgtype.Text
	var reportsTo pgtype.UUID
	if err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Title,
		&description,
		&p.DepartmentID,
		&reportsTo,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Description = nullableText(description)
	p.ReportsToPositionID = nullableUUID(reportsTo)
	return &p, nil
}
