package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

const changeRequestColumns = `
	id,
	request_number,
	requested_by_employee_id,
	request_type,
	target_department_id,
	target_position_id,
	details,
	reason,
	status,
	submitted_by_employee_id,
	submitted_at,
	created_at,
	updated_at`

type ChangeRequestRepository struct{}

func NewChangeRequestRepository() *ChangeRequestRepository {
	return &ChangeRequestRepository{}
}

func (r *ChangeRequestRepository) Insert(ctx context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	details := cr.Details
	if details == nil {
		details = []byte(`{}`)
	}
	row := tx.QueryRow(ctx, `
INSERT INTO structure_change_requests (
	request_number,
	requested_by_employee_id,
	request_type,
	target_department_id,
	target_position_id,
	details,
	reason,
	status
)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
RETURNING`+changeRequestColumns,
		cr.RequestNumber,
		pgUUID(cr.RequestedByEmployeeID),
		string(cr.RequestType),
		pgNullableUUID(cr.TargetDepartmentID),
		pgNullableUUID(cr.TargetPositionID),
		string(details),
		cr.Reason,
		string(cr.Status),
	)
	return scanChangeRequest(row)
}

func (r *ChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT`+changeRequestColumns+` FROM structure_change_requests WHERE id=$1`, pgUUID(id))
	return scanChangeRequest(row)
}

func (r *ChangeRequestRepository) UpdateDraft(ctx context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	details := cr.Details
	if details == nil {
		details = []byte(`{}`)
	}
	row := tx.QueryRow(ctx, `
UPDATE structure_change_requests
SET request_type=$2,
	target_department_id=$3,
	target_position_id=$4,
	details=$5::jsonb,
	reason=$6,
	updated_at=now()
WHERE id=$1
RETURNING`+changeRequestColumns,
		pgUUID(cr.ID),
		string(cr.RequestType),
		pgNullableUUID(cr.TargetDepartmentID),
		pgNullableUUID(cr.TargetPositionID),
		string(details),
		cr.Reason,
	)
	return scanChangeRequest(row)
}

func (r *ChangeRequestRepository) UpdateStatus(ctx context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
UPDATE structure_change_requests
SET status=$2,
	submitted_by_employee_id=$3,
	submitted_at=$4,
	updated_at=now()
WHERE id=$1
RETURNING`+changeRequestColumns,
		pgUUID(cr.ID),
		string(cr.Status),
		pgNullableUUID(cr.SubmittedByEmployeeID),
		pgNullableTime(cr.SubmittedAt),
	)
	return scanChangeRequest(row)
}

// HighestRequestNumber orders by length before value so that "ORG-2026-10000"
// ranks above "ORG-2026-9999".
func (r *ChangeRequestRepository) HighestRequestNumber(ctx context.Context, prefix string) (string, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return "", false, err
	}
	var number string
	err = tx.QueryRow(ctx, `
SELECT request_number
FROM structure_change_requests
WHERE request_number LIKE $1 || '%'
ORDER BY length(request_number) DESC, request_number DESC
LIMIT 1`, prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return number, true, nil
}

func (r *ChangeRequestRepository) List(ctx context.Context, status changerequest.Status, limit int) ([]*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+changeRequestColumns+`
FROM structure_change_requests
WHERE $1 = '' OR status = $1
ORDER BY created_at DESC
LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*changerequest.ChangeRequest, 0, 16)
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func scanChangeRequest(row rowScanner) (*changerequest.ChangeRequest, error) {
	var cr changerequest.ChangeRequest
	var requestType, status string
	var targetDepartment, targetPosition, submittedBy pgtype.UUID
	var submittedAt pgtype.Timestamptz
	var details []byte
	if err := row.Scan(
		&cr.ID,
		&cr.RequestNumber,
		&cr.RequestedByEmployeeID,
		&requestType,
		&targetDepartment,
		&targetPosition,
		&details,
		&cr.Reason,
		&status,
		&submittedBy,
		&submittedAt,
		&cr.CreatedAt,
		&cr.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cr.RequestType = changerequest.RequestType(requestType)
	cr.Status = changerequest.Status(status)
	cr.TargetDepartmentID = nullableUUID(targetDepartment)
	cr.TargetPositionID = nullableUUID(targetPosition)
	cr.SubmittedByEmployeeID = nullableUUID(submittedBy)
	cr.SubmittedAt = nullableTime(submittedAt)
	cr.Details = details
	return &cr, nil
}
