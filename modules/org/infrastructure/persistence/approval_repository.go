package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
	"github.com/peopledesk/peopledesk/pkg/composables"
)

// ApprovalRepository only ever inserts and reads. There is no update or
// delete path for approval rows.
type ApprovalRepository struct{}

func NewApprovalRepository() *ApprovalRepository {
	return &ApprovalRepository{}
}

func (r *ApprovalRepository) Insert(ctx context.Context, a *changerequest.Approval) (*changerequest.Approval, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
INSERT INTO structure_approvals (change_request_id, approver_employee_id, decision, comments, decided_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, change_request_id, approver_employee_id, decision, comments, decided_at`,
		pgUUID(a.ChangeRequestID),
		pgUUID(a.ApproverEmployeeID),
		string(a.Decision),
		pgNullableText(a.Comments),
		a.DecidedAt,
	)
	return scanApproval(row)
}

func (r *ApprovalRepository) ListForRequest(ctx context.Context, changeRequestID uuid.UUID) ([]*changerequest.Approval, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT id, change_request_id, approver_employee_id, decision, comments, decided_at
FROM structure_approvals
WHERE change_request_id=$1
ORDER BY decided_at ASC`, pgUUID(changeRequestID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*changerequest.Approval, 0, 4)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApproval(row rowScanner) (*changerequest.Approval, error) {
	var a changerequest.Approval
	var decision string
	var comments pgtype.Text
	if err := row.Scan(
		&a.ID,
		&a.ChangeRequestID,
		&a.ApproverEmployeeID,
		&decision,
		&comments,
		&a.DecidedAt,
	); err != nil {
		return nil, err
	}
	a.Decision = changerequest.Decision(decision)
	a.Comments = nullableText(comments)
	return &a, nil
}
