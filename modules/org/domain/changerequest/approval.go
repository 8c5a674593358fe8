package changerequest

import (
	"time"

	"github.com/google/uuid"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Approval is one immutable review decision. Records are append-only: a
// correction is a new record, never an edit of history.
type Approval struct {
	ID                 uuid.UUID `json:"id"`
	ChangeRequestID    uuid.UUID `json:"change_request_id"`
	ApproverEmployeeID uuid.UUID `json:"approver_employee_id"`
	Decision           Decision  `json:"decision"`
	Comments           *string   `json:"comments,omitempty"`
	DecidedAt          time.Time `json:"decided_at"`
}
