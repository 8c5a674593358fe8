package changerequest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// transitions is the single authoritative transition table. Terminal states
// have no entry.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusApproved, StatusRejected, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return s.Valid() && !ok
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type RequestType string

const (
	TypeNewDepartment       RequestType = "new_department"
	TypeNewPosition         RequestType = "new_position"
	TypeReassignHead        RequestType = "reassign_head"
	TypeChangeReportingLine RequestType = "change_reporting_line"
)

func (t RequestType) Valid() bool {
	switch t {
	case TypeNewDepartment, TypeNewPosition, TypeReassignHead, TypeChangeReportingLine:
		return true
	}
	return false
}

// ChangeRequest is a proposal to alter the hierarchy. It is mutable only in
// draft; once submitted only its status may change. Actual structural edits
// implied by an approved request are applied by a separate execution step.
type ChangeRequest struct {
	ID                    uuid.UUID       `json:"id"`
	RequestNumber         string          `json:"request_number"`
	RequestedByEmployeeID uuid.UUID       `json:"requested_by_employee_id"`
	RequestType           RequestType     `json:"request_type"`
	TargetDepartmentID    *uuid.UUID      `json:"target_department_id,omitempty"`
	TargetPositionID      *uuid.UUID      `json:"target_position_id,omitempty"`
	Details               json.RawMessage `json:"details"`
	Reason                string          `json:"reason"`
	Status                Status          `json:"status"`
	SubmittedByEmployeeID *uuid.UUID      `json:"submitted_by_employee_id,omitempty"`
	SubmittedAt           *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

const requestNumberSequenceWidth = 4

// RequestNumberPrefix returns the per-year request number prefix, e.g. "ORG-2026-".
func RequestNumberPrefix(year int) string {
	return fmt.Sprintf("ORG-%d-", year)
}

// NextRequestNumber allocates the next number for a year given the highest
// existing one ("" when the year has none yet). The sequence is zero-padded
// to four digits and keeps growing past 9999.
func NextRequestNumber(year int, highest string) (string, error) {
	seq := 0
	if highest != "" {
		prefix := RequestNumberPrefix(year)
		raw, ok := strings.CutPrefix(highest, prefix)
		if !ok {
			return "", fmt.Errorf("request number %q does not match prefix %q", highest, prefix)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("request number %q has malformed sequence: %w", highest, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%0*d", RequestNumberPrefix(year), requestNumberSequenceWidth, seq+1), nil
}
