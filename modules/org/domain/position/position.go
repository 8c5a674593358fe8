package position

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Position is a role slot belonging to a Department. The reporting relation
// over active positions forms a forest: no cycles, at most one parent.
type Position struct {
	ID                  uuid.UUID  `json:"id"`
	Code                string     `json:"code"`
	Title               string     `json:"title"`
	Description         *string    `json:"description,omitempty"`
	DepartmentID        uuid.UUID  `json:"department_id"`
	ReportsToPositionID *uuid.UUID `json:"reports_to_position_id,omitempty"`
	IsActive            bool       `json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
