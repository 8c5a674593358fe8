package department

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Department is an organizational unit. Codes are globally unique forever,
// including soft-deleted records; removal only flips IsActive.
type Department struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	HeadPositionID *uuid.UUID `json:"head_position_id,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NormalizeCode case-normalizes a department code for storage and comparison.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
