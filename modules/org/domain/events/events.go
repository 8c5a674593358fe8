package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/peopledesk/peopledesk/modules/org/domain/changerequest"
)

// ChangeRequestTransitioned is published after a structure change request
// changes state. Delivery is best-effort; no component blocks on it.
type ChangeRequestTransitioned struct {
	RequestID     uuid.UUID            `json:"request_id"`
	RequestNumber string               `json:"request_number"`
	Status        changerequest.Status `json:"status"`
	ActorID       uuid.UUID            `json:"actor_id"`
	OccurredAt    time.Time            `json:"occurred_at"`
}
