package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/aslanbek/fieldlog/internal/media"
)

// Record is a logged activity owned by a user. Its attachment list is
// append-only on save; entries leave it only through explicit deletion.
type Record struct {
	ID           uuid.UUID          `json:"id"`
	OwnerID      uuid.UUID          `json:"owner_id"`
	Title        string             `json:"title"`
	Notes        string             `json:"notes"`
	ActivityType string             `json:"activity_type"`
	OccurredAt   time.Time          `json:"occurred_at"`
	Attachments  []media.Attachment `json:"attachments"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// CreateInput carries the fields a caller supplies for a new record.
type CreateInput struct {
	Title        string
	Notes        string
	ActivityType string
	OccurredAt   time.Time
}
