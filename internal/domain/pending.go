package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PendingType string

const (
	PendingTypeAdd  PendingType = "add"
	PendingTypeEdit PendingType = "edit"
)

// PendingRecord is a proposed add or edit of a live entity awaiting review.
// OriginalID is nil for adds and is never changed after submission.
// AssetIdentifier is only set for asset adds that named their identifier up
// front; the identifier is claimed for as long as the record is open.
type PendingRecord struct {
	ID              uuid.UUID       `json:"id"`
	Kind            EntityKind      `json:"kind"`
	Type            PendingType     `json:"pending_type"`
	OriginalID      *int64          `json:"original_id,omitempty"`
	AssetIdentifier string          `json:"asset_identifier,omitempty"`
	Payload         json.RawMessage `json:"payload"`
	SubmittedBy     string          `json:"submitted_by"`
	SubmittedAt     time.Time       `json:"submitted_at"`
}

func (p *PendingRecord) IsEdit() bool {
	return p.Type == PendingTypeEdit
}
