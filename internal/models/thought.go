package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MaxTextLength caps thought and reaction bodies.
const MaxTextLength = 280

// displayTimeLayout matches the presentation format of timestamps in API
// responses (e.g. "1/2/2006, 3:04:05 PM"). Storage keeps real time values;
// this is a read-time transform only.
const displayTimeLayout = "1/2/2006, 3:04:05 PM"

// Reaction is a value owned exclusively by its parent Thought. It has no
// table of its own: the whole reaction list lives in one JSON column, so a
// reaction can never outlive its thought. ReactionID is unique within a
// single thought only.
type Reaction struct {
	ReactionID   uuid.UUID `json:"reactionId"`
	ReactionBody string    `json:"reactionBody"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the reaction schema constraints. Identity and timestamp
// defaults are assigned by the store on append, not here.
func (r *Reaction) Validate() error {
	if r.ReactionBody == "" {
		return NewValidationError("Reaction body is required")
	}
	if len(r.ReactionBody) > MaxTextLength {
		return NewValidationError("Reaction body must be at most 280 characters")
	}
	if r.Username == "" {
		return NewValidationError("Username is required")
	}
	return nil
}

// Thought represents a short post authored by a user. Username is a
// denormalized copy of the author's name, not a reference.
type Thought struct {
	ID          uint   `gorm:"primaryKey"`
	ThoughtText string `gorm:"type:text;not null"`
	Username    string `gorm:"not null;index"`

	// Reactions are embedded values; the list is one JSON column so an
	// append or pull is a single atomic row update.
	Reactions datatypes.JSONSlice[Reaction]

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the schema constraints for create and full-record updates.
func (t *Thought) Validate() error {
	if t.ThoughtText == "" {
		return NewValidationError("Thought text is required")
	}
	if len(t.ThoughtText) > MaxTextLength {
		return NewValidationError("Thought text must be between 1 and 280 characters")
	}
	if t.Username == "" {
		return NewValidationError("Username is required")
	}
	return nil
}

// ReactionCount is derived from the live reaction list, never stored.
func (t *Thought) ReactionCount() int {
	return len(t.Reactions)
}

// reactionJSON is the presentation shape of an embedded reaction; createdAt
// becomes a display string here while the stored value stays a timestamp.
type reactionJSON struct {
	ReactionID   string `json:"reactionId"`
	ReactionBody string `json:"reactionBody"`
	Username     string `json:"username"`
	CreatedAt    string `json:"createdAt"`
}

// MarshalJSON renders the API shape with the derived reactionCount and
// locale-formatted timestamps.
func (t Thought) MarshalJSON() ([]byte, error) {
	reactions := make([]reactionJSON, 0, len(t.Reactions))
	for _, r := range t.Reactions {
		reactions = append(reactions, reactionJSON{
			ReactionID:   r.ReactionID.String(),
			ReactionBody: r.ReactionBody,
			Username:     r.Username,
			CreatedAt:    r.CreatedAt.Format(displayTimeLayout),
		})
	}

	type thoughtJSON struct {
		ID            uint           `json:"id"`
		ThoughtText   string         `json:"thoughtText"`
		Username      string         `json:"username"`
		Reactions     []reactionJSON `json:"reactions"`
		ReactionCount int            `json:"reactionCount"`
		CreatedAt     string         `json:"createdAt"`
	}

	return json.Marshal(thoughtJSON{
		ID:            t.ID,
		ThoughtText:   t.ThoughtText,
		Username:      t.Username,
		Reactions:     reactions,
		ReactionCount: t.ReactionCount(),
		CreatedAt:     t.CreatedAt.Format(displayTimeLayout),
	})
}
