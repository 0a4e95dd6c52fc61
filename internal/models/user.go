// Package models contains data structures for the application's domain models.
package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// emailPattern enforces the minimal local@domain.tld shape. Anything stricter
// belongs to a mail verification flow, not the store.
var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

// User represents an account in the social graph.
//
// ThoughtIDs and FriendIDs are soft references stored as JSON array columns:
// a listed id is never re-validated after the write, so entries may dangle
// (the populate join drops missing targets silently). Keeping each list in a
// single column means every list mutation is one atomic row update.
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex;not null"`
	Email    string `gorm:"uniqueIndex;not null"`

	// Ordered ids of thoughts authored by this user.
	ThoughtIDs datatypes.JSONSlice[uint] `gorm:"column:thoughts"`
	// Friend user ids with set semantics: no duplicates, order irrelevant.
	FriendIDs datatypes.JSONSlice[uint] `gorm:"column:friends"`

	// Thoughts and Friends hold records resolved by the populate join.
	// Never persisted; nil means "not populated".
	Thoughts []Thought `gorm:"-"`
	Friends  []User    `gorm:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the schema constraints for create and full-record updates.
// Username is trimmed in place before validation.
func (u *User) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return NewValidationError("Username is required")
	}
	if u.Email == "" {
		return NewValidationError("Email is required")
	}
	if !emailPattern.MatchString(u.Email) {
		return NewValidationError("Must match a valid email address")
	}
	return nil
}

// FriendCount is derived from the live friend list, never stored.
func (u *User) FriendCount() int {
	return len(u.FriendIDs)
}

// MarshalJSON renders the API shape: populated thoughts/friends when the
// records were resolved, raw id lists otherwise, plus the derived friendCount.
func (u User) MarshalJSON() ([]byte, error) {
	type userJSON struct {
		ID          uint   `json:"id"`
		Username    string `json:"username"`
		Email       string `json:"email"`
		Thoughts    any    `json:"thoughts"`
		Friends     any    `json:"friends"`
		FriendCount int    `json:"friendCount"`
	}

	out := userJSON{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Thoughts:    idsOrRecords(u.Thoughts, u.ThoughtIDs),
		Friends:     idsOrRecords(u.Friends, u.FriendIDs),
		FriendCount: u.FriendCount(),
	}
	return json.Marshal(out)
}

// idsOrRecords prefers populated records over raw reference ids and never
// renders a null list.
func idsOrRecords[T any](records []T, ids datatypes.JSONSlice[uint]) any {
	if records != nil {
		return records
	}
	if ids == nil {
		return []uint{}
	}
	return []uint(ids)
}
