package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"slices"
	"time"
)

// Vote is the recipient's tri-state verdict on a recommendation.
type Vote string

const (
	VoteUnset Vote = "unset"
	VoteUp    Vote = "up"
	VoteDown  Vote = "down"

	// VoteNone is the pseudo-state before a recommendation exists.
	// It is never stored.
	VoteNone Vote = ""
)

// Valid reports whether v can be stored on a recommendation.
func (v Vote) Valid() bool {
	return v == VoteUnset || v == VoteUp || v == VoteDown
}

// StringList is a string slice stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("unsupported type for StringList")
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// GormDataType tells gorm which column type to migrate.
func (StringList) GormDataType() string {
	return "text"
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	return slices.Contains(l, s)
}

// Recommendation is a single sender-to-recipient recommendation.
// Content fields are written once by the sender; Vote, VoteNote and Viewed
// belong to the recipient.
type Recommendation struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	SenderID    string     `gorm:"size:64;not null;index" json:"sender_id"`
	RecipientID string     `gorm:"size:64;not null;index" json:"recipient_id"`
	Title       string     `gorm:"size:512;not null" json:"title"`
	Tags        StringList `gorm:"type:text" json:"tags"`
	Note        *string    `json:"note,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	Vote        Vote       `gorm:"type:varchar(10);not null" json:"vote"`
	VoteNote    *string    `json:"vote_note,omitempty"`
	Viewed      bool       `gorm:"not null" json:"viewed"`
	ArchivedBy  StringList `gorm:"type:text" json:"archived_by"`
	Version     int64      `gorm:"not null" json:"-"`
}

// IsParticipant reports whether userID sent or received the recommendation.
func (r *Recommendation) IsParticipant(userID string) bool {
	return r.SenderID == userID || r.RecipientID == userID
}

// IsArchivedBy reports whether userID hid the recommendation from their lists.
func (r *Recommendation) IsArchivedBy(userID string) bool {
	return r.ArchivedBy.Contains(userID)
}

// Counterpart returns the other participant from userID's point of view.
func (r *Recommendation) Counterpart(userID string) string {
	if r.SenderID == userID {
		return r.RecipientID
	}
	return r.SenderID
}

// Clone returns a deep copy.
func (r *Recommendation) Clone() *Recommendation {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	c.ArchivedBy = slices.Clone(r.ArchivedBy)
	if r.Note != nil {
		note := *r.Note
		c.Note = &note
	}
	if r.VoteNote != nil {
		note := *r.VoteNote
		c.VoteNote = &note
	}
	return &c
}
