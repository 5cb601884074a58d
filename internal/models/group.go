package models

import "time"

// FriendGroup is a named subset of the owner's friends used as a send target.
type FriendGroup struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	OwnerID   string     `gorm:"size:64;not null;index" json:"owner_id"`
	Name      string     `gorm:"size:64;not null" json:"name"`
	MemberIDs StringList `gorm:"type:text" json:"member_ids"`
	CreatedAt time.Time  `json:"created_at"`
}
