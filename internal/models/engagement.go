package models

import "time"

// Role selects which counter family an engagement change adjusts.
type Role string

const (
	RoleSender    Role = "sender"
	RoleRecipient Role = "recipient"
)

// EngagementCounters are a user's aggregate recommendation tallies.
// Each family sums to the number of recommendations the user sent or received.
type EngagementCounters struct {
	UserID         string    `gorm:"primaryKey;size:64" json:"user_id"`
	SentUp         int64     `gorm:"not null" json:"sent_up"`
	SentDown       int64     `gorm:"not null" json:"sent_down"`
	SentNoVote     int64     `gorm:"not null" json:"sent_no_vote"`
	ReceivedUp     int64     `gorm:"not null" json:"received_up"`
	ReceivedDown   int64     `gorm:"not null" json:"received_down"`
	ReceivedNoVote int64     `gorm:"not null" json:"received_no_vote"`
	Version        int64     `gorm:"not null" json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// SentTotal is the number of recommendations the user sent.
func (c *EngagementCounters) SentTotal() int64 {
	return c.SentUp + c.SentDown + c.SentNoVote
}

// ReceivedTotal is the number of recommendations the user received.
func (c *EngagementCounters) ReceivedTotal() int64 {
	return c.ReceivedUp + c.ReceivedDown + c.ReceivedNoVote
}

// SameTallies reports whether both records hold the same six counters.
func (c *EngagementCounters) SameTallies(o *EngagementCounters) bool {
	return c.SentUp == o.SentUp && c.SentDown == o.SentDown && c.SentNoVote == o.SentNoVote &&
		c.ReceivedUp == o.ReceivedUp && c.ReceivedDown == o.ReceivedDown && c.ReceivedNoVote == o.ReceivedNoVote
}
