package engagement

import (
	"math"

	"recky/backend/internal/models"
)

// Stats is the summary shown on a profile.
type Stats struct {
	SentUp         int64 `json:"sent_up"`
	SentDown       int64 `json:"sent_down"`
	SentNoVote     int64 `json:"sent_no_vote"`
	SentTotal      int64 `json:"sent_total"`
	ReceivedUp     int64 `json:"received_up"`
	ReceivedDown   int64 `json:"received_down"`
	ReceivedNoVote int64 `json:"received_no_vote"`
	ReceivedTotal  int64 `json:"received_total"`

	// Percentages are whole numbers rounded to nearest; 0 when the total is 0.
	SentUpPercent         int `json:"sent_up_percent"`
	SentDownPercent       int `json:"sent_down_percent"`
	SentNoVotePercent     int `json:"sent_no_vote_percent"`
	ReceivedUpPercent     int `json:"received_up_percent"`
	ReceivedDownPercent   int `json:"received_down_percent"`
	ReceivedNoVotePercent int `json:"received_no_vote_percent"`
}

// Summarize derives totals and percentages from raw counters.
func Summarize(c *models.EngagementCounters) Stats {
	sent, received := c.SentTotal(), c.ReceivedTotal()
	return Stats{
		SentUp:                c.SentUp,
		SentDown:              c.SentDown,
		SentNoVote:            c.SentNoVote,
		SentTotal:             sent,
		ReceivedUp:            c.ReceivedUp,
		ReceivedDown:          c.ReceivedDown,
		ReceivedNoVote:        c.ReceivedNoVote,
		ReceivedTotal:         received,
		SentUpPercent:         percent(c.SentUp, sent),
		SentDownPercent:       percent(c.SentDown, sent),
		SentNoVotePercent:     percent(c.SentNoVote, sent),
		ReceivedUpPercent:     percent(c.ReceivedUp, received),
		ReceivedDownPercent:   percent(c.ReceivedDown, received),
		ReceivedNoVotePercent: percent(c.ReceivedNoVote, received),
	}
}

func percent(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
