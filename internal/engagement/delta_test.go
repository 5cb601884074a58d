package engagement_test

import (
	"testing"

	"recky/backend/internal/engagement"
	"recky/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		previous models.Vote
		next     models.Vote
		want     engagement.Change
	}{
		{models.VoteNone, models.VoteUnset, engagement.Change{NoVote: 1}},
		{models.VoteUnset, models.VoteUnset, engagement.Change{}},
		{models.VoteUnset, models.VoteUp, engagement.Change{NoVote: -1, Up: 1}},
		{models.VoteUnset, models.VoteDown, engagement.Change{NoVote: -1, Down: 1}},
		{models.VoteUp, models.VoteUnset, engagement.Change{NoVote: 1, Up: -1}},
		{models.VoteUp, models.VoteUp, engagement.Change{}},
		{models.VoteUp, models.VoteDown, engagement.Change{Up: -1, Down: 1}},
		{models.VoteDown, models.VoteUnset, engagement.Change{NoVote: 1, Down: -1}},
		{models.VoteDown, models.VoteUp, engagement.Change{Up: 1, Down: -1}},
		{models.VoteDown, models.VoteDown, engagement.Change{}},
	}

	for _, tt := range tests {
		name := string(tt.previous) + "->" + string(tt.next)
		if tt.previous == models.VoteNone {
			name = "create"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := engagement.Delta(tt.previous, tt.next)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.IsZero(), tt.previous == tt.next)
		})
	}
}

func TestDeltaPreservesTotals(t *testing.T) {
	t.Parallel()

	votes := []models.Vote{models.VoteUnset, models.VoteUp, models.VoteDown}
	for _, from := range votes {
		for _, to := range votes {
			c := engagement.Delta(from, to)
			assert.Zero(t, c.NoVote+c.Up+c.Down, "%s->%s", from, to)
		}
	}
	c := engagement.Created()
	assert.Equal(t, int64(1), c.NoVote+c.Up+c.Down)
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("sender family", func(t *testing.T) {
		t.Parallel()
		c := &models.EngagementCounters{UserID: "a", SentNoVote: 1}
		err := engagement.Apply(c, models.RoleSender, engagement.Delta(models.VoteUnset, models.VoteUp))
		assert.NoError(t, err)
		assert.Equal(t, int64(1), c.SentUp)
		assert.Zero(t, c.SentNoVote)
		assert.Zero(t, c.ReceivedTotal())
	})

	t.Run("recipient family", func(t *testing.T) {
		t.Parallel()
		c := &models.EngagementCounters{UserID: "b", ReceivedUp: 1}
		err := engagement.Apply(c, models.RoleRecipient, engagement.Delta(models.VoteUp, models.VoteDown))
		assert.NoError(t, err)
		assert.Equal(t, int64(1), c.ReceivedDown)
		assert.Zero(t, c.ReceivedUp)
		assert.Zero(t, c.SentTotal())
	})

	t.Run("underflow leaves counters untouched", func(t *testing.T) {
		t.Parallel()
		c := &models.EngagementCounters{UserID: "a", SentNoVote: 2}
		err := engagement.Apply(c, models.RoleSender, engagement.Delta(models.VoteUp, models.VoteUnset))
		assert.ErrorIs(t, err, models.ErrCounterDrift)
		assert.Equal(t, int64(2), c.SentNoVote)
		assert.Zero(t, c.SentUp)
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	stats := engagement.Summarize(&models.EngagementCounters{
		SentUp: 2, SentDown: 1, SentNoVote: 0,
		ReceivedUp: 1, ReceivedDown: 1, ReceivedNoVote: 1,
	})
	assert.Equal(t, int64(3), stats.SentTotal)
	assert.Equal(t, 67, stats.SentUpPercent)
	assert.Equal(t, 33, stats.SentDownPercent)
	assert.Equal(t, 0, stats.SentNoVotePercent)
	assert.Equal(t, int64(3), stats.ReceivedTotal)
	assert.Equal(t, 33, stats.ReceivedUpPercent)

	empty := engagement.Summarize(&models.EngagementCounters{})
	assert.Zero(t, empty.SentUpPercent)
	assert.Zero(t, empty.ReceivedNoVotePercent)
}
