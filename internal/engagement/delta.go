// Package engagement maintains per-user recommendation counters
// incrementally. Every vote transition maps to exactly one Change, applied
// to the sender's sent family and the recipient's received family.
package engagement

import "recky/backend/internal/models"

// Change is the signed adjustment of one counter family.
type Change struct {
	NoVote int64
	Up     int64
	Down   int64
}

// IsZero reports whether the change leaves counters untouched.
func (c Change) IsZero() bool {
	return c == Change{}
}

// unit is the bucket a single recommendation in state v occupies.
func unit(v models.Vote) Change {
	switch v {
	case models.VoteUnset:
		return Change{NoVote: 1}
	case models.VoteUp:
		return Change{Up: 1}
	case models.VoteDown:
		return Change{Down: 1}
	default:
		return Change{}
	}
}

// Delta returns the counter change for a recommendation moving from previous
// to next. models.VoteNone as previous means the recommendation is new, so
// Delta(VoteNone, VoteUnset) is the creation change.
func Delta(previous, next models.Vote) Change {
	from, to := unit(previous), unit(next)
	return Change{
		NoVote: to.NoVote - from.NoVote,
		Up:     to.Up - from.Up,
		Down:   to.Down - from.Down,
	}
}

// Created is the change for a newly created, unvoted recommendation.
func Created() Change {
	return Delta(models.VoteNone, models.VoteUnset)
}
