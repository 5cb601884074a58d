package ledger_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"recky/backend/internal/directory"
	"recky/backend/internal/ledger"
	"recky/backend/internal/models"
	"recky/backend/internal/store"
	"recky/backend/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ledger *ledger.Ledger
	store  *memory.Store
}

// setupLedger creates a ledger whose clock advances one minute per
// recommendation and whose ids are rec-1, rec-2, ...
func setupLedger(t *testing.T) *fixture {
	t.Helper()

	mem := memory.New()
	dir := directory.New(mem)
	for id, name := range map[string]string{"alice": "Alice Liddell", "bob": "Bob Builder", "carol": "Carol Danvers"} {
		_, err := dir.Register(t.Context(), id, name)
		require.NoError(t, err)
	}

	var ticks, ids atomic.Int64
	l := ledger.New(mem, dir, zap.NewNop(),
		ledger.WithClock(func() time.Time {
			return epoch.Add(time.Duration(ticks.Add(1)) * time.Minute)
		}),
		ledger.WithIDs(func() string {
			return fmt.Sprintf("rec-%d", ids.Add(1))
		}),
	)
	return &fixture{ledger: l, store: mem}
}

func (f *fixture) create(t *testing.T, d ledger.Draft) *models.Recommendation {
	t.Helper()

	var r *models.Recommendation
	err := f.store.Atomic(t.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		r, err = f.ledger.Create(ctx, tx, d)
		return err
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) vote(t *testing.T, id, actor string, v models.Vote) (ledger.VoteChange, error) {
	t.Helper()

	var change ledger.VoteChange
	err := f.store.Atomic(t.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		change, _, err = f.ledger.SetVote(ctx, tx, id, actor, v)
		return err
	})
	return change, err
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"movie", []string{"movie"}},
		{" movie , horror,, ", []string{"movie", "horror"}},
		{"book,book", []string{"book"}},
		{" , ,", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ledger.ParseTags(tt.raw), "raw %q", tt.raw)
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	r := f.create(t, ledger.Draft{
		SenderID:    "alice",
		RecipientID: "bob",
		Title:       "  Dune  ",
		Tags:        []string{"book", " scifi ", ""},
		Note:        "read it",
	})

	assert.Equal(t, "rec-1", r.ID)
	assert.Equal(t, "Dune", r.Title)
	assert.Equal(t, models.StringList{"book", "scifi"}, r.Tags)
	require.NotNil(t, r.Note)
	assert.Equal(t, "read it", *r.Note)
	assert.Equal(t, models.VoteUnset, r.Vote)
	assert.False(t, r.Viewed)
	assert.Empty(t, r.ArchivedBy)
	assert.Equal(t, epoch.Add(time.Minute), r.CreatedAt)

	got, err := f.ledger.Get(t.Context(), r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)
}

func TestCreateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		draft   ledger.Draft
		wantErr error
	}{
		{"to self", ledger.Draft{SenderID: "alice", RecipientID: "alice", Title: "x"}, models.ErrSameUser},
		{"blank title", ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "   "}, models.ErrInvalidTarget},
		{"long title", ledger.Draft{
			SenderID: "alice", RecipientID: "bob", Title: strings.Repeat("x", ledger.MaxTitleLength+1),
		}, models.ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := setupLedger(t)
			err := f.store.Atomic(t.Context(), func(ctx context.Context, tx store.Tx) error {
				_, err := f.ledger.Create(ctx, tx, tt.draft)
				return err
			})
			require.ErrorIs(t, err, tt.wantErr)

			recs, err := f.ledger.List(t.Context(), "alice", ledger.Filter{IncludeArchived: true})
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestSetVoteToggles(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	r := f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})

	steps := []struct {
		vote models.Vote
		want ledger.VoteChange
	}{
		{models.VoteUp, ledger.VoteChange{Previous: models.VoteUnset, Effective: models.VoteUp}},
		{models.VoteUp, ledger.VoteChange{Previous: models.VoteUp, Effective: models.VoteUnset}},
		{models.VoteDown, ledger.VoteChange{Previous: models.VoteUnset, Effective: models.VoteDown}},
		{models.VoteUp, ledger.VoteChange{Previous: models.VoteDown, Effective: models.VoteUp}},
	}
	for i, step := range steps {
		change, err := f.vote(t, r.ID, "bob", step.vote)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.want, change, "step %d", i)
	}

	got, err := f.ledger.Get(t.Context(), r.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.VoteUp, got.Vote)
}

func TestSetVoteRejects(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	r := f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})

	_, err := f.vote(t, r.ID, "alice", models.VoteUp)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.vote(t, r.ID, "bob", models.VoteUnset)
	require.ErrorIs(t, err, models.ErrInvalidTarget)

	_, err = f.vote(t, "missing", "bob", models.VoteUp)
	require.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.ledger.Get(t.Context(), r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.VoteUnset, got.Vote)
}

func TestSetVoteNote(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	ctx := t.Context()
	r := f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})

	got, err := f.ledger.SetVoteNote(ctx, r.ID, "bob", "  loved it  ")
	require.NoError(t, err)
	require.NotNil(t, got.VoteNote)
	assert.Equal(t, "loved it", *got.VoteNote)

	got, err = f.ledger.SetVoteNote(ctx, r.ID, "bob", " \n\t ")
	require.NoError(t, err)
	require.NotNil(t, got.VoteNote)
	assert.Equal(t, "loved it", *got.VoteNote)

	exact := strings.Repeat("é", ledger.MaxVoteNoteLength)
	_, err = f.ledger.SetVoteNote(ctx, r.ID, "bob", exact)
	require.NoError(t, err)

	_, err = f.ledger.SetVoteNote(ctx, r.ID, "bob", exact+"!")
	require.ErrorIs(t, err, models.ErrNoteTooLong)

	_, err = f.ledger.SetVoteNote(ctx, r.ID, "alice", "mine now")
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.ledger.SetVoteNote(ctx, r.ID, "carol", exact+"!")
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestMarkViewed(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	ctx := t.Context()
	r := f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})

	_, err := f.ledger.MarkViewed(ctx, r.ID, "alice")
	require.ErrorIs(t, err, models.ErrForbidden)

	got, err := f.ledger.MarkViewed(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.True(t, got.Viewed)

	again, err := f.ledger.MarkViewed(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, got.Version, again.Version)
}

func TestArchiveIsPerUser(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	ctx := t.Context()
	r := f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})

	_, err := f.ledger.Archive(ctx, r.ID, "carol")
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.ledger.Archive(ctx, r.ID, "bob")
	require.NoError(t, err)
	archived, err := f.ledger.Archive(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"bob"}, archived.ArchivedBy)

	bobs, err := f.ledger.List(ctx, "bob", ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, bobs)

	bobs, err = f.ledger.List(ctx, "bob", ledger.Filter{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, bobs, 1)

	alices, err := f.ledger.List(ctx, "alice", ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, alices, 1)

	// Archived records stay retrievable by id.
	_, err = f.ledger.Get(ctx, r.ID, "bob")
	require.NoError(t, err)

	restored, err := f.ledger.Unarchive(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.Empty(t, restored.ArchivedBy)
	_, err = f.ledger.Unarchive(ctx, r.ID, "bob")
	require.NoError(t, err)
}

func TestGetRequiresParticipant(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	r := f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})

	_, err := f.ledger.Get(t.Context(), r.ID, "carol")
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.ledger.Get(t.Context(), "missing", "alice")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	f := setupLedger(t)
	ctx := t.Context()
	f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune", Tags: []string{"Book"}})
	f.create(t, ledger.Draft{SenderID: "alice", RecipientID: "carol", Title: "Alien", Tags: []string{"movie"}})
	f.create(t, ledger.Draft{SenderID: "bob", RecipientID: "alice", Title: "Dune Part Two", Tags: []string{"movie"}})
	_, err := f.ledger.MarkViewed(ctx, "rec-3", "alice")
	require.NoError(t, err)
	f.create(t, ledger.Draft{SenderID: "carol", RecipientID: "alice", Title: "Halo", Tags: []string{"game"}})

	ids := func(recs []*models.Recommendation) []string {
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter ledger.Filter
		want   []string
	}{
		{"all newest first", ledger.Filter{}, []string{"rec-4", "rec-3", "rec-2", "rec-1"}},
		{"sent", ledger.Filter{Direction: ledger.DirectionSent}, []string{"rec-2", "rec-1"}},
		{"received", ledger.Filter{Direction: ledger.DirectionReceived}, []string{"rec-4", "rec-3"}},
		{"tag ignores case", ledger.Filter{Tag: "book"}, []string{"rec-1"}},
		{"tag is exact", ledger.Filter{Tag: "mov"}, []string{}},
		{"title substring", ledger.Filter{Title: "dUNE"}, []string{"rec-3", "rec-1"}},
		{"counterpart by name", ledger.Filter{Counterpart: "builder"}, []string{"rec-3", "rec-1"}},
		{"counterpart by id", ledger.Filter{Counterpart: "CAR"}, []string{"rec-4", "rec-2"}},
		{"unviewed", ledger.Filter{UnviewedOnly: true}, []string{"rec-4"}},
		{"composed", ledger.Filter{
			Direction: ledger.DirectionReceived, Tag: "movie", Counterpart: "bob",
		}, []string{"rec-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recs, err := f.ledger.List(t.Context(), "alice", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ledger.Direction{
		"":         ledger.DirectionAll,
		"all":      ledger.DirectionAll,
		"Sent":     ledger.DirectionSent,
		"received": ledger.DirectionReceived,
	} {
		got, err := ledger.ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ledger.ParseDirection("sideways")
	require.ErrorIs(t, err, models.ErrInvalidTarget)
}
