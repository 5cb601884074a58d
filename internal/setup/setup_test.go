package setup_test

import (
	"testing"
	"time"

	"recky/backend/internal/config"
	"recky/backend/internal/directory"
	"recky/backend/internal/ledger"
	"recky/backend/internal/setup"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWiresMemoryStoreAndNameCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := &config.Config{
		RedisAddr:         mr.Addr(),
		NameCacheTTL:      time.Minute,
		ConflictRetries:   3,
		FanoutConcurrency: 2,
	}

	app, err := setup.New(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { app.Cleanup(t.Context()) })

	ctx := t.Context()
	for _, id := range []string{"alice", "bob"} {
		_, err := app.Users.Register(ctx, id, id+" name")
		require.NoError(t, err)
	}
	assert.True(t, mr.Exists(directory.NameKeyPrefix+"alice"))

	svc := app.Services
	require.NoError(t, svc.Relationships.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, svc.Relationships.AcceptRequest(ctx, "bob", "alice"))

	rec, err := svc.Coordinator.Send(ctx, ledger.Draft{SenderID: "alice", RecipientID: "bob", Title: "Dune"})
	require.NoError(t, err)

	c, err := svc.Engagement.Counters(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ReceivedNoVote)

	got, err := svc.Ledger.Get(ctx, rec.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}
