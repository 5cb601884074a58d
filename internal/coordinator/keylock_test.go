package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLockSerializesOneKey(t *testing.T) {
	t.Parallel()

	locks := newKeyLock()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Lock(t.Context(), "rec")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			holders++
			maxSeen = max(maxSeen, holders)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.size())
}

func TestKeyLockHonorsContext(t *testing.T) {
	t.Parallel()

	locks := newKeyLock()
	release, err := locks.Lock(t.Context(), "rec")
	require.NoError(t, err)

	other, err := locks.Lock(t.Context(), "other")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "rec")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Zero(t, locks.size())
}
