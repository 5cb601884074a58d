package directory

import (
	"context"
	"time"

	"recky/backend/internal/models"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// NameKeyPrefix identifies display-name entries in Redis.
const NameKeyPrefix = "recky:user_name:"

// Cached keeps display names in Redis in front of another Directory.
// Redis failures are logged and fall through to the wrapped directory.
type Cached struct {
	next   Directory
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps next with a Redis name cache.
func NewCached(next Directory, client rueidis.Client, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("name_cache"),
	}
}

// Register implements Directory.
func (c *Cached) Register(ctx context.Context, id, displayName string) (*models.User, error) {
	u, err := c.next.Register(ctx, id, displayName)
	if err != nil {
		return nil, err
	}
	c.store(ctx, u.ID, u.DisplayName)
	return u, nil
}

// Exists implements Directory.
func (c *Cached) Exists(ctx context.Context, id string) (bool, error) {
	names, err := c.Names(ctx, []string{id})
	if err != nil {
		return false, err
	}
	_, ok := names[id]
	return ok, nil
}

// Names implements Directory. Cached names come back in one round trip;
// misses are resolved by the wrapped directory and written back together.
func (c *Cached) Names(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	cmds := make(rueidis.Commands, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, c.client.B().Get().Key(NameKeyPrefix+id).Build())
	}

	var misses []string
	for i, result := range c.client.DoMulti(ctx, cmds...) {
		id := ids[i]
		name, err := result.ToString()
		if err != nil {
			if !rueidis.IsRedisNil(err) {
				c.logger.Warn("Failed to read display name from Redis",
					zap.String("userID", id),
					zap.Error(err))
			}
			misses = append(misses, id)
			continue
		}
		names[id] = name
	}
	if len(misses) == 0 {
		return names, nil
	}

	resolved, err := c.next.Names(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, name := range resolved {
		names[id] = name
	}
	c.storeAll(ctx, resolved)
	return names, nil
}

// UserIDs implements Directory.
func (c *Cached) UserIDs(ctx context.Context) ([]string, error) {
	return c.next.UserIDs(ctx)
}

func (c *Cached) store(ctx context.Context, id, name string) {
	c.storeAll(ctx, map[string]string{id: name})
}

func (c *Cached) storeAll(ctx context.Context, names map[string]string) {
	if len(names) == 0 {
		return
	}

	ids := make([]string, 0, len(names))
	cmds := make(rueidis.Commands, 0, len(names))
	for id, name := range names {
		ids = append(ids, id)
		cmds = append(cmds, c.client.B().Set().Key(NameKeyPrefix+id).Value(name).Ex(c.ttl).Build())
	}
	for i, result := range c.client.DoMulti(ctx, cmds...) {
		if err := result.Error(); err != nil {
			c.logger.Warn("Failed to cache display name",
				zap.String("userID", ids[i]),
				zap.Error(err))
		}
	}
}
