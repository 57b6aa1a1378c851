// Package cache keeps rendered subtrees in Redis.
//
// Keys embed a generation number read from eq:tree:gen. A committed placement
// bumps the generation, which orphans every earlier key at once; orphaned
// keys expire through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
)

const (
	generationKey = "eq:tree:gen"
	keyPrefix     = "eq:tree:"
)

type TreeCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func New(client redis.Cmdable, ttl time.Duration) *TreeCache {
	return &TreeCache{client: client, ttl: ttl}
}

// Key renders the cache key for a subtree request at generation gen.
func Key(gen int64, root *id.MemberID, maxDepth *int) string {
	rootPart, depthPart := "_", "_"
	if root != nil {
		rootPart = root.String()
	}
	if maxDepth != nil {
		depthPart = strconv.Itoa(*maxDepth)
	}
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, gen, rootPart, depthPart)
}

// Generation returns the current generation; a missing counter is 0.
func (c *TreeCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read tree generation: %w", err)
	}
	return gen, nil
}

// Lookup returns the cached view and the generation it was looked up under.
// On a miss the caller builds the view and passes that same generation to
// Store, so a view built across a concurrent commit lands on a dead key.
func (c *TreeCache) Lookup(ctx context.Context, root *id.MemberID, maxDepth *int) (*models.TreeView, int64, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.client.Get(ctx, Key(gen, root, maxDepth)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read tree view: %w", err)
	}
	var view models.TreeView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, gen, false, fmt.Errorf("decode tree view: %w", err)
	}
	return &view, gen, true, nil
}

func (c *TreeCache) Store(ctx context.Context, gen int64, root *id.MemberID, maxDepth *int, view *models.TreeView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode tree view: %w", err)
	}
	if err := c.client.Set(ctx, Key(gen, root, maxDepth), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write tree view: %w", err)
	}
	return nil
}

// Invalidate advances the generation.
func (c *TreeCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump tree generation: %w", err)
	}
	return nil
}
