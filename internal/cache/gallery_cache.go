package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digitalforest/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

// DefaultGalleryTTL is how long an approved-media listing stays cached
const DefaultGalleryTTL = 5 * time.Minute

const galleryKeyPrefix = "tree_media:approved:"

// galleryCache stores approved media listings per tree in Redis
type galleryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGalleryCache creates a Redis-backed gallery cache
func NewGalleryCache(rdb *redis.Client, ttl time.Duration) *galleryCache {
	if ttl <= 0 {
		ttl = DefaultGalleryTTL
	}
	return &galleryCache{
		rdb: rdb,
		ttl: ttl,
	}
}

// Get returns the cached listing of a tree. The boolean is false on a cache miss.
func (c *galleryCache) Get(ctx context.Context, treeID string) ([]models.MediaItem, bool, error) {
	data, err := c.rdb.Get(ctx, galleryKey(treeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read gallery cache: %w", err)
	}

	var items []models.MediaItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("failed to decode gallery cache: %w", err)
	}
	return items, true, nil
}

// Set caches the listing of a tree
func (c *galleryCache) Set(ctx context.Context, treeID string, items []models.MediaItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode gallery cache: %w", err)
	}
	if err := c.rdb.Set(ctx, galleryKey(treeID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write gallery cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached listing of a tree
func (c *galleryCache) Invalidate(ctx context.Context, treeID string) error {
	if err := c.rdb.Del(ctx, galleryKey(treeID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate gallery cache: %w", err)
	}
	return nil
}

func galleryKey(treeID string) string {
	return galleryKeyPrefix + treeID
}
