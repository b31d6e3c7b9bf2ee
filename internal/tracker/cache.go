package tracker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-engine/internal/domain"
	"github.com/ignite/campaign-engine/internal/pkg/logger"
)

const linkCachePrefix = "link:"

// CachedLinkStore wraps a LinkStore with a redis read-through cache on
// slug lookups. A TrackedLink is immutable apart from its click counter,
// so positive lookups cache safely; the cached Clicks value is a snapshot
// and the authoritative counter stays in the backing store. Redis being
// down never fails a lookup, it only removes the shortcut.
type CachedLinkStore struct {
	inner LinkStore
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedLinkStore wraps inner with a redis cache.
func NewCachedLinkStore(inner LinkStore, rdb *redis.Client, ttl time.Duration) *CachedLinkStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedLinkStore{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *CachedLinkStore) Insert(ctx context.Context, link *domain.TrackedLink) error {
	if err := c.inner.Insert(ctx, link); err != nil {
		return err
	}
	c.prime(ctx, link)
	return nil
}

func (c *CachedLinkStore) GetBySlug(ctx context.Context, slug string) (*domain.TrackedLink, error) {
	if data, err := c.rdb.Get(ctx, linkCachePrefix+slug).Bytes(); err == nil {
		var link domain.TrackedLink
		if json.Unmarshal(data, &link) == nil {
			return &link, nil
		}
	} else if err != redis.Nil {
		logger.Debug("link cache read failed", "slug", slug, "error", err)
	}

	link, err := c.inner.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, link)
	return link, nil
}

func (c *CachedLinkStore) IncrementClicks(ctx context.Context, id string) error {
	return c.inner.IncrementClicks(ctx, id)
}

func (c *CachedLinkStore) ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackedLink, error) {
	return c.inner.ListByCampaign(ctx, campaignID)
}

func (c *CachedLinkStore) prime(ctx context.Context, link *domain.TrackedLink) {
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, linkCachePrefix+link.Slug, data, c.ttl).Err(); err != nil {
		logger.Debug("link cache write failed", "slug", link.Slug, "error", err)
	}
}
