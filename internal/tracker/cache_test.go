package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-engine/internal/domain"
)

// countingLinkStore counts slug lookups so cache hits are observable.
type countingLinkStore struct {
	*fakeLinkStore
	lookups int
}

func (c *countingLinkStore) GetBySlug(ctx context.Context, slug string) (*domain.TrackedLink, error) {
	c.lookups++
	return c.fakeLinkStore.GetBySlug(ctx, slug)
}

func newCacheFixture(t *testing.T) (*countingLinkStore, *CachedLinkStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	inner := &countingLinkStore{fakeLinkStore: newFakeLinkStore()}
	return inner, NewCachedLinkStore(inner, rdb, time.Minute), mr
}

func TestCachedLinkStoreReadThrough(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	link := &domain.TrackedLink{CampaignID: "camp-1", OriginalURL: "https://example.com", Slug: "aaaabbbbcccc"}
	require.NoError(t, inner.Insert(ctx, link))

	first, err := cached.GetBySlug(ctx, "aaaabbbbcccc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", first.OriginalURL)
	assert.Equal(t, 1, inner.lookups)

	second, err := cached.GetBySlug(ctx, "aaaabbbbcccc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, inner.lookups, "second lookup must come from redis")
}

func TestCachedLinkStoreInsertPrimes(t *testing.T) {
	inner, cached, mr := newCacheFixture(t)
	ctx := context.Background()

	link := &domain.TrackedLink{CampaignID: "camp-1", OriginalURL: "https://example.com", Slug: "ddddeeeeffff"}
	require.NoError(t, cached.Insert(ctx, link))

	assert.True(t, mr.Exists("link:ddddeeeeffff"), "insert should prime the cache")

	_, err := cached.GetBySlug(ctx, "ddddeeeeffff")
	require.NoError(t, err)
	assert.Equal(t, 0, inner.lookups)
}

func TestCachedLinkStoreMissPropagates(t *testing.T) {
	_, cached, _ := newCacheFixture(t)

	_, err := cached.GetBySlug(context.Background(), "000000000000")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestCachedLinkStoreSurvivesRedisOutage(t *testing.T) {
	inner, cached, mr := newCacheFixture(t)
	ctx := context.Background()

	link := &domain.TrackedLink{CampaignID: "camp-1", OriginalURL: "https://example.com", Slug: "aaaabbbbcccc"}
	require.NoError(t, inner.Insert(ctx, link))

	mr.Close()

	got, err := cached.GetBySlug(ctx, "aaaabbbbcccc")
	require.NoError(t, err, "redis outage must not fail lookups")
	assert.Equal(t, "https://example.com", got.OriginalURL)
	assert.Equal(t, 1, inner.lookups)
}

func TestCachedLinkStoreExpiredEntryFallsThrough(t *testing.T) {
	inner, cached, mr := newCacheFixture(t)
	ctx := context.Background()

	link := &domain.TrackedLink{CampaignID: "camp-1", OriginalURL: "https://example.com", Slug: "aaaabbbbcccc"}
	require.NoError(t, cached.Insert(ctx, link))

	mr.FastForward(2 * time.Minute)

	_, err := cached.GetBySlug(ctx, "aaaabbbbcccc")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lookups, "expired entry reloads from the backing store")
}
