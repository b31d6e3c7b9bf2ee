package tracker

import (
	"context"

	"github.com/ignite/campaign-engine/internal/domain"
)

// LinkStore persists the slug → (campaign, URL) mapping. The postgres
// implementation lives in internal/repository/postgres; a redis
// read-through wrapper is in cache.go.
type LinkStore interface {
	Insert(ctx context.Context, link *domain.TrackedLink) error
	GetBySlug(ctx context.Context, slug string) (*domain.TrackedLink, error)
	// IncrementClicks must be a single atomic increment at the storage
	// layer, never an application-level read-modify-write.
	IncrementClicks(ctx context.Context, id string) error
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackedLink, error)
}

// EventStore persists immutable tracker events and serves the grouped
// counts the analytics views are built from.
type EventStore interface {
	Insert(ctx context.Context, evt *domain.TrackerEvent) error
	CountByCountry(ctx context.Context, campaignID string) ([]domain.CountBucket, error)
	CountByDevice(ctx context.Context, campaignID string) ([]domain.CountBucket, error)
	CountByType(ctx context.Context, campaignID string) ([]domain.CountBucket, error)
	Timeline(ctx context.Context, campaignID string, eventType domain.EventType) ([]domain.TimelinePoint, error)
}
