package tracker

import (
	"context"

	"github.com/ignite/campaign-engine/internal/domain"
)

// Analytics computes read-only aggregate views over a campaign's events.
// All views are plain grouped counts; NULL groups (unresolved geo,
// unknown device) are buckets of their own.
type Analytics struct {
	events EventStore
}

// NewAnalytics creates the aggregator over an event store.
func NewAnalytics(events EventStore) *Analytics {
	return &Analytics{events: events}
}

// Geo counts a campaign's events grouped by resolved country.
func (a *Analytics) Geo(ctx context.Context, campaignID string) ([]domain.CountBucket, error) {
	return a.events.CountByCountry(ctx, campaignID)
}

// Devices counts a campaign's events grouped by device type.
func (a *Analytics) Devices(ctx context.Context, campaignID string) ([]domain.CountBucket, error) {
	return a.events.CountByDevice(ctx, campaignID)
}

// Timeline counts one event type per calendar day, ascending.
func (a *Analytics) Timeline(ctx context.Context, campaignID string, eventType domain.EventType) ([]domain.TimelinePoint, error) {
	return a.events.Timeline(ctx, campaignID, eventType)
}

// Summary counts a campaign's events grouped by event type.
func (a *Analytics) Summary(ctx context.Context, campaignID string) ([]domain.CountBucket, error) {
	return a.events.CountByType(ctx, campaignID)
}
