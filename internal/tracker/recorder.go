package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/campaign-engine/internal/domain"
)

// ClientInfo is what the public boundary knows about the requester.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// EventPayload identifies the engagement being recorded. TrackedLinkID is
// set for clicks only; opens are not per-link.
type EventPayload struct {
	CampaignID    string
	ListID        string
	SubscriberID  string
	EventType     domain.EventType
	TrackedLinkID *string
}

// Recorder normalizes engagement signals into immutable TrackerEvent rows,
// enriched with best-effort geo and user-agent metadata. Enrichment misses
// degrade data quality, never availability.
type Recorder struct {
	events EventStore
	geo    GeoResolver
	ua     UserAgentParser
}

// NewRecorder creates a recorder. Nil geo or ua fall back to the no-op
// resolver and the substring parser.
func NewRecorder(events EventStore, geo GeoResolver, ua UserAgentParser) *Recorder {
	if geo == nil {
		geo = NopGeoResolver{}
	}
	if ua == nil {
		ua = SubstringUAParser{}
	}
	return &Recorder{events: events, geo: geo, ua: ua}
}

// Record writes one event. Repeated identical requests each produce a
// distinct row: raw counts are engagement signals, not unique recipients.
func (r *Recorder) Record(ctx context.Context, client ClientInfo, payload EventPayload) error {
	if !payload.EventType.Valid() {
		return fmt.Errorf("invalid event type %q", payload.EventType)
	}

	evt := &domain.TrackerEvent{
		ID:            uuid.New().String(),
		CampaignID:    payload.CampaignID,
		ListID:        payload.ListID,
		SubscriberID:  payload.SubscriberID,
		TrackedLinkID: payload.TrackedLinkID,
		EventType:     payload.EventType,
		IP:            client.IP,
	}

	if country, ok := r.geo.Country(client.IP); ok {
		evt.Country = &country
	}

	info := r.ua.Parse(client.UserAgent)
	evt.DeviceType = info.DeviceType
	evt.Browser = info.Browser
	evt.OS = info.OS

	if err := r.events.Insert(ctx, evt); err != nil {
		return fmt.Errorf("record %s event: %w", payload.EventType, err)
	}
	return nil
}
