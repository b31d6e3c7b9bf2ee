package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-engine/internal/domain"
)

func TestRecorderEnrichesEvent(t *testing.T) {
	events := &fakeEventStore{}
	geo := NewCIDRGeoResolver(map[string]string{"203.0.113.0/24": "US"})
	rec := NewRecorder(events, geo, nil)

	client := ClientInfo{
		IP:        "203.0.113.9",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/126.0.0.0 Safari/537.36",
	}
	err := rec.Record(context.Background(), client, EventPayload{
		CampaignID:   "camp-1",
		ListID:       "list-1",
		SubscriberID: "sub-1",
		EventType:    domain.EventOpen,
	})
	require.NoError(t, err)

	require.Len(t, events.events, 1)
	evt := events.events[0]
	assert.NotEmpty(t, evt.ID)
	require.NotNil(t, evt.Country)
	assert.Equal(t, "US", *evt.Country)
	assert.Equal(t, "desktop", evt.DeviceType)
	require.NotNil(t, evt.Browser)
	assert.Equal(t, "Chrome", *evt.Browser)
}

func TestRecorderGeoMissLeavesCountryNil(t *testing.T) {
	events := &fakeEventStore{}
	rec := NewRecorder(events, nil, nil)

	err := rec.Record(context.Background(), ClientInfo{IP: "192.0.2.1"}, EventPayload{
		CampaignID:   "camp-1",
		ListID:       "list-1",
		SubscriberID: "sub-1",
		EventType:    domain.EventClick,
	})
	require.NoError(t, err)

	require.Len(t, events.events, 1)
	assert.Nil(t, events.events[0].Country)
	assert.Equal(t, "desktop", events.events[0].DeviceType)
}

func TestRecorderRejectsInvalidEventType(t *testing.T) {
	events := &fakeEventStore{}
	rec := NewRecorder(events, nil, nil)

	err := rec.Record(context.Background(), ClientInfo{}, EventPayload{
		CampaignID: "camp-1",
		EventType:  domain.EventType("BOUNCE"),
	})
	require.Error(t, err)
	assert.Zero(t, events.eventCount())
}

func TestRecorderDistinctRowsPerSignal(t *testing.T) {
	events := &fakeEventStore{}
	rec := NewRecorder(events, nil, nil)

	payload := EventPayload{
		CampaignID:   "camp-1",
		ListID:       "list-1",
		SubscriberID: "sub-1",
		EventType:    domain.EventOpen,
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Record(context.Background(), ClientInfo{}, payload))
	}

	require.Len(t, events.events, 3)
	assert.NotEqual(t, events.events[0].ID, events.events[1].ID)
	assert.NotEqual(t, events.events[1].ID, events.events[2].ID)
}
