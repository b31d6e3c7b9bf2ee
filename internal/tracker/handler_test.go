package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-engine/internal/domain"
)

// fakeEventStore records inserted events and serves canned aggregates.
type fakeEventStore struct {
	mu        sync.Mutex
	events    []domain.TrackerEvent
	insertErr error

	countries []domain.CountBucket
	devices   []domain.CountBucket
	types     []domain.CountBucket
	timeline  []domain.TimelinePoint
}

func (f *fakeEventStore) Insert(_ context.Context, evt *domain.TrackerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.events = append(f.events, *evt)
	return nil
}

func (f *fakeEventStore) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeEventStore) CountByCountry(context.Context, string) ([]domain.CountBucket, error) {
	return f.countries, nil
}

func (f *fakeEventStore) CountByDevice(context.Context, string) ([]domain.CountBucket, error) {
	return f.devices, nil
}

func (f *fakeEventStore) CountByType(context.Context, string) ([]domain.CountBucket, error) {
	return f.types, nil
}

func (f *fakeEventStore) Timeline(context.Context, string, domain.EventType) ([]domain.TimelinePoint, error) {
	return f.timeline, nil
}

func newTestHandler(links LinkStore, events EventStore) (*Handler, chi.Router) {
	recorder := NewRecorder(events, nil, nil)
	h := NewHandler(links, recorder, NewAnalytics(events))
	r := chi.NewRouter()
	r.Mount("/tracker", h.Routes())
	return h, r
}

func seedLink(t *testing.T, store *fakeLinkStore, slug, url string) *domain.TrackedLink {
	t.Helper()
	link := &domain.TrackedLink{CampaignID: "camp-1", OriginalURL: url, Slug: slug}
	require.NoError(t, store.Insert(context.Background(), link))
	return link
}

func TestHandleClickRedirects(t *testing.T) {
	links := newFakeLinkStore()
	events := &fakeEventStore{}
	link := seedLink(t, links, "abc123def456", "https://example.com/offer")
	_, router := newTestHandler(links, events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/click/camp-1/list-1/sub-1/abc123def456", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/604.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/offer", rec.Header().Get("Location"))

	stored, err := links.GetBySlug(context.Background(), "abc123def456")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Clicks, "exactly one increment per click")

	require.Len(t, events.events, 1)
	evt := events.events[0]
	assert.Equal(t, domain.EventClick, evt.EventType)
	assert.Equal(t, "camp-1", evt.CampaignID)
	assert.Equal(t, "list-1", evt.ListID)
	assert.Equal(t, "sub-1", evt.SubscriberID)
	require.NotNil(t, evt.TrackedLinkID)
	assert.Equal(t, link.ID, *evt.TrackedLinkID)
	assert.Equal(t, "203.0.113.9", evt.IP)
	assert.Equal(t, "mobile", evt.DeviceType)
}

func TestHandleClickUnknownSlug(t *testing.T) {
	links := newFakeLinkStore()
	events := &fakeEventStore{}
	_, router := newTestHandler(links, events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/click/camp-1/list-1/sub-1/000000000000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, events.eventCount(), "unknown slug records nothing")
}

func TestHandleClickEventFailureStillRedirects(t *testing.T) {
	links := newFakeLinkStore()
	events := &fakeEventStore{insertErr: context.DeadlineExceeded}
	seedLink(t, links, "abc123def456", "https://example.com")
	_, router := newTestHandler(links, events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/click/camp-1/list-1/sub-1/abc123def456", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Location"))
}

func TestHandleOpenServesPixel(t *testing.T) {
	links := newFakeLinkStore()
	events := &fakeEventStore{}
	_, router := newTestHandler(links, events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/open/camp-1/list-1/sub-1?t=1712345678901", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, pixelGIF, rec.Body.Bytes())

	// The event write is detached from the response.
	require.Eventually(t, func() bool { return events.eventCount() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.EventOpen, events.events[0].EventType)
	assert.Nil(t, events.events[0].TrackedLinkID)
}

func TestHandleOpenDiscardsFailedWrites(t *testing.T) {
	links := newFakeLinkStore()
	events := &fakeEventStore{insertErr: context.DeadlineExceeded}
	h, router := newTestHandler(links, events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/open/camp-1/list-1/sub-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "pixel delivery is unconditional")
	assert.Equal(t, pixelGIF, rec.Body.Bytes())

	require.Eventually(t, func() bool { return h.DroppedOpenWrites() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Zero(t, events.eventCount())
}

func TestHandleCampaignLinks(t *testing.T) {
	links := newFakeLinkStore()
	events := &fakeEventStore{}
	seedLink(t, links, "aaaaaaaaaaaa", "https://example.com/a")
	hot := seedLink(t, links, "bbbbbbbbbbbb", "https://example.com/b")
	require.NoError(t, links.IncrementClicks(context.Background(), hot.ID))
	_, router := newTestHandler(links, events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/campaigns/camp-1/links", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.TrackedLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "bbbbbbbbbbbb", got[0].Slug, "most clicked first")
}

func TestAnalyticsEndpoints(t *testing.T) {
	us := "US"
	events := &fakeEventStore{
		countries: []domain.CountBucket{{Key: &us, Count: 7}, {Key: nil, Count: 2}},
		types:     []domain.CountBucket{{Key: strptr("OPEN"), Count: 5}},
		timeline:  []domain.TimelinePoint{{Date: "2026-08-01", Count: 3}},
	}
	_, router := newTestHandler(newFakeLinkStore(), events)

	req := httptest.NewRequest(http.MethodGet, "/tracker/analytics/camp-1/geo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var buckets []domain.CountBucket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buckets))
	require.Len(t, buckets, 2)
	assert.Equal(t, 7, buckets[0].Count)
	assert.Nil(t, buckets[1].Key, "unresolved geo is its own bucket")

	req = httptest.NewRequest(http.MethodGet, "/tracker/analytics/camp-1/timeline?type=OPEN", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var points []domain.TimelinePoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "2026-08-01", points[0].Date)
}

func TestHandleTimelineRejectsBadType(t *testing.T) {
	_, router := newTestHandler(newFakeLinkStore(), &fakeEventStore{})

	for _, q := range []string{"", "?type=BOUNCE", "?type=open"} {
		req := httptest.NewRequest(http.MethodGet, "/tracker/analytics/camp-1/timeline"+q, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", q)
	}
}

func TestRealIPPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:54321"
	assert.Equal(t, "192.0.2.1", realIP(req))

	req.Header.Set("X-Real-Ip", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", realIP(req))
}
