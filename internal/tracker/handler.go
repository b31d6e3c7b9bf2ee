package tracker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-engine/internal/domain"
	"github.com/ignite/campaign-engine/internal/pkg/logger"
)

// 1x1 transparent GIF served to every open-pixel request.
var pixelGIF, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// openWriteTimeout bounds the detached open-event write.
const openWriteTimeout = 5 * time.Second

// Handler is the public tracking boundary: redirects, pixels, link
// listings and analytics views. It never returns an error body to a mail
// client for a failed event write; only an unknown slug is a 404.
type Handler struct {
	links     LinkStore
	recorder  *Recorder
	analytics *Analytics

	// droppedOpenWrites counts background open-event writes that were
	// discarded. The discard policy is intentional; the counter makes it
	// observable and testable.
	droppedOpenWrites atomic.Int64
}

// NewHandler creates the tracking handler.
func NewHandler(links LinkStore, recorder *Recorder, analytics *Analytics) *Handler {
	return &Handler{links: links, recorder: recorder, analytics: analytics}
}

// Routes returns the tracker route tree, mounted under /tracker.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/click/{campaignID}/{listID}/{subscriberID}/{slug}", h.HandleClick)
	r.Get("/open/{campaignID}/{listID}/{subscriberID}", h.HandleOpen)
	r.Get("/campaigns/{campaignID}/links", h.HandleCampaignLinks)
	r.Get("/analytics/{campaignID}/geo", h.HandleGeo)
	r.Get("/analytics/{campaignID}/devices", h.HandleDevices)
	r.Get("/analytics/{campaignID}/timeline", h.HandleTimeline)
	r.Get("/analytics/{campaignID}/summary", h.HandleSummary)
	return r
}

// DroppedOpenWrites reports how many background open writes were discarded.
func (h *Handler) DroppedOpenWrites() int64 {
	return h.droppedOpenWrites.Load()
}

// HandleClick resolves a slug, bumps the click counter, records the CLICK
// event, then redirects. The slug is the sole authority for the
// destination; the path identifiers only attribute the event. The counter
// increment and the event write are deliberately independent: a crash
// between them leaves the counter briefly ahead, which is acceptable.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	link, err := h.links.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			http.Error(w, "invalid link", http.StatusNotFound)
			return
		}
		logger.Error("click lookup failed", "slug", slug, "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	if err := h.links.IncrementClicks(r.Context(), link.ID); err != nil {
		logger.Warn("click counter increment failed", "link_id", link.ID, "error", err)
	}

	// Clicks record synchronously: unlike opens, the event write happens
	// before the response, but its failure never blocks the redirect.
	payload := EventPayload{
		CampaignID:    chi.URLParam(r, "campaignID"),
		ListID:        chi.URLParam(r, "listID"),
		SubscriberID:  chi.URLParam(r, "subscriberID"),
		EventType:     domain.EventClick,
		TrackedLinkID: &link.ID,
	}
	if err := h.recorder.Record(r.Context(), clientInfo(r), payload); err != nil {
		logger.Warn("click event write failed", "slug", slug, "error", err)
	}

	// Temporary redirect: the slug must keep routing through this handler
	// on every click, never be cached as a direct jump.
	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}

// HandleOpen serves the pixel immediately and records the OPEN event in a
// detached goroutine. Image delivery never fails or stalls because
// analytics recording failed.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	payload := EventPayload{
		CampaignID:   chi.URLParam(r, "campaignID"),
		ListID:       chi.URLParam(r, "listID"),
		SubscriberID: chi.URLParam(r, "subscriberID"),
		EventType:    domain.EventOpen,
	}
	client := clientInfo(r)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), openWriteTimeout)
		defer cancel()
		if err := h.recorder.Record(ctx, client, payload); err != nil {
			h.droppedOpenWrites.Add(1)
			logger.Warn("open event write dropped",
				"campaign_id", payload.CampaignID, "ip", client.IP, "error", err)
		}
	}()

	h.servePixel(w)
}

// HandleCampaignLinks lists a campaign's tracked links, most clicked first.
func (h *Handler) HandleCampaignLinks(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	links, err := h.links.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		logger.Error("list campaign links failed", "campaign_id", campaignID, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, links)
}

func (h *Handler) HandleGeo(w http.ResponseWriter, r *http.Request) {
	h.serveBuckets(w, r, h.analytics.Geo)
}

func (h *Handler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	h.serveBuckets(w, r, h.analytics.Devices)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serveBuckets(w, r, h.analytics.Summary)
}

// HandleTimeline requires ?type=OPEN|CLICK.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	eventType := domain.EventType(r.URL.Query().Get("type"))
	if !eventType.Valid() {
		http.Error(w, "type must be OPEN or CLICK", http.StatusBadRequest)
		return
	}

	campaignID := chi.URLParam(r, "campaignID")
	points, err := h.analytics.Timeline(r.Context(), campaignID, eventType)
	if err != nil {
		logger.Error("timeline query failed", "campaign_id", campaignID, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if points == nil {
		points = []domain.TimelinePoint{}
	}
	writeJSON(w, points)
}

func (h *Handler) serveBuckets(w http.ResponseWriter, r *http.Request,
	query func(context.Context, string) ([]domain.CountBucket, error)) {

	campaignID := chi.URLParam(r, "campaignID")
	buckets, err := query(r.Context(), campaignID)
	if err != nil {
		logger.Error("analytics query failed", "campaign_id", campaignID, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if buckets == nil {
		buckets = []domain.CountBucket{}
	}
	writeJSON(w, buckets)
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	w.Write(pixelGIF)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func clientInfo(r *http.Request) ClientInfo {
	return ClientInfo{IP: realIP(r), UserAgent: r.UserAgent()}
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
