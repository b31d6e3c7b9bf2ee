package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-engine/internal/campaign"
	"github.com/ignite/campaign-engine/internal/domain"
	"github.com/ignite/campaign-engine/internal/pkg/logger"
	"github.com/ignite/campaign-engine/internal/segmentation"
)

// Sender triggers a campaign send; implemented by campaign.Dispatcher.
type Sender interface {
	Send(ctx context.Context, campaignID, orgID string, filters map[string]string) (*domain.SendReport, error)
}

// Handlers serves the org-scoped campaign surface.
type Handlers struct {
	campaigns campaign.Store
	sender    Sender
}

// NewHandlers creates the campaign handlers.
func NewHandlers(campaigns campaign.Store, sender Sender) *Handlers {
	return &Handlers{campaigns: campaigns, sender: sender}
}

// campaignRequest uses pointers for optional fields so an update can tell
// "omitted" apart from "explicitly set to the zero value".
type campaignRequest struct {
	Subject               string  `json:"subject"`
	Content               string  `json:"content"`
	ListID                *string `json:"listId"`
	ClickTrackingDisabled *bool   `json:"clickTrackingDisabled"`
	OpenTrackingDisabled  *bool   `json:"openTrackingDisabled"`
}

// CreateCampaign handles POST /api/campaigns.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	c := &domain.Campaign{
		OrganizationID: OrgID(r.Context()),
		ListID:         req.ListID,
		Subject:        req.Subject,
		Content:        req.Content,
	}
	if req.ClickTrackingDisabled != nil {
		c.ClickTrackingDisabled = *req.ClickTrackingDisabled
	}
	if req.OpenTrackingDisabled != nil {
		c.OpenTrackingDisabled = *req.OpenTrackingDisabled
	}
	if err := h.campaigns.Create(r.Context(), c); err != nil {
		logger.Error("create campaign failed", "error", err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCampaigns handles GET /api/campaigns.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context(), OrgID(r.Context()))
	if err != nil {
		logger.Error("list campaigns failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// UpdateCampaign handles PUT /api/campaigns/{id}.
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	orgID := OrgID(r.Context())
	id := chi.URLParam(r, "id")

	existing, err := h.campaigns.Get(r.Context(), orgID, id)
	if err != nil {
		h.campaignError(w, err)
		return
	}

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Subject != "" {
		existing.Subject = req.Subject
	}
	if req.Content != "" {
		existing.Content = req.Content
	}
	if req.ListID != nil {
		existing.ListID = req.ListID
	}
	if req.ClickTrackingDisabled != nil {
		existing.ClickTrackingDisabled = *req.ClickTrackingDisabled
	}
	if req.OpenTrackingDisabled != nil {
		existing.OpenTrackingDisabled = *req.OpenTrackingDisabled
	}

	if err := h.campaigns.Update(r.Context(), existing); err != nil {
		h.campaignError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// SendCampaign handles POST /api/campaigns/{id}/send. The body is an
// arbitrary map of custom-field filters narrowing the audience.
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	// An empty or absent body means "no extra filters"; anything else must
	// decode cleanly. A malformed filter map is rejected before the sender
	// runs: dispatching with a broken filter would mail the whole list.
	filters := map[string]string{}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&filters); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid filter body", http.StatusBadRequest)
			return
		}
	}

	report, err := h.sender.Send(r.Context(), chi.URLParam(r, "id"), OrgID(r.Context()), filters)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrNotFound), errors.Is(err, segmentation.ErrListNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, campaign.ErrNoList):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			logger.Error("campaign send failed", "campaign_id", chi.URLParam(r, "id"), "error", err)
			http.Error(w, "send failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) campaignError(w http.ResponseWriter, err error) {
	if errors.Is(err, campaign.ErrNotFound) {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	logger.Error("campaign operation failed", "error", err)
	http.Error(w, "operation failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
