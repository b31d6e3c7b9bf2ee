package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/campaign-engine/internal/domain"
	"github.com/ignite/campaign-engine/internal/mailer"
	"github.com/ignite/campaign-engine/internal/pkg/logger"
	"github.com/ignite/campaign-engine/internal/segmentation"
	"github.com/ignite/campaign-engine/internal/tracker"
)

// Segmenter resolves a send's audience.
type Segmenter interface {
	Segment(ctx context.Context, listID string, filters map[string]string, orgID string) (*segmentation.Result, error)
}

// Rewriter produces per-recipient trackable content.
type Rewriter interface {
	Rewrite(ctx context.Context, html string, c *domain.Campaign, listID, subscriberID string) (string, []domain.TrackedLink, error)
}

// Renderer substitutes merge fields into campaign content.
type Renderer interface {
	Render(cacheKey, content string, fields map[string]string) (string, error)
}

// Dispatcher orchestrates a bulk send. Recipients are processed
// sequentially: this bounds peak load on the mail transport and keeps the
// tally deterministic. One recipient's failure never aborts the rest.
type Dispatcher struct {
	campaigns Store
	segments  Segmenter
	rewriter  Rewriter
	renderer  Renderer
	mail      mailer.Mailer

	perRecipientTimeout time.Duration
}

// NewDispatcher creates a dispatcher. renderer may be nil to send content
// without merge-field personalization.
func NewDispatcher(campaigns Store, segments Segmenter, rewriter Rewriter, renderer Renderer, mail mailer.Mailer, perRecipientTimeout time.Duration) *Dispatcher {
	if perRecipientTimeout <= 0 {
		perRecipientTimeout = 30 * time.Second
	}
	return &Dispatcher{
		campaigns:           campaigns,
		segments:            segments,
		rewriter:            rewriter,
		renderer:            renderer,
		mail:                mail,
		perRecipientTimeout: perRecipientTimeout,
	}
}

// Send resolves the campaign and its audience, then delivers tracked
// content to every matched subscriber. The returned report always carries
// the full tally, even when every delivery failed. A missing tracking
// base URL aborts the whole send before anything is delivered.
func (d *Dispatcher) Send(ctx context.Context, campaignID, orgID string, filters map[string]string) (*domain.SendReport, error) {
	c, err := d.campaigns.Get(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	if c.ListID == nil {
		return nil, ErrNoList
	}

	audience, err := d.segments.Segment(ctx, *c.ListID, filters, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}

	if len(audience.Data) == 0 {
		return &domain.SendReport{
			CampaignID:     c.ID,
			OrganizationID: orgID,
			Message:        "No subscribers matched filters",
		}, nil
	}

	report := &domain.SendReport{
		CampaignID:       c.ID,
		OrganizationID:   orgID,
		TotalSubscribers: len(audience.Data),
	}

	renderKey := fmt.Sprintf("%s:%d", c.ID, c.UpdatedAt.Unix())

	for _, sub := range audience.Data {
		err := d.deliverOne(ctx, c, renderKey, *c.ListID, sub)
		if errors.Is(err, tracker.ErrNoBaseURL) {
			// Configuration failure: nothing useful can be sent to anyone.
			return nil, err
		}
		if err != nil {
			report.Failed++
			logger.Warn("delivery failed",
				"campaign_id", c.ID, "subscriber_id", sub.ID, "error", err)
			continue
		}
		report.Sent++
	}

	logger.Info("campaign send complete",
		"campaign_id", c.ID, "total", report.TotalSubscribers,
		"sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// deliverOne prepares and sends to a single recipient under the
// per-recipient timeout. A timeout counts as an ordinary delivery failure.
func (d *Dispatcher) deliverOne(ctx context.Context, c *domain.Campaign, renderKey, listID string, sub domain.Subscriber) error {
	ctx, cancel := context.WithTimeout(ctx, d.perRecipientTimeout)
	defer cancel()

	content := c.Content
	if d.renderer != nil {
		rendered, err := d.renderer.Render(renderKey, content, sub.CustomFields)
		if err != nil {
			// Personalization is best-effort; the raw content still sends.
			logger.Warn("merge-field render failed", "campaign_id", c.ID, "error", err)
		} else {
			content = rendered
		}
	}

	tracked, _, err := d.rewriter.Rewrite(ctx, content, c, listID, sub.ID)
	if err != nil {
		return err
	}

	if err := d.mail.Send(ctx, sub.Email, c.Subject, tracked); err != nil {
		return fmt.Errorf("send to subscriber: %w", err)
	}
	return nil
}
