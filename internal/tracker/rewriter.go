package tracker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ignite/campaign-engine/internal/domain"
)

// hrefRegex matches absolute http(s) href values. The two branches keep
// the opening and closing quote paired, so a value quoted with mismatched
// styles is never merged across attribute boundaries. RE2 has no
// backreferences; the alternation expresses the same constraint.
var hrefRegex = regexp.MustCompile(`href="(https?://[^"]+)"|href='(https?://[^']+)'`)

// Rewriter turns campaign HTML into a per-recipient trackable artifact:
// every outbound href is replaced with a redirect URL carrying a fresh
// slug, and an invisible open pixel is appended. One TrackedLink row is
// persisted per rewritten occurrence before the result is returned.
type Rewriter struct {
	links       LinkStore
	baseURL     string
	slugRetries int
	now         func() time.Time
}

// NewRewriter creates a rewriter. baseURL is the externally reachable
// tracking prefix; slugRetries bounds regeneration after slug collisions.
func NewRewriter(links LinkStore, baseURL string, slugRetries int) *Rewriter {
	if slugRetries < 1 {
		slugRetries = 3
	}
	return &Rewriter{
		links:       links,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		slugRetries: slugRetries,
		now:         time.Now,
	}
}

// Rewrite produces trackable HTML for one recipient. Duplicate URLs in the
// document are not deduplicated: each occurrence gets its own slug and its
// own row, so a click attributes to the exact occurrence that was clicked.
func (rw *Rewriter) Rewrite(ctx context.Context, html string, c *domain.Campaign, listID, subscriberID string) (string, []domain.TrackedLink, error) {
	if rw.baseURL == "" {
		return "", nil, ErrNoBaseURL
	}

	out := html
	var created []domain.TrackedLink

	if !c.ClickTrackingDisabled {
		var err error
		out, created, err = rw.rewriteLinks(ctx, html, c.ID, listID, subscriberID)
		if err != nil {
			return "", nil, err
		}
	}

	if !c.OpenTrackingDisabled {
		out = rw.injectPixel(out, c.ID, listID, subscriberID)
	}

	return out, created, nil
}

func (rw *Rewriter) rewriteLinks(ctx context.Context, html, campaignID, listID, subscriberID string) (string, []domain.TrackedLink, error) {
	matches := hrefRegex.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html, nil, nil
	}

	var b strings.Builder
	var created []domain.TrackedLink
	last := 0

	for _, m := range matches {
		// Group 1 is the double-quoted branch, group 2 single-quoted.
		start, end := m[2], m[3]
		if start == -1 {
			start, end = m[4], m[5]
		}
		originalURL := html[start:end]

		link, err := rw.registerLink(ctx, campaignID, originalURL)
		if err != nil {
			return "", nil, err
		}
		created = append(created, *link)

		redirect := fmt.Sprintf("%s/tracker/click/%s/%s/%s/%s",
			rw.baseURL, campaignID, listID, subscriberID, link.Slug)

		b.WriteString(html[last:start])
		b.WriteString(redirect)
		last = end
	}
	b.WriteString(html[last:])

	return b.String(), created, nil
}

// registerLink persists one TrackedLink, regenerating the slug on a
// uniqueness collision. A collision is retryable, not fatal.
func (rw *Rewriter) registerLink(ctx context.Context, campaignID, originalURL string) (*domain.TrackedLink, error) {
	var lastErr error
	for attempt := 0; attempt < rw.slugRetries; attempt++ {
		link := &domain.TrackedLink{
			CampaignID:  campaignID,
			OriginalURL: originalURL,
			Slug:        NewSlug(),
		}
		err := rw.links.Insert(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return nil, fmt.Errorf("persist tracked link: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("slug collision persisted after %d attempts: %w", rw.slugRetries, lastErr)
}

// injectPixel appends the 1x1 open-tracking image before </body> when
// present, otherwise at the end of the document. The t query parameter
// busts mail-client image caches so re-opens still fire.
func (rw *Rewriter) injectPixel(html, campaignID, listID, subscriberID string) string {
	pixel := fmt.Sprintf(`<img src="%s/tracker/open/%s/%s/%s?t=%d" width="1" height="1" style="display:none;" />`,
		rw.baseURL, campaignID, listID, subscriberID, rw.now().UnixMilli())

	if strings.Contains(html, "</body>") {
		return strings.Replace(html, "</body>", pixel+"</body>", 1)
	}
	return html + pixel
}
