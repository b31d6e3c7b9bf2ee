package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/campaign-engine/internal/domain"
	"github.com/ignite/campaign-engine/internal/tracker"
)

// uniqueViolation is the Postgres error code for a unique-index conflict.
const uniqueViolation = "23505"

// LinkRepo implements tracker.LinkStore.
type LinkRepo struct{ db *sql.DB }

// NewLinkRepo creates a Postgres-backed tracked-link repository.
func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{db: db} }

// Insert persists one tracked link. A slug conflict surfaces as
// tracker.ErrSlugTaken so the caller can regenerate and retry.
func (r *LinkRepo) Insert(ctx context.Context, link *domain.TrackedLink) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracked_links (id, campaign_id, original_url, slug, clicks, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, link.ID, link.CampaignID, link.OriginalURL, link.Slug, link.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return tracker.ErrSlugTaken
		}
		return fmt.Errorf("insert tracked link: %w", err)
	}
	return nil
}

func (r *LinkRepo) GetBySlug(ctx context.Context, slug string) (*domain.TrackedLink, error) {
	link := &domain.TrackedLink{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, original_url, slug, clicks, created_at
		FROM tracked_links WHERE slug = $1
	`, slug).Scan(&link.ID, &link.CampaignID, &link.OriginalURL, &link.Slug, &link.Clicks, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, tracker.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link by slug: %w", err)
	}
	return link, nil
}

// IncrementClicks bumps the counter in a single SQL statement so
// concurrent clicks on a popular link never lose updates.
func (r *LinkRepo) IncrementClicks(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tracked_links SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}
	return nil
}

func (r *LinkRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackedLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, original_url, slug, clicks, created_at
		FROM tracked_links WHERE campaign_id = $1 ORDER BY clicks DESC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign links: %w", err)
	}
	defer rows.Close()

	var links []domain.TrackedLink
	for rows.Next() {
		var l domain.TrackedLink
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.OriginalURL, &l.Slug, &l.Clicks, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tracked link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
