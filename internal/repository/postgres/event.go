package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-engine/internal/domain"
)

// EventRepo implements tracker.EventStore. Events are append-only: no
// update or delete path exists here.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed tracker-event repository.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Insert(ctx context.Context, evt *domain.TrackerEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	evt.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracker_events
			(id, campaign_id, list_id, subscriber_id, tracked_link_id,
			 event_type, ip, country, device_type, browser, os, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, evt.ID, evt.CampaignID, evt.ListID, evt.SubscriberID, evt.TrackedLinkID,
		evt.EventType, evt.IP, evt.Country, evt.DeviceType, evt.Browser, evt.OS, evt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tracker event: %w", err)
	}
	return nil
}

func (r *EventRepo) CountByCountry(ctx context.Context, campaignID string) ([]domain.CountBucket, error) {
	return r.countGrouped(ctx, `
		SELECT country, COUNT(*) FROM tracker_events
		WHERE campaign_id = $1 GROUP BY country
	`, campaignID)
}

func (r *EventRepo) CountByDevice(ctx context.Context, campaignID string) ([]domain.CountBucket, error) {
	return r.countGrouped(ctx, `
		SELECT device_type, COUNT(*) FROM tracker_events
		WHERE campaign_id = $1 GROUP BY device_type
	`, campaignID)
}

func (r *EventRepo) CountByType(ctx context.Context, campaignID string) ([]domain.CountBucket, error) {
	return r.countGrouped(ctx, `
		SELECT event_type, COUNT(*) FROM tracker_events
		WHERE campaign_id = $1 GROUP BY event_type
	`, campaignID)
}

func (r *EventRepo) Timeline(ctx context.Context, campaignID string, eventType domain.EventType) ([]domain.TimelinePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE(created_at) AS day, COUNT(*) FROM tracker_events
		WHERE campaign_id = $1 AND event_type = $2
		GROUP BY DATE(created_at) ORDER BY day ASC
	`, campaignID, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("timeline query: %w", err)
	}
	defer rows.Close()

	var points []domain.TimelinePoint
	for rows.Next() {
		var day time.Time
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan timeline row: %w", err)
		}
		points = append(points, domain.TimelinePoint{
			Date:  day.Format("2006-01-02"),
			Count: count,
		})
	}
	return points, rows.Err()
}

// countGrouped runs a two-column (group, count) query. A NULL group value
// (unresolved country) becomes its own bucket with a nil key.
func (r *EventRepo) countGrouped(ctx context.Context, query, campaignID string) ([]domain.CountBucket, error) {
	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("grouped count query: %w", err)
	}
	defer rows.Close()

	var buckets []domain.CountBucket
	for rows.Next() {
		var key sql.NullString
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan count bucket: %w", err)
		}
		b := domain.CountBucket{Count: count}
		if key.Valid {
			v := key.String
			b.Key = &v
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
