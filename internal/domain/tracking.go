package domain

import "time"

// EventType enumerates the engagement events the tracker records.
type EventType string

const (
	EventOpen  EventType = "OPEN"
	EventClick EventType = "CLICK"
)

// Valid reports whether t is one of the two recordable event types.
func (t EventType) Valid() bool {
	return t == EventOpen || t == EventClick
}

// TrackedLink maps a slug embedded in a redirect URL back to the original
// destination of one rewritten href occurrence. Rows grow monotonically:
// one per recipient per occurrence, never updated except for the click
// counter, never deleted.
type TrackedLink struct {
	ID          string    `json:"id" db:"id"`
	CampaignID  string    `json:"campaign_id" db:"campaign_id"`
	OriginalURL string    `json:"original_url" db:"original_url"`
	Slug        string    `json:"slug" db:"slug"`
	Clicks      int       `json:"clicks" db:"clicks"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TrackerEvent is a single immutable engagement signal. Campaign, list and
// subscriber ids are soft references so late or out-of-order writes are
// never rejected by the store.
type TrackerEvent struct {
	ID            string    `json:"id" db:"id"`
	CampaignID    string    `json:"campaign_id" db:"campaign_id"`
	ListID        string    `json:"list_id" db:"list_id"`
	SubscriberID  string    `json:"subscriber_id" db:"subscriber_id"`
	TrackedLinkID *string   `json:"tracked_link_id,omitempty" db:"tracked_link_id"`
	EventType     EventType `json:"event_type" db:"event_type"`
	IP            string    `json:"ip,omitempty" db:"ip"`
	Country       *string   `json:"country" db:"country"`
	DeviceType    string    `json:"device_type" db:"device_type"`
	Browser       *string   `json:"browser" db:"browser"`
	OS            *string   `json:"os" db:"os"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CountBucket is one row of a grouped-count aggregate. Key is the group
// value and is nil for the NULL bucket (e.g. geo-unresolved events).
type CountBucket struct {
	Key   *string `json:"key"`
	Count int     `json:"count"`
}

// TimelinePoint is one calendar day of a campaign's event timeline.
type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
