package domain

import "time"

// Campaign represents an email campaign with its content and tracking config.
type Campaign struct {
	ID                    string    `json:"id" db:"id"`
	OrganizationID        string    `json:"organization_id" db:"organization_id"`
	ListID                *string   `json:"list_id" db:"list_id"`
	Subject               string    `json:"subject" db:"subject"`
	Content               string    `json:"content" db:"content"`
	ClickTrackingDisabled bool      `json:"click_tracking_disabled" db:"click_tracking_disabled"`
	OpenTrackingDisabled  bool      `json:"open_tracking_disabled" db:"open_tracking_disabled"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// SendReport is the outcome of one bulk send: the tally returned to the
// caller regardless of how many individual deliveries failed.
type SendReport struct {
	CampaignID       string `json:"campaignId"`
	OrganizationID   string `json:"organizationId"`
	TotalSubscribers int    `json:"totalSubscribers"`
	Sent             int    `json:"sent"`
	Failed           int    `json:"failed"`
	Message          string `json:"message,omitempty"`
}
