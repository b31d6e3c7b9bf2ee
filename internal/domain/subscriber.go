package domain

import "time"

// Subscriber represents a single email recipient within a mailing list.
// The dispatch core only consumes id, email and custom fields; lifecycle
// management lives upstream.
type Subscriber struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	ListID         string            `json:"list_id" db:"list_id"`
	Email          string            `json:"email" db:"email"`
	CustomFields   map[string]string `json:"custom_fields" db:"custom_fields"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// List represents a mailing list. CustomFields is the list's base
// segmentation filter, merged with caller filters at send time.
type List struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	Name           string            `json:"name" db:"name"`
	CustomFields   map[string]string `json:"custom_fields" db:"custom_fields"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}
