// Package campaign holds the campaign store contract and the dispatch
// orchestration: audience resolution, per-recipient rewriting, delivery,
// and partial-failure accounting.
package campaign

import (
	"context"
	"errors"

	"github.com/ignite/campaign-engine/internal/domain"
)

var (
	// ErrNotFound means the campaign is absent or owned by another
	// organization. Tenant scoping is enforced at this boundary.
	ErrNotFound = errors.New("campaign not found")

	// ErrNoList means the campaign has no target list to send to.
	ErrNoList = errors.New("campaign has no target list")
)

// Store is the campaign repository contract. Every read and write is
// scoped to an organization.
type Store interface {
	Get(ctx context.Context, orgID, id string) (*domain.Campaign, error)
	Create(ctx context.Context, c *domain.Campaign) error
	Update(ctx context.Context, c *domain.Campaign) error
	List(ctx context.Context, orgID string) ([]domain.Campaign, error)
}
