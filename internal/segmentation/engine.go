// Package segmentation resolves a campaign's audience: the subscribers of
// a list whose custom fields match a set of exact-equality filters.
package segmentation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ignite/campaign-engine/internal/domain"
)

// ErrListNotFound means the list is absent or owned by another organization.
var ErrListNotFound = errors.New("list not found")

// Result is the resolved audience for one send.
type Result struct {
	Total   int                 `json:"total"`
	Filters map[string]string   `json:"filters"`
	Data    []domain.Subscriber `json:"data"`
}

// Engine resolves audiences with direct SQL over the subscriber table.
type Engine struct {
	db *sql.DB
}

// NewEngine creates a segmentation engine.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// Segment returns the subscribers of listID whose custom fields match both
// the list's base filter and the caller-supplied filters. All matching is
// exact string equality on custom_fields ->> key. The list's own filter
// wins on key conflicts.
func (e *Engine) Segment(ctx context.Context, listID string, filters map[string]string, orgID string) (*Result, error) {
	list, err := e.getList(ctx, orgID, listID)
	if err != nil {
		return nil, err
	}

	combined := make(map[string]string, len(filters)+len(list.CustomFields))
	for k, v := range filters {
		combined[k] = v
	}
	for k, v := range list.CustomFields {
		combined[k] = v
	}

	query := `SELECT id, organization_id, list_id, email, custom_fields, created_at
		FROM subscribers WHERE organization_id = $1 AND list_id = $2`
	args := []interface{}{orgID, listID}

	// Sorted keys keep the generated SQL deterministic.
	keys := make([]string, 0, len(combined))
	for k := range combined {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := 3
	for _, k := range keys {
		query += fmt.Sprintf(" AND custom_fields ->> $%d = $%d", idx, idx+1)
		args = append(args, k, combined[k])
		idx += 2
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("segment subscribers: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		var rawFields []byte
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.ListID, &s.Email, &rawFields, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		if len(rawFields) > 0 {
			json.Unmarshal(rawFields, &s.CustomFields)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("segment subscribers: %w", err)
	}

	return &Result{Total: len(subs), Filters: filters, Data: subs}, nil
}

func (e *Engine) getList(ctx context.Context, orgID, listID string) (*domain.List, error) {
	list := &domain.List{}
	var rawFields []byte
	err := e.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, custom_fields, created_at
		FROM lists WHERE id = $1 AND organization_id = $2
	`, listID, orgID).Scan(&list.ID, &list.OrganizationID, &list.Name, &rawFields, &list.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	if len(rawFields) > 0 {
		json.Unmarshal(rawFields, &list.CustomFields)
	}
	return list, nil
}
