package segmentation

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func listRows(customFields string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "name", "custom_fields", "created_at"}).
		AddRow("list-1", "org-1", "Newsletter", []byte(customFields), time.Now())
}

func subscriberRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "list_id", "email", "custom_fields", "created_at"})
}

func TestSegmentCombinesListAndCallerFilters(t *testing.T) {
	db, mock := newMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lists WHERE id = $1 AND organization_id = $2")).
		WithArgs("list-1", "org-1").
		WillReturnRows(listRows(`{"plan":"pro"}`))

	// Keys are applied in sorted order: city before plan.
	mock.ExpectQuery(regexp.QuoteMeta(
		"AND custom_fields ->> $3 = $4 AND custom_fields ->> $5 = $6")).
		WithArgs("org-1", "list-1", "city", "Austin", "plan", "pro").
		WillReturnRows(subscriberRows().
			AddRow("sub-1", "org-1", "list-1", "ada@example.com", []byte(`{"city":"Austin","plan":"pro"}`), time.Now()))

	result, err := engine.Segment(context.Background(), "list-1",
		map[string]string{"city": "Austin"}, "org-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "ada@example.com", result.Data[0].Email)
	assert.Equal(t, "Austin", result.Data[0].CustomFields["city"])
	assert.Equal(t, map[string]string{"city": "Austin"}, result.Filters,
		"result echoes the caller filters, not the combined set")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSegmentListFilterWinsOnConflict(t *testing.T) {
	db, mock := newMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lists")).
		WithArgs("list-1", "org-1").
		WillReturnRows(listRows(`{"plan":"pro"}`))

	// The caller asked for plan=free; the list's own plan=pro prevails.
	mock.ExpectQuery(regexp.QuoteMeta("AND custom_fields ->> $3 = $4")).
		WithArgs("org-1", "list-1", "plan", "pro").
		WillReturnRows(subscriberRows())

	result, err := engine.Segment(context.Background(), "list-1",
		map[string]string{"plan": "free"}, "org-1")
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSegmentNoFilters(t *testing.T) {
	db, mock := newMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lists")).
		WithArgs("list-1", "org-1").
		WillReturnRows(listRows(`{}`))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE organization_id = $1 AND list_id = $2")).
		WithArgs("org-1", "list-1").
		WillReturnRows(subscriberRows().
			AddRow("sub-1", "org-1", "list-1", "a@example.com", []byte(`{}`), time.Now()).
			AddRow("sub-2", "org-1", "list-1", "b@example.com", nil, time.Now()))

	result, err := engine.Segment(context.Background(), "list-1", nil, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Nil(t, result.Data[1].CustomFields, "NULL custom_fields scan cleanly")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSegmentUnknownList(t *testing.T) {
	db, mock := newMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lists")).
		WithArgs("list-9", "org-1").
		WillReturnError(sql.ErrNoRows)

	_, err := engine.Segment(context.Background(), "list-9", nil, "org-1")
	assert.ErrorIs(t, err, ErrListNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSegmentScopedToOrganization(t *testing.T) {
	db, mock := newMock(t)
	engine := NewEngine(db)

	// Same list id under a different org resolves nothing.
	mock.ExpectQuery(regexp.QuoteMeta("FROM lists")).
		WithArgs("list-1", "org-2").
		WillReturnError(sql.ErrNoRows)

	_, err := engine.Segment(context.Background(), "list-1", nil, "org-2")
	assert.ErrorIs(t, err, ErrListNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
