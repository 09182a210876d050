package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "appaccounts/pkg/domain-errors"
)

var widgetColumns = PageColumns{
	Scope:   "app_account_id",
	Updated: "updated_at",
	Status:  "status",
	Deleted: "is_deleted",
	Search:  []string{"widget_name", "note"},
}

func TestPageRequestNormalizeDefaults(t *testing.T) {
	req := PageRequest{ScopeID: uuid.New()}
	require.NoError(t, req.normalize())

	assert.Equal(t, DirectionNext, req.Direction)
	assert.Equal(t, FilterAny, req.Status)
	assert.Equal(t, MaxPageLimit, req.Limit)
}

func TestPageRequestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name string
		req  PageRequest
	}{
		{"missing scope", PageRequest{}},
		{"unknown direction", PageRequest{ScopeID: uuid.New(), Direction: "sideways"}},
		{"unknown status", PageRequest{ScopeID: uuid.New(), Status: "archived"}},
		{"negative limit", PageRequest{ScopeID: uuid.New(), Limit: -1}},
		{"limit above max", PageRequest{ScopeID: uuid.New(), Limit: MaxPageLimit + 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.normalize()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestBuildQueryBaseline(t *testing.T) {
	scopeID := uuid.New()
	req := PageRequest{ScopeID: scopeID}
	require.NoError(t, req.normalize())

	query, args := widgetColumns.BuildQuery(req)

	assert.Equal(t,
		" WHERE is_deleted = FALSE AND app_account_id = $1 ORDER BY updated_at DESC LIMIT $2",
		query)
	assert.Equal(t, []any{scopeID, MaxPageLimit}, args)
}

func TestBuildQueryNextCursor(t *testing.T) {
	cursor := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	req := PageRequest{ScopeID: uuid.New(), Cursor: &cursor, Limit: 20}
	require.NoError(t, req.normalize())

	query, args := widgetColumns.BuildQuery(req)

	assert.Contains(t, query, "updated_at < $2")
	assert.Contains(t, query, "ORDER BY updated_at DESC")
	assert.Equal(t, cursor, args[1])
	assert.Equal(t, 20, args[2])
}

func TestBuildQueryPreviousCursorScansAscending(t *testing.T) {
	cursor := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	req := PageRequest{ScopeID: uuid.New(), Direction: DirectionPrevious, Cursor: &cursor}
	require.NoError(t, req.normalize())

	query, _ := widgetColumns.BuildQuery(req)

	assert.Contains(t, query, "updated_at > $2")
	assert.Contains(t, query, "ORDER BY updated_at ASC")
}

func TestBuildQueryStatusAndSearchAreParameterized(t *testing.T) {
	req := PageRequest{ScopeID: uuid.New(), Status: FilterActive, Search: "PLUMB'; DROP TABLE--"}
	require.NoError(t, req.normalize())

	query, args := widgetColumns.BuildQuery(req)

	assert.Contains(t, query, "status = $2")
	assert.Contains(t, query, "(LOWER(widget_name) LIKE $3 OR LOWER(note) LIKE $3)")
	assert.NotContains(t, query, "DROP TABLE", "search input must never reach the SQL text")
	assert.Equal(t, "active", args[1])
	assert.Equal(t, "%plumb'; drop table--%", args[2])
}

func TestBuildQuerySearchPatternIsCaseFolded(t *testing.T) {
	req := PageRequest{ScopeID: uuid.New(), Search: "Gardening"}
	require.NoError(t, req.normalize())

	_, args := widgetColumns.BuildQuery(req)
	assert.Equal(t, "%gardening%", args[1])
}

func TestSortDescending(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	items := []*widget{
		{Name: "old", Stamped: Stamped{UpdatedAt: base}},
		{Name: "new", Stamped: Stamped{UpdatedAt: base.Add(2 * time.Minute)}},
		{Name: "mid", Stamped: Stamped{UpdatedAt: base.Add(time.Minute)}},
	}

	sortDescending(items, func(w *widget) time.Time { return w.UpdatedAt })

	assert.Equal(t, []string{"new", "mid", "old"}, []string{items[0].Name, items[1].Name, items[2].Name})
}
