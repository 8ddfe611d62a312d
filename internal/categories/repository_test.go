package categories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQueriesWithSearchAndPaging(t *testing.T) {
	count, page := listQueries(ListFilters{Page: 3, Limit: 20, Search: " fruit ", SortBy: "code", SortDir: "desc"})

	countSQL, countArgs, err := count.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM categories WHERE (name ILIKE $1 OR code ILIKE $2)", countSQL)
	assert.Equal(t, []any{"%fruit%", "%fruit%"}, countArgs)

	pageSQL, pageArgs, err := page.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, code, name, created_at, updated_at FROM categories WHERE (name ILIKE $1 OR code ILIKE $2) ORDER BY code DESC, id ASC LIMIT 20 OFFSET 40", pageSQL)
	assert.Equal(t, []any{"%fruit%", "%fruit%"}, pageArgs)
}

func TestListQueriesDefaults(t *testing.T) {
	count, page := listQueries(ListFilters{})

	countSQL, countArgs, err := count.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM categories", countSQL)
	assert.Empty(t, countArgs)

	pageSQL, _, err := page.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, code, name, created_at, updated_at FROM categories ORDER BY name ASC, id ASC", pageSQL)
}

func TestSortOrderIgnoresUnknownColumns(t *testing.T) {
	assert.Equal(t, "name ASC", sortOrder("created_at; DROP TABLE categories", "sideways"))
	assert.Equal(t, "code DESC", sortOrder("code", "desc"))
}
