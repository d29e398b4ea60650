package schema

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	setup := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, total REAL)`,
		`CREATE TABLE products (id INTEGER PRIMARY KEY, title TEXT, price REAL)`,
	}
	for _, stmt := range setup {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestInspector_TableNames(t *testing.T) {
	i := NewInspector(newTestDB(t))

	names, err := i.TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders", "products"}, names)
}

func TestInspector_Summary(t *testing.T) {
	i := NewInspector(newTestDB(t))

	summary, err := i.Summary(context.Background())
	require.NoError(t, err)

	assert.Contains(t, summary, "TABLE customers (id INTEGER, name TEXT)")
	assert.Contains(t, summary, "TABLE orders")
	assert.Contains(t, summary, "customer_id INTEGER")
}

func TestCachedProvider_FiltersToMentionedTables(t *testing.T) {
	provider, err := NewCachedProvider(NewInspector(newTestDB(t)), time.Minute)
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	blob, err := provider.RelevantContext(context.Background(), "how many customers")
	require.NoError(t, err)

	assert.Contains(t, blob, "TABLE customers")
	assert.NotContains(t, blob, "TABLE products")
}

func TestCachedProvider_FullSummaryWhenNothingMentioned(t *testing.T) {
	provider, err := NewCachedProvider(NewInspector(newTestDB(t)), time.Minute)
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	blob, err := provider.RelevantContext(context.Background(), "what happened last quarter")
	require.NoError(t, err)

	assert.Contains(t, blob, "TABLE customers")
	assert.Contains(t, blob, "TABLE orders")
	assert.Contains(t, blob, "TABLE products")
}

func TestCachedProvider_CachesPerRequest(t *testing.T) {
	provider, err := NewCachedProvider(NewInspector(newTestDB(t)), time.Minute)
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	first, err := provider.RelevantContext(context.Background(), "count orders")
	require.NoError(t, err)
	provider.Wait()

	second, err := provider.RelevantContext(context.Background(), "count orders")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
