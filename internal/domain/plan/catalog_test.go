package plan

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_SeedLoads(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	plans, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 37)

	// Seed order is the list order.
	assert.Equal(t, "1", plans[0].ID)
	assert.Equal(t, "Nigeria Starter", plans[0].Name)
	assert.Equal(t, "37", plans[len(plans)-1].ID)
}

func TestCatalog_GetByID_RoundTrip(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	plans, err := c.List(context.Background())
	require.NoError(t, err)

	for _, want := range plans {
		got, err := c.GetByID(context.Background(), want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Name, got.Name)
	}
}

func TestCatalog_GetByID_NotFound(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	_, err = c.GetByID(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_PricesAreDecimal(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	p, err := c.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("7.99").Equal(p.Price))
}

func TestNewCatalogFromJSON_RejectsBadSeeds(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty array", `[]`},
		{"missing id", `[{"name":"x","price":1}]`},
		{"duplicate id", `[{"id":"1","price":1},{"id":"1","price":2}]`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCatalogFromJSON([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestCatalog_ListReturnsCopy(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	first, err := c.List(context.Background())
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Nigeria Starter", second[0].Name)
}
