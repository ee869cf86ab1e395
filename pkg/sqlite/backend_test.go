package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestNewBackend_SaveLoad(t *testing.T) {
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(cfg))
	require.NoError(t, store.Save(map[string]*types.Product{
		"dish_soap": {ProductID: "dish_soap", Name: "Dish Soap", StockQuantity: 2, TrackStock: true},
	}))
	require.NoError(t, store.Detach())

	_, err := store.Load()
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	reopened := sqlite.NewBackend()
	require.NoError(t, reopened.Attach(cfg))
	defer reopened.Detach()

	loaded, err := reopened.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "dish_soap")
	assert.Equal(t, 2, loaded["dish_soap"].StockQuantity)
	assert.False(t, loaded["dish_soap"].IsCyclical())
}
