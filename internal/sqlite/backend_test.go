package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// attachTemp attaches a backend to a fresh temp directory and detaches it
// when the test ends.
func attachTemp(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func TestBackend_Attach(t *testing.T) {
	t.Run("creates data dir and files", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")
		b := NewBackend()
		require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
		defer b.Detach()

		for _, name := range []string{productsJSONL, databaseFile} {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err, "expected %s to exist", name)
		}
		assert.Equal(t, dir, b.DataDir())
	})

	t.Run("rejects double attach", func(t *testing.T) {
		b, dir := attachTemp(t)
		err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
		assert.ErrorIs(t, err, types.ErrAlreadyAttached)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		b := NewBackend()
		err := b.Attach(types.Config{Backend: "bolt", DataDir: t.TempDir()})
		assert.ErrorIs(t, err, types.ErrBackendUnknown)
	})
}

func TestBackend_Detach(t *testing.T) {
	b, _ := attachTemp(t)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach must be idempotent")

	_, err := b.Load()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Save(map[string]*types.Product{}), types.ErrStoreDetached)
	_, err = b.Fetch(types.ProductFilter{})
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.Empty(t, b.DataDir())
}

func TestBackend_LoadEmpty(t *testing.T) {
	b, _ := attachTemp(t)

	products, err := b.Load()
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}
