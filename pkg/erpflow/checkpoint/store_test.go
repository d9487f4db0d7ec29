package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchline/erpflow/pkg/erpflow/checkpoint"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) checkpoint.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		result := []byte(`{"to":"client@example.com"}`)
		require.NoError(t, store.Save("evt-1", "send-email", result))

		loaded, err := store.Load("evt-1", "send-email")
		require.NoError(t, err)
		assert.Equal(t, result, loaded)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load("evt-none", "step-none")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("evt-1", "step-a", []byte("first")))
		require.NoError(t, store.Save("evt-1", "step-a", []byte("second")))

		loaded, err := store.Load("evt-1", "step-a")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)
	})

	t.Run(name+"/List_Order", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("evt-1", "step-a", []byte("a")))
		require.NoError(t, store.Save("evt-1", "step-b", []byte("bb")))
		require.NoError(t, store.Save("evt-1", "step-c", []byte("ccc")))

		infos, err := store.List("evt-1")
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, "step-a", infos[0].StepID)
		assert.Equal(t, "step-b", infos[1].StepID)
		assert.Equal(t, "step-c", infos[2].StepID)
		assert.Equal(t, int64(3), infos[2].Size)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		infos, err := store.List("evt-none")
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run(name+"/DeleteRun", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("evt-1", "step-a", []byte("a")))
		require.NoError(t, store.Save("evt-1", "step-b", []byte("b")))
		require.NoError(t, store.Save("evt-2", "step-a", []byte("other")))

		require.NoError(t, store.DeleteRun("evt-1"))

		_, err := store.Load("evt-1", "step-a")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)

		// Other invocations are untouched.
		loaded, err := store.Load("evt-2", "step-a")
		require.NoError(t, err)
		assert.Equal(t, []byte("other"), loaded)
	})

	t.Run(name+"/DeleteRun_Unknown", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		assert.NoError(t, store.DeleteRun("evt-none"))
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.Save("evt-1", "step-a", []byte("a")), checkpoint.ErrStoreClosed)
		_, err := store.Load("evt-1", "step-a")
		assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "memory", func(t *testing.T) checkpoint.Store {
		return checkpoint.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "sqlite", func(t *testing.T) checkpoint.Store {
		store, err := checkpoint.NewSQLiteStore(filepath.Join(t.TempDir(), "steps.db"))
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.db")

	store1, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.Save("evt-1", "send-email", []byte("persistent")))
	require.NoError(t, store1.Close())

	store2, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.Load("evt-1", "send-email")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), loaded)
}

func TestMemoryStoreLen(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save("evt-1", "a", []byte("1")))
	require.NoError(t, store.Save("evt-1", "b", []byte("2")))
	require.NoError(t, store.Save("evt-2", "a", []byte("3")))
	assert.Equal(t, 3, store.Len())

	require.NoError(t, store.DeleteRun("evt-1"))
	assert.Equal(t, 1, store.Len())
}
