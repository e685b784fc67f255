package tests

import (
	"context"
	"testing"

	"github.com/aretw0/metta/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HistoryStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.HistoryStore.
// The store must start empty.
func HistoryStoreContractTest(t *testing.T, store ports.HistoryStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Empty", func(t *testing.T) {
		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Append_PreservesOrder", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, "!(+ 1 2)", "(foo\n(bar))"))
		require.NoError(t, store.Append(ctx, `!(println! "a\b")`))

		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"!(+ 1 2)", "(foo\n(bar))", `!(println! "a\b")`}, entries)
	})

	t.Run("Append_Nothing", func(t *testing.T) {
		before, err := store.Load(ctx)
		require.NoError(t, err)

		require.NoError(t, store.Append(ctx))

		after, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))

		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)

		require.NoError(t, store.Clear(ctx), "clearing an empty store is not an error")
	})
}
