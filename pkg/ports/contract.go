package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBackendContract runs a suite of tests to verify that a Backend implementation
// adheres to the defined interface contract.
func RunBackendContract(t *testing.T, backend Backend) {
	ctx := context.Background()
	name := "contract-test-" + time.Now().Format("20060102150405.000000000")

	t.Run("Save and Load", func(t *testing.T) {
		doc := []byte(`{"todos":[{"id":"1","title":"buy milk","completed":false}]}`)

		err := backend.Save(ctx, name, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := backend.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.JSONEq(t, string(doc), string(loaded))
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, backend.Save(ctx, name, []byte(`{"todos":[]}`)))
		require.NoError(t, backend.Save(ctx, name, []byte(`{"todos":[{"id":"2","title":"x","completed":true}]}`)))

		loaded, err := backend.Load(ctx, name)
		require.NoError(t, err)
		assert.Contains(t, string(loaded), `"id":"2"`)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := backend.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Save(ctx, name, []byte(`{"todos":[]}`)))

		err := backend.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = backend.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound, "Load after Delete should return ErrCollectionNotFound")

		assert.NoError(t, backend.Delete(ctx, name), "Deleting twice is not an error")
	})

	if lister, ok := backend.(Lister); ok {
		t.Run("List", func(t *testing.T) {
			id1 := name + "-1"
			id2 := name + "-2"
			_ = backend.Save(ctx, id1, []byte(`{"todos":[]}`))
			_ = backend.Save(ctx, id2, []byte(`{"todos":[]}`))

			defer func() {
				_ = backend.Delete(ctx, id1)
				_ = backend.Delete(ctx, id2)
			}()

			names, err := lister.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, names, id1)
			assert.Contains(t, names, id2)
		})
	}
}
