package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	stores := map[string]Store{
		"memory":    NewMemory(),
		"directory": OpenDir(filepath.Join(t.TempDir(), "data")),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)

			_, err = s.Get(ctx, "a/b")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "a/b", []byte("1")))
			require.NoError(t, s.Put(ctx, "c", []byte("2")))
			require.NoError(t, s.Put(ctx, "c", []byte("3")))

			v, err := s.Get(ctx, "c")
			require.NoError(t, err)
			assert.Equal(t, []byte("3"), v)

			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a/b", "c"}, keys)

			require.NoError(t, s.Delete(ctx, "a/b"))
			require.NoError(t, s.Delete(ctx, "missing"))
			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"c"}, keys)
		})
	}
}
