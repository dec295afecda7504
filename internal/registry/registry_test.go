package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler() Handler {
	return HandlerFunc(func(ctx context.Context) error { return nil })
}

func TestRegister(t *testing.T) {
	t.Run("binds a handler to an identifier", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register("refresh", noopHandler()))

		handler, ok := r.Lookup("refresh")
		assert.True(t, ok)
		assert.NotNil(t, handler)
	})

	t.Run("rejects duplicate identifiers", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register("refresh", noopHandler()))

		err := r.Register("refresh", noopHandler())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateRegistration)

		// The original binding is untouched.
		_, ok := r.Lookup("refresh")
		assert.True(t, ok)
	})

	t.Run("rejects empty identifiers", func(t *testing.T) {
		r := New()
		assert.ErrorIs(t, r.Register("", noopHandler()), ErrEmptyIdentifier)
	})

	t.Run("rejects nil handlers", func(t *testing.T) {
		r := New()
		assert.ErrorIs(t, r.Register("refresh", nil), ErrNilHandler)
	})

	t.Run("rejects registration after seal", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register("refresh", noopHandler()))
		r.Seal()

		err := r.Register("sync", noopHandler())
		assert.ErrorIs(t, err, ErrRegistrySealed)
		assert.True(t, r.Sealed())
	})
}

func TestLookup(t *testing.T) {
	t.Run("absence is a normal outcome", func(t *testing.T) {
		r := New()
		handler, ok := r.Lookup("unknown")
		assert.False(t, ok)
		assert.Nil(t, handler)
	})

	t.Run("lookup works after seal", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register("refresh", noopHandler()))
		r.Seal()

		_, ok := r.Lookup("refresh")
		assert.True(t, ok)
	})
}

func TestIdentifiers(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("sync", noopHandler()))
	require.NoError(t, r.Register("refresh", noopHandler()))
	require.NoError(t, r.Register("cleanup", noopHandler()))

	assert.Equal(t, []string{"cleanup", "refresh", "sync"}, r.Identifiers())
}
