package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorlink/internal/repository"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	t.Run("Miss Returns Nil Nil", func(t *testing.T) {
		blob, err := store.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, blob)
	})

	t.Run("Round Trip", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, repository.KeySession, []byte(`{"a":1}`)))

		blob, err := store.Get(ctx, repository.KeySession)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), blob)
	})

	t.Run("Returned Slice Is A Copy", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte("abc")))

		blob, err := store.Get(ctx, "k")
		require.NoError(t, err)
		blob[0] = 'X'

		again, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("Multi Key Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, repository.KeyPendingRegistration, []byte("r")))
		require.NoError(t, store.Set(ctx, repository.KeyPendingOTP, []byte("o")))

		require.NoError(t, store.Delete(ctx, repository.KeyPendingRegistration, repository.KeyPendingOTP))

		for _, key := range []string{repository.KeyPendingRegistration, repository.KeyPendingOTP} {
			blob, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.Nil(t, blob)
		}
	})

	t.Run("Delete Missing Is Idempotent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never-set"))
	})
}
