package credentials_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/platform/credentials"
	apperrors "murmur/internal/platform/errors"
)

func TestStoreRoundTripAndClear(t *testing.T) {
	t.Parallel()
	store := credentials.NewStore(filepath.Join(t.TempDir(), "nested", "token"), "")

	_, err := store.Token(context.Background())
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	require.NoError(t, store.Save("  opaque-token \n"))
	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is not an error")
	_, err = store.Token(context.Background())
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestExplicitTokenWinsAndEmptySaveFails(t *testing.T) {
	t.Parallel()
	store := credentials.NewStore(filepath.Join(t.TempDir(), "token"), "from-env")
	require.NoError(t, store.Save("from-file"))

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	require.ErrorIs(t, store.Save("   "), apperrors.ErrInvalidInput)
}
