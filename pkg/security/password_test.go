package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonaslemma/gursha-backend/pkg/config"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	hasher, err := NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return hasher
}

func TestHasherRoundTrip(t *testing.T) {
	hasher := testHasher(t)

	encoded, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	require.NoError(t, hasher.Verify("correct horse battery staple", encoded))
}

func TestHasherRejectsWrongPassword(t *testing.T) {
	hasher := testHasher(t)

	encoded, err := hasher.Hash("hunter2hunter2")
	require.NoError(t, err)

	err = hasher.Verify("hunter2hunter3", encoded)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestHasherSaltsAreUnique(t *testing.T) {
	hasher := testHasher(t)

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasherRejectsGarbageHash(t *testing.T) {
	hasher := testHasher(t)

	assert.Error(t, hasher.Verify("whatever", "not-a-phc-string"))
}
