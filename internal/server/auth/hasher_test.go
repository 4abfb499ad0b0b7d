package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHashParams = HashParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(testHashParams)

	hashed, err := h.Hash("Password#123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$argon2id$v=19$m=8192,t=1,p=1$"), hashed)
	assert.NotContains(t, hashed, "Password#123")

	ok, err := h.Verify("Password#123", hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("Password#124", hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_SaltIsRandom(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(testHashParams)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_VerifyUsesEncodedParams(t *testing.T) {
	t.Parallel()

	weak := NewArgon2Hasher(testHashParams)
	hashed, err := weak.Hash("Password#123")
	require.NoError(t, err)

	strong := NewArgon2Hasher(HashParams{Memory: 16 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	ok, err := strong.Verify("Password#123", hashed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strong.NeedsRehash(hashed))
	assert.False(t, weak.NeedsRehash(hashed))
}

func TestArgon2Hasher_Malformed(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(testHashParams)

	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	} {
		ok, err := h.Verify("Password#123", bad)
		assert.False(t, ok, bad)
		assert.True(t, errors.Is(err, ErrMalformedHash), "%q: %v", bad, err)
		assert.True(t, h.NeedsRehash(bad), bad)
	}
}
