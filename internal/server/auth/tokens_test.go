package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, secret string) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(Secrets{Access: secret, ResetPassword: secret, VerifyEmail: secret})
	require.NoError(t, err)
	return c
}

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "super-secret")

	tok, err := c.Issue("user-123", AudienceResetPassword, Extra{PasswordFingerprint: "fp"}, time.Hour)
	require.NoError(t, err)

	claims, err := c.Verify(tok, AudienceResetPassword)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "fp", claims.PasswordFingerprint)
	assert.Empty(t, claims.Email)
	assert.Equal(t, jwt.ClaimStrings{"reset-password"}, claims.Audience)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestTokenCodec_Expired(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "secret")

	tok, err := c.Issue("u1", AudienceAccess, Extra{}, -1*time.Second)
	require.NoError(t, err)

	_, err = c.Verify(tok, AudienceAccess)
	assert.True(t, errors.Is(err, common.ErrInvalidToken), "got %v", err)
}

func TestTokenCodec_WrongAudience(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "secret")

	tok, err := c.Issue("u1", AudienceVerifyEmail, Extra{Email: "a@x.com"}, time.Hour)
	require.NoError(t, err)

	_, err = c.Verify(tok, AudienceAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = c.Verify(tok, AudienceResetPassword)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	claims, err := c.Verify(tok, AudienceVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newTestCodec(t, "right-secret").Issue("u2", AudienceAccess, Extra{}, time.Hour)
	require.NoError(t, err)

	_, err = newTestCodec(t, "wrong-secret").Verify(tok, AudienceAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "secret")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Audience:  jwt.ClaimStrings{string(AudienceAccess)},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Verify(s, AudienceAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenCodec_RequiresExpiry(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "secret")
	key := c.keys[AudienceAccess]

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "u1",
			Audience: jwt.ClaimStrings{string(AudienceAccess)},
		},
	})
	s, err := noExp.SignedString(key)
	require.NoError(t, err)

	_, err = c.Verify(s, AudienceAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenCodec_Malformed(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "k")
	for _, s := range []string{"", "not.a.jwt", strings.Repeat("a", 40)} {
		_, err := c.Verify(s, AudienceAccess)
		assert.True(t, IsInvalidToken(err), s)
	}
}

func TestTokenCodec_PerAudienceKeysDiffer(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, "shared")
	assert.NotEqual(t, c.keys[AudienceAccess], c.keys[AudienceResetPassword])
	assert.NotEqual(t, c.keys[AudienceAccess], c.keys[AudienceVerifyEmail])
	assert.Len(t, c.keys[AudienceAccess], signingKeySize)
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec(Secrets{Access: "a", ResetPassword: "", VerifyEmail: "v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset-password")
}

func TestPasswordFingerprint(t *testing.T) {
	t.Parallel()

	fp := PasswordFingerprint("$argon2id$hash")
	assert.Len(t, fp, 64)
	assert.True(t, FingerprintMatches("$argon2id$hash", fp))
	assert.False(t, FingerprintMatches("$argon2id$other", fp))
	assert.False(t, FingerprintMatches("$argon2id$hash", ""))
}
