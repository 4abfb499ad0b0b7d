// Package auth holds the credential primitives of gophauth: the password
// policy, the argon2id hasher and the JWT codec for access, reset-password
// and verify-email tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Audience binds a token to one purpose.
type Audience string

const (
	AudienceAccess        Audience = "access"
	AudienceResetPassword Audience = "reset-password"
	AudienceVerifyEmail   Audience = "verify-email"
)

const signingKeySize = 32

// Secrets are the configured secrets per token purpose.
type Secrets struct {
	Access        string
	ResetPassword string
	VerifyEmail   string
}

// Extra holds the purpose-specific claims. Empty fields are omitted.
type Extra struct {
	PasswordFingerprint string
	Email               string
}

// Claims is the token payload: the registered claims plus the
// reset-password fingerprint and the verify-email address.
type Claims struct {
	jwt.RegisteredClaims
	PasswordFingerprint string `json:"password_fgpt,omitempty"`
	Email               string `json:"email,omitempty"`
}

// TokenCodec issues and verifies HS256 tokens. Each audience signs with its
// own key, derived from the purpose's secret with HKDF-SHA256, so a token
// can't be replayed for another purpose even when the secrets are shared.
type TokenCodec struct {
	keys map[Audience][]byte
}

func NewTokenCodec(s Secrets) (*TokenCodec, error) {
	secrets := map[Audience]string{
		AudienceAccess:        s.Access,
		AudienceResetPassword: s.ResetPassword,
		AudienceVerifyEmail:   s.VerifyEmail,
	}

	keys := make(map[Audience][]byte, len(secrets))
	for aud, secret := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("empty secret for %s tokens", aud)
		}
		key, err := deriveKey(secret, aud)
		if err != nil {
			return nil, err
		}
		keys[aud] = key
	}

	return &TokenCodec{keys: keys}, nil
}

func deriveKey(secret string, aud Audience) ([]byte, error) {
	key := make([]byte, signingKeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(aud))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", aud, err)
	}
	return key, nil
}

// Issue signs a token for subject valid for ttl.
func (c *TokenCodec) Issue(subject string, aud Audience, extra Extra, ttl time.Duration) (string, error) {
	key, ok := c.keys[aud]
	if !ok {
		return "", fmt.Errorf("unknown audience %q", aud)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{string(aud)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		PasswordFingerprint: extra.PasswordFingerprint,
		Email:               extra.Email,
	})

	return token.SignedString(key)
}

// Verify parses token and checks the algorithm, signature, expiry and
// audience. Every failure is reported as common.ErrInvalidToken.
func (c *TokenCodec) Verify(token string, aud Audience) (*Claims, error) {
	key, ok := c.keys[aud]
	if !ok {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(aud)),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// PasswordFingerprint is the hex SHA-256 of a stored password hash. A reset
// token carrying it is void once the password changes.
func PasswordFingerprint(hashedPassword string) string {
	sum := sha256.Sum256([]byte(hashedPassword))
	return hex.EncodeToString(sum[:])
}

// FingerprintMatches compares fingerprint with the current hash in constant time.
func FingerprintMatches(hashedPassword, fingerprint string) bool {
	want := PasswordFingerprint(hashedPassword)
	return subtle.ConstantTimeCompare([]byte(want), []byte(fingerprint)) == 1
}

// IsInvalidToken reports whether err is a token verification failure.
func IsInvalidToken(err error) bool {
	return errors.Is(err, common.ErrInvalidToken)
}
