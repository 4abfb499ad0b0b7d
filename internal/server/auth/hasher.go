package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
)

const argon2Variant = "argon2id"

// ErrMalformedHash is returned for stored hashes that are not argon2id PHC strings.
var ErrMalformedHash = errors.New("malformed password hash")

// HashParams are argon2id cost settings. Memory is in KiB.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams follow the OWASP argon2id baseline.
var DefaultHashParams = HashParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher produces and checks PHC-encoded argon2id hashes:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
//
// Salt and key are unpadded standard base64. It is safe for concurrent use.
type Argon2Hasher struct {
	params HashParams
}

func NewArgon2Hasher(params HashParams) *Argon2Hasher {
	return &Argon2Hasher{params: params}
}

// Hash derives a key from plaintext with a fresh random salt.
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt, err := common.GenerateRandByteArray(int(h.params.SaltLength))
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	password := []byte(plaintext)
	defer common.WipeByteArray(password)

	key := argon2.IDKey(password, salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Variant, argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches hashed, using the parameters
// encoded in hashed. A malformed hash returns ErrMalformedHash.
func (h *Argon2Hasher) Verify(plaintext, hashed string) (bool, error) {
	d, err := decodeHash(hashed)
	if err != nil {
		return false, err
	}

	password := []byte(plaintext)
	defer common.WipeByteArray(password)

	key := argon2.IDKey(password, d.salt, d.params.Iterations, d.params.Memory, d.params.Parallelism, uint32(len(d.key)))

	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

// NeedsRehash reports whether hashed was produced with weaker or different
// settings than h. Malformed hashes always need a rehash.
func (h *Argon2Hasher) NeedsRehash(hashed string) bool {
	d, err := decodeHash(hashed)
	if err != nil {
		return true
	}

	return d.params.Memory < h.params.Memory ||
		d.params.Iterations < h.params.Iterations ||
		d.params.Parallelism < h.params.Parallelism ||
		uint32(len(d.salt)) < h.params.SaltLength ||
		uint32(len(d.key)) != h.params.KeyLength
}

type decodedHash struct {
	params HashParams
	salt   []byte
	key    []byte
}

func decodeHash(hashed string) (*decodedHash, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argon2Variant {
		return nil, ErrMalformedHash
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}

	var d decodedHash
	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Iterations, &parallelism); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if d.params.Memory == 0 || d.params.Iterations == 0 || parallelism == 0 || parallelism > 255 {
		return nil, fmt.Errorf("%w: bad parameters", ErrMalformedHash)
	}
	d.params.Parallelism = uint8(parallelism)

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return nil, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return nil, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}
	d.params.SaltLength = uint32(len(d.salt))
	d.params.KeyLength = uint32(len(d.key))

	return &d, nil
}
