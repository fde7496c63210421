// Package auth issues and checks catalog API keys.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrMalformedKeyHash means a stored key digest cannot be parsed.
	ErrMalformedKeyHash = errors.New("malformed key hash")
	// ErrUnsupportedKeyHash means a stored digest uses another argon2 version.
	ErrUnsupportedKeyHash = errors.New("unsupported key hash version")
)

// KeyHashParams are the Argon2id settings applied to API key secrets.
type KeyHashParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultKeyHashParams is the OWASP Argon2id baseline (19 MiB, t=2, p=1).
// Key secrets are 128 random bits.
var DefaultKeyHashParams = KeyHashParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// keyDigest is a parsed "$argon2id$v=19$m=..,t=..,p=..$salt$sum" string.
type keyDigest struct {
	params KeyHashParams
	salt   []byte
	sum    []byte
}

func (d keyDigest) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		d.params.Memory,
		d.params.Iterations,
		d.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(d.salt),
		base64.RawStdEncoding.EncodeToString(d.sum),
	)
}

func (p KeyHashParams) derive(key string, salt []byte) []byte {
	return argon2.IDKey([]byte(key), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// Hash digests a plaintext key with a fresh salt.
func (p KeyHashParams) Hash(key string) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return keyDigest{params: p, salt: salt, sum: p.derive(key, salt)}.String(), nil
}

// HashKey digests a plaintext key with DefaultKeyHashParams.
func HashKey(key string) (string, error) {
	return DefaultKeyHashParams.Hash(key)
}

func parseKeyDigest(encoded string) (*keyDigest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrMalformedKeyHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrMalformedKeyHash
	}
	if version != argon2.Version {
		return nil, ErrUnsupportedKeyHash
	}

	var d keyDigest
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Iterations, &d.params.Parallelism); err != nil {
		return nil, ErrMalformedKeyHash
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrMalformedKeyHash
	}
	if d.sum, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.sum) == 0 {
		return nil, ErrMalformedKeyHash
	}
	d.params.SaltLength = len(d.salt)
	d.params.KeyLength = uint32(len(d.sum))
	return &d, nil
}

// VerifyKey reports whether key matches the stored digest. The digest's own
// parameters are used, so keys hashed under older settings keep working.
func VerifyKey(key, encoded string) (bool, error) {
	d, err := parseKeyDigest(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(d.params.derive(key, d.salt), d.sum) == 1, nil
}

// CacheDigest names a presented key in the auth cache without storing the
// key itself.
func CacheDigest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
