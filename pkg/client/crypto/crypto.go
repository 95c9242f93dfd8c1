// Package crypto provides the device key material behind push subscriptions:
// an X25519 key pair per channel push key and an auth secret bound to it.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	// X25519KeySize is the size of X25519 public and private keys
	X25519KeySize = 32

	// AuthSecretSize is the size of the subscription auth secret
	AuthSecretSize = 16

	// HKDFInfo is the info string used for auth secret derivation
	HKDFInfo = "notify-subscription-auth-v1"
)

var (
	ErrInvalidKeySize      = errors.New("invalid key size")
	ErrKeyGenerationFailed = errors.New("key generation failed")
	ErrEmptyPushKey        = errors.New("push key is empty")
)

// X25519KeyPair represents the device key pair for one push key
type X25519KeyPair struct {
	PublicKey  [X25519KeySize]byte
	PrivateKey [X25519KeySize]byte
}

// GenerateX25519KeyPair generates a new X25519 key pair.
// The private key is generated using crypto/rand and the public key
// is derived using curve25519.X25519 with the base point.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	var privateKey [X25519KeySize]byte
	if _, err := io.ReadFull(rand.Reader, privateKey[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGenerationFailed, err)
	}

	// Standard X25519 clamping
	privateKey[0] &= 248
	privateKey[31] &= 127
	privateKey[31] |= 64

	publicKey, err := curve25519.X25519(privateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGenerationFailed, err)
	}

	kp := &X25519KeyPair{}
	copy(kp.PrivateKey[:], privateKey[:])
	copy(kp.PublicKey[:], publicKey)

	return kp, nil
}

// X25519PrivateToPublic derives the X25519 public key from a private key.
func X25519PrivateToPublic(privateKey []byte) ([]byte, error) {
	if len(privateKey) != X25519KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, X25519KeySize, len(privateKey))
	}

	publicKey, err := curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGenerationFailed, err)
	}

	return publicKey, nil
}

// DeriveAuthSecret derives the subscription auth secret from the device
// private key, salted with the channel push key. The same inputs always
// yield the same secret.
func DeriveAuthSecret(privateKey []byte, pushKey string) ([]byte, error) {
	if len(privateKey) != X25519KeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrInvalidKeySize, X25519KeySize)
	}
	if pushKey == "" {
		return nil, ErrEmptyPushKey
	}

	reader := hkdf.New(sha256.New, privateKey, []byte(pushKey), []byte(HKDFInfo))

	secret := make([]byte, AuthSecretSize)
	if _, err := io.ReadFull(reader, secret); err != nil {
		return nil, fmt.Errorf("HKDF derivation failed: %w", err)
	}
	return secret, nil
}

// PushKeyFingerprint returns a short, filename-safe digest of a push key
func PushKeyFingerprint(pushKey string) string {
	sum := sha256.Sum256([]byte(pushKey))
	return hex.EncodeToString(sum[:12])
}

// EncodeKey renders key material the way push subscriptions carry it
func EncodeKey(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
