package crypto

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// KeysDirName is the subdirectory name for storing device keys
	KeysDirName = "keys"

	// KeyFileExtension is the extension for key files
	KeyFileExtension = ".x25519"

	// KeyFileMode is the file permission for key files (owner read/write only)
	KeyFileMode = 0600

	// KeyDirMode is the directory permission for the keys directory
	KeyDirMode = 0700
)

var (
	ErrKeyNotFound    = errors.New("device key not found")
	ErrKeyFileCorrupt = errors.New("key file is corrupt")
)

// KeyStore manages device private keys, one file per channel push key.
type KeyStore struct {
	baseDir string // Base config directory (e.g., ~/.config/notify)
}

// NewKeyStore creates a new KeyStore with the given base configuration directory.
func NewKeyStore(configDir string) *KeyStore {
	return &KeyStore{
		baseDir: configDir,
	}
}

// keysDir returns the path to the keys directory, creating it if necessary.
func (ks *KeyStore) keysDir() (string, error) {
	dir := filepath.Join(ks.baseDir, KeysDirName)
	if err := os.MkdirAll(dir, KeyDirMode); err != nil {
		return "", fmt.Errorf("failed to create keys directory: %w", err)
	}
	return dir, nil
}

// keyFilePath returns the path to the key file for a push key.
// Format: {keysDir}/{fingerprint}.x25519
func (ks *KeyStore) keyFilePath(pushKey string) (string, error) {
	if pushKey == "" {
		return "", ErrEmptyPushKey
	}

	dir, err := ks.keysDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, PushKeyFingerprint(pushKey)+KeyFileExtension), nil
}

// SaveKey saves the device private key for a push key.
func (ks *KeyStore) SaveKey(pushKey string, privateKey []byte) error {
	if len(privateKey) != X25519KeySize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, X25519KeySize, len(privateKey))
	}

	path, err := ks.keyFilePath(pushKey)
	if err != nil {
		return err
	}

	// Write atomically by writing to temp file first
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, privateKey, KeyFileMode); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save key file: %w", err)
	}

	return nil
}

// LoadKey loads the device private key for a push key.
func (ks *KeyStore) LoadKey(pushKey string) ([]byte, error) {
	path, err := ks.keyFilePath(pushKey)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(data) != X25519KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrKeyFileCorrupt, X25519KeySize, len(data))
	}

	return data, nil
}

// HasKey checks if a key exists for a push key.
func (ks *KeyStore) HasKey(pushKey string) bool {
	path, err := ks.keyFilePath(pushKey)
	if err != nil {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Size() == X25519KeySize
}

// DeleteKey removes the stored key for a push key.
func (ks *KeyStore) DeleteKey(pushKey string) error {
	path, err := ks.keyFilePath(pushKey)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key file: %w", err)
	}

	return nil
}

// LoadOrGenerateKey loads an existing key or generates a new one if not found.
// Returns the key pair and whether the key was newly generated.
func (ks *KeyStore) LoadOrGenerateKey(pushKey string) (*X25519KeyPair, bool, error) {
	privateKey, err := ks.LoadKey(pushKey)
	if err == nil {
		publicKey, err := X25519PrivateToPublic(privateKey)
		if err != nil {
			return nil, false, err
		}

		kp := &X25519KeyPair{}
		copy(kp.PrivateKey[:], privateKey)
		copy(kp.PublicKey[:], publicKey)
		return kp, false, nil
	}

	if !errors.Is(err, ErrKeyNotFound) {
		return nil, false, err
	}

	kp, err := GenerateX25519KeyPair()
	if err != nil {
		return nil, false, err
	}

	if err := ks.SaveKey(pushKey, kp.PrivateKey[:]); err != nil {
		return nil, false, err
	}

	return kp, true, nil
}

// ListKeys returns all stored key files (for debugging/management).
func (ks *KeyStore) ListKeys() ([]string, error) {
	dir, err := ks.keysDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), KeyFileExtension) {
			keys = append(keys, entry.Name())
		}
	}

	return keys, nil
}
