package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	masterKeyOnce sync.Once
	masterKey     []byte
	masterKeyErr  error
	masterKeyPath string
)

// SetMasterKeyPath points the package at the master key file used to
// encrypt signing keys at rest. Call it before the first encrypt or
// decrypt; without it the key falls back to the KINFOLK_MASTER_KEY
// environment variable, and failing that a random per-process key that
// will not survive a restart.
func SetMasterKeyPath(path string) {
	masterKeyPath = path
}

func getMasterKey() ([]byte, error) {
	masterKeyOnce.Do(func() {
		masterKey, masterKeyErr = deriveMasterKey()
	})
	return masterKey, masterKeyErr
}

// deriveMasterKey turns whatever key material is configured into a 32-byte
// AES-256 key by hashing it, so files and env strings of any length work.
func deriveMasterKey() ([]byte, error) {
	var material []byte

	switch {
	case masterKeyPath != "":
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("cryptox: read master key file: %w", err)
		}
		material = data

	case os.Getenv("KINFOLK_MASTER_KEY") != "":
		material = []byte(os.Getenv("KINFOLK_MASTER_KEY"))

	default:
		// Dev fallback. Encrypted keys become unreadable after restart.
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("cryptox: generate ephemeral master key: %w", err)
		}
	}

	sum := sha256.Sum256(material)
	return sum[:], nil
}

// EncryptPrivateKey seals a PEM-encoded private key with AES-256-GCM under
// the master key. The returned blob is nonce || ciphertext || tag.
func EncryptPrivateKey(pemData []byte) ([]byte, error) {
	gcm, err := masterGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, pemData, nil), nil
}

// DecryptPrivateKey opens a blob produced by EncryptPrivateKey. Tampered
// or truncated blobs fail authentication and return an error.
func DecryptPrivateKey(encrypted []byte) ([]byte, error) {
	gcm, err := masterGCM()
	if err != nil {
		return nil, err
	}

	if len(encrypted) < gcm.NonceSize() {
		return nil, errors.New("cryptox: ciphertext too short")
	}
	nonce, ciphertext := encrypted[:gcm.NonceSize()], encrypted[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decrypt private key: %w", err)
	}
	return plaintext, nil
}

func masterGCM() (cipher.AEAD, error) {
	key, err := getMasterKey()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// ResetMasterKeyForTesting clears the cached master key so tests can swap
// key files. Never call it outside tests.
func ResetMasterKeyForTesting() {
	masterKeyOnce = sync.Once{}
	masterKey = nil
	masterKeyErr = nil
}
