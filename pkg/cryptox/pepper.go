package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Argon2id parameters, following the OWASP minimum recommendation.
const (
	argonMemory      = 19 * 1024 // KiB
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

var (
	pepperOnce sync.Once
	pepper     string
	pepperFile string
)

// SetPepperPath points the package at the pepper file. Call it before the
// first password hash; the pepper is loaded lazily and cached for the life
// of the process.
func SetPepperPath(file string) {
	pepperFile = file
}

// currentPepper returns the process pepper, creating the file with fresh
// random material on first ever startup. Losing the pepper invalidates
// every stored password hash, so failure to read it is fatal.
func currentPepper() string {
	pepperOnce.Do(func() {
		p, err := loadOrCreatePepper(pepperFile)
		if err != nil {
			slog.Error("failed to load or generate pepper", slog.Any("err", err))
			os.Exit(1)
		}
		pepper = p
	})
	return pepper
}

func loadOrCreatePepper(file string) (string, error) {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", err
	}

	if data, err := os.ReadFile(file); err == nil {
		return string(data), nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	raw := make([]byte, argonKeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.WriteFile(file, []byte(p), 0600); err != nil {
		return "", err
	}
	return p, nil
}
