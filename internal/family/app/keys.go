package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kinfolkhq/kinfolk/internal/family/store"
	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

// InitFamilyKeys builds the KeyManager the service signs and verifies session
// tokens with.
//
// KeyStorageMode selects where private keys live. "ephemeral" mints fresh keys
// in memory on every start, which invalidates all outstanding sessions.
// "persistent" seals them into the signing_keys table so sessions survive
// restarts, with retired keys verifying through the configured grace period.
// Config validation has already rejected any other value.
func InitFamilyKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	if cfg.KeyStorageMode == "persistent" {
		return initPersistentKeys(ctx, cfg, db, logger)
	}
	return initEphemeralKeys(cfg, logger)
}

func initPersistentKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	logger.Info("loading signing keys from store",
		"algorithm", cfg.Algorithm,
		"num_keys", cfg.NumKeys,
		"grace_period", cfg.KeyGracePeriod)

	km, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
		Store:       store.NewKeyStoreAdapter(db),
		Algorithm:   cfg.Algorithm,
		Issuer:      cfg.Issuer,
		Audience:    cfg.Audience,
		RSABits:     cfg.RSABits,
		NumKeys:     cfg.NumKeys,
		GracePeriod: cfg.KeyGracePeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("init persistent key manager: %w", err)
	}

	logger.Info("signing keys ready",
		"mode", "persistent",
		"algorithm", km.Algorithm(),
		"num_keys", km.NumSigners(),
		"issuer", cfg.Issuer)
	return km, nil
}

func initEphemeralKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("init ephemeral key manager: %w", err)
	}

	logger.Info("signing keys ready",
		"mode", "ephemeral",
		"algorithm", km.Algorithm(),
		"num_keys", km.NumSigners(),
		"issuer", cfg.Issuer)
	logger.Warn("ephemeral keys regenerate on every start, existing sessions are now invalid")
	return km, nil
}
