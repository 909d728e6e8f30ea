package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries everything the family service needs from the environment.
// Defaults are tuned for local development; production deployments are
// expected to set at least FAMILY_ISSUER, FAMILY_DATABASE_FILE and the
// notification settings.
type Config struct {
	Issuer    string        `env:"FAMILY_ISSUER" envDefault:"kinfolk-family"`
	Audience  []string      `env:"FAMILY_AUDIENCE" envSeparator:","`          // Optional: audience claims for access tokens
	AccessTTL time.Duration `env:"FAMILY_ACCESS_TTL"`                         // Optional: access token lifetime (default: 15m)

	Algorithm      string        `env:"FAMILY_ALGORITHM" envDefault:"EdDSA"`            // JWT signing algorithm (RS256, ES256, EdDSA)
	RSABits        int           `env:"FAMILY_RSA_BITS"`                                // RSA key size for RS256 (default: 4096)
	NumKeys        int           `env:"FAMILY_NUM_KEYS"`                                // Number of signing keys to generate (default: 3)
	KeyStorageMode string        `env:"FAMILY_KEY_STORAGE_MODE" envDefault:"ephemeral"` // ephemeral or persistent
	KeyGracePeriod time.Duration `env:"FAMILY_KEY_GRACE_PERIOD" envDefault:"720h"`      // Grace period for retired keys
	MasterKeyPath  string        `env:"FAMILY_MASTER_KEY_PATH"`                         // Master encryption key file (persistent mode)

	DatabaseFile string `env:"FAMILY_DATABASE_FILE" envDefault:"family.db"`
	PepperFile   string `env:"FAMILY_PEPPER_FILE" envDefault:"pepper"`

	InviteTTL time.Duration `env:"FAMILY_INVITE_TTL"` // Optional: invitation validity window (default: 168h)
	CodeTTL   time.Duration `env:"FAMILY_CODE_TTL"`   // Optional: verification code window (default: 10m)

	SweepSchedule string `env:"FAMILY_SWEEP_SCHEDULE" envDefault:"@daily"` // Cron spec for the expiration sweeper

	// Notification targets. SMTP settings enable the mailer, the AMQP URL
	// enables the event publisher; with neither set events only hit the log.
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPFrom      string `env:"SMTP_FROM"`
	InviteBaseURL string `env:"FAMILY_INVITE_BASE_URL" envDefault:"http://localhost:8080/invitations"`

	AMQPURL   string `env:"AMQP_URL"`
	AMQPQueue string `env:"AMQP_QUEUE" envDefault:"family.events"`

	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig parses the environment into a Config and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.KeyStorageMode {
	case "ephemeral", "persistent":
	default:
		return fmt.Errorf("invalid key storage mode %q (want ephemeral or persistent)", c.KeyStorageMode)
	}

	switch c.Algorithm {
	case "RS256", "ES256", "EdDSA":
	default:
		return fmt.Errorf("unsupported signing algorithm %q", c.Algorithm)
	}

	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}

	return nil
}

// MailerEnabled reports whether SMTP delivery is configured.
func (c Config) MailerEnabled() bool {
	return c.SMTPHost != ""
}

// EventsEnabled reports whether AMQP publishing is configured.
func (c Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}
