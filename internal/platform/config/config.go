// Package config loads service configuration from the environment.
//
// The cryptographic secrets are required: starting without them would
// either lose access to stored PII or issue unverifiable certificates,
// so Load fails instead.
package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration.
type Config struct {
	Addr     string `env:"PINTCERT_ADDR" envDefault:":8080"`
	LogLevel string `env:"PINTCERT_LOG_LEVEL" envDefault:"info"`

	// EncryptionKey is the base64-encoded 32-byte AES key for PII fields.
	EncryptionKey string `env:"PINTCERT_ENCRYPTION_KEY,required"`
	// LookupKey keys the deterministic email search digest.
	LookupKey string `env:"PINTCERT_LOOKUP_KEY,required"`
	// CertificateSecret keys the validation signatures.
	CertificateSecret string `env:"PINTCERT_CERTIFICATE_SECRET,required"`

	JWTSigningKey string `env:"PINTCERT_JWT_SIGNING_KEY,required"`

	// Bootstrap credentials seed the first superadmin account on startup.
	BootstrapEmail    string `env:"PINTCERT_BOOTSTRAP_EMAIL"`
	BootstrapPassword string `env:"PINTCERT_BOOTSTRAP_PASSWORD"`

	DatabaseURL string `env:"PINTCERT_DATABASE_URL"`

	YearConfigPath string        `env:"PINTCERT_YEAR_CONFIG" envDefault:"config/years.json"`
	VerifyBaseURL  string        `env:"PINTCERT_VERIFY_BASE_URL" envDefault:"https://certificados.pintofscience.com.br/verify"`
	ConfigCacheTTL time.Duration `env:"PINTCERT_CONFIG_CACHE_TTL" envDefault:"5m"`

	Redis RedisConfig `envPrefix:"PINTCERT_REDIS_"`
	Kafka KafkaConfig `envPrefix:"PINTCERT_KAFKA_"`

	AuditBuffer int `env:"PINTCERT_AUDIT_BUFFER" envDefault:"256"`
}

// RedisConfig configures the optional year-config cache. An empty URL
// disables Redis.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the optional audit export. No brokers disables
// the sink.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS"`
	Topic   string   `env:"TOPIC" envDefault:"pintcert.audit"`
}

// Load parses and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.EncryptionKeyBytes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EncryptionKeyBytes decodes and validates the AES key.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
