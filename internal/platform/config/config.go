package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the full runtime configuration. FromEnv builds it from
// environment variables so main stays lean.
type Server struct {
	Addr string

	// Authority is the identity-source key used by the session provider.
	Authority string

	// SecretSalt feeds the one-way user and targeted identifiers. Two
	// deployments with different salts produce disjoint consent stores.
	SecretSalt string

	// HashAttributes enables hashing of attribute fingerprints instead of
	// storing their canonical form.
	HashAttributes bool

	// ExcludeAttributes lists attribute names exempt from consent tracking.
	ExcludeAttributes []string

	// ShowDescription is a display flag passed through to listing responses.
	ShowDescription bool

	// ReturnURL is where the logout flow sends the user afterwards.
	ReturnURL string

	// MetadataPath points at the JSON descriptor document for the hosted
	// identity source and the remote relying parties.
	MetadataPath string

	JWTSigningKey string

	StoreBackend string // "memory", "postgres" or "redis"
	PostgresDSN  string
	Redis        RedisConfig

	KafkaBrokers    []string
	KafkaAuditTopic string
}

// RedisConfig carries connection settings for the redis-backed consent store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:              envOr("CONSENTADMIN_ADDR", ":8080"),
		Authority:         envOr("CONSENTADMIN_AUTHORITY", "default-idp"),
		SecretSalt:        envOr("CONSENTADMIN_SECRET_SALT", "dev-salt-change-in-production"),
		HashAttributes:    envBool("CONSENTADMIN_HASH_ATTRIBUTES", false),
		ExcludeAttributes: envList("CONSENTADMIN_EXCLUDE_ATTRIBUTES"),
		ShowDescription:   envBool("CONSENTADMIN_SHOW_DESCRIPTION", true),
		ReturnURL:         envOr("CONSENTADMIN_RETURN_URL", "/"),
		MetadataPath:      envOr("CONSENTADMIN_METADATA_PATH", "metadata.json"),
		JWTSigningKey:     envOr("CONSENTADMIN_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		StoreBackend:      envOr("CONSENTADMIN_STORE", "memory"),
		PostgresDSN:       os.Getenv("CONSENTADMIN_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CONSENTADMIN_REDIS_URL"),
			PoolSize:     envInt("CONSENTADMIN_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CONSENTADMIN_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers:    envList("CONSENTADMIN_KAFKA_BROKERS"),
		KafkaAuditTopic: envOr("CONSENTADMIN_KAFKA_AUDIT_TOPIC", "consentadmin.audit"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
