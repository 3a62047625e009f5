// Package config builds service configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"time"
)

// Config captures everything main needs to wire the service.
type Config struct {
	Addr          string
	PostgresURL   string // when empty, nonce and link stores run in memory
	RedisURL      string // when set, nonces live in Redis and events go out via redisstream
	DirectoryURL  string // upstream account service admin API; empty means in-memory directory
	DirectoryKey  string
	JWTKeyPEM     string // EC private key in PEM; empty means an ephemeral dev key
	PurgeInterval time.Duration
}

// FromEnv reads the configuration from environment variables, applying
// development defaults.
func FromEnv() Config {
	addr := os.Getenv("WALLETAUTH_ADDR")
	if addr == "" {
		addr = ":9000"
	}

	purge := 15 * time.Minute
	if raw := os.Getenv("WALLETAUTH_PURGE_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			purge = parsed
		}
	}

	return Config{
		Addr:          addr,
		PostgresURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		DirectoryURL:  os.Getenv("DIRECTORY_URL"),
		DirectoryKey:  os.Getenv("DIRECTORY_SERVICE_KEY"),
		JWTKeyPEM:     os.Getenv("JWT_SIGNING_KEY_PEM"),
		PurgeInterval: purge,
	}
}
