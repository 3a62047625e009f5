package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/amoria-labs/walletauth/adapters/events"
	"github.com/amoria-labs/walletauth/adapters/identity"
	"github.com/amoria-labs/walletauth/adapters/store"
	"github.com/amoria-labs/walletauth/adapters/tokenizer"
	"github.com/amoria-labs/walletauth/internal/config"
	"github.com/amoria-labs/walletauth/ports"
	"github.com/amoria-labs/walletauth/service"
	transport "github.com/amoria-labs/walletauth/transport/http"
)

// main opens every external client exactly once, builds the adapters around
// them and hands the wired service to the HTTP layer. Business logic lives in
// the service and adapter packages.
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "", log.LstdFlags)
	ctx := context.Background()

	signKey, err := loadSigningKey(cfg.JWTKeyPEM)
	if err != nil {
		logger.Fatalf("load signing key: %v", err)
	}

	var nonces ports.NonceStore
	var links ports.LinkStore
	var directory ports.IdentityDirectory
	var publisher ports.EventPublisher

	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		if err := store.EnsureNonceSchema(ctx, pool); err != nil {
			logger.Fatalf("%v", err)
		}
		if err := store.EnsureLinkSchema(ctx, pool); err != nil {
			logger.Fatalf("%v", err)
		}
		nonces = store.NewPostgresNonceStore(pool)
		links = store.NewPostgresLinkStore(pool)
	} else {
		logger.Printf("DATABASE_URL not set, using in-memory stores")
		nonces = store.NewMemoryNonceStore()
		links = store.NewMemoryLinkStore()
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatalf("parse redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("redis ping: %v", err)
		}
		defer redisClient.Close()

		// Redis nonces win over postgres ones when both are configured:
		// challenges are short-lived and the TTL hygiene is free.
		nonces = store.NewRedisNonceStore(redisClient)

		wmPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Fatalf("create event publisher: %v", err)
		}
		publisher = events.NewWatermillPublisher(wmPublisher)
	} else {
		publisher = events.NewBus()
	}

	if cfg.DirectoryURL != "" {
		directory = identity.NewHTTPDirectory(cfg.DirectoryURL, cfg.DirectoryKey)
	} else {
		logger.Printf("DIRECTORY_URL not set, using in-memory directory")
		directory = identity.NewMemoryDirectory()
	}

	jwtTokenizer := tokenizer.NewJWTTokenizer(signKey)
	authService := service.NewAuthService(nonces, links, directory, jwtTokenizer, publisher, logger)
	router := transport.SetupRouter(authService, jwtTokenizer, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	go purgeLoop(purgeCtx, nonces, cfg.PurgeInterval, logger)

	go func() {
		logger.Printf("starting walletauth on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	stopPurge()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("graceful shutdown failed: %v", err)
	}
}

// purgeLoop reclaims long-expired nonce rows. Storage hygiene only; expiry is
// enforced at consume time.
func purgeLoop(ctx context.Context, nonces ports.NonceStore, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := nonces.PurgeExpired(ctx)
			if err != nil {
				logger.Printf("nonce purge failed: %v", err)
			} else if purged > 0 {
				logger.Printf("purged %d expired nonces", purged)
			}
		}
	}
}

// loadSigningKey parses an EC private key PEM, or generates an ephemeral one
// for development when none is configured.
func loadSigningKey(keyPEM string) (*ecdsa.PrivateKey, error) {
	if keyPEM == "" {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		log.Printf("JWT_SIGNING_KEY_PEM not set, using an ephemeral key; sessions will not survive a restart")
		return key, nil
	}

	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in JWT_SIGNING_KEY_PEM")
	}
	return x509.ParseECPrivateKey(block.Bytes)
}
