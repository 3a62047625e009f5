package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// RedisNonceStore is a Redis implementation of the NonceStore interface.
// Records live at one key per address with a TTL of expiry plus grace, so
// Redis handles reclamation on its own.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
	clock  func() time.Time
}

// NewRedisNonceStore creates a new Redis nonce store.
func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "walletauth:nonce:",
		clock:  time.Now,
	}
}

// WithClock overrides the store's clock for expiry tests.
func (s *RedisNonceStore) WithClock(clock func() time.Time) *RedisNonceStore {
	s.clock = clock
	return s
}

var _ ports.NonceStore = (*RedisNonceStore)(nil)

type nonceRecord struct {
	Value     string `json:"value"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
	Used      bool   `json:"used"`
}

// consumeScript runs the whole check-and-flip server-side so two concurrent
// consumers of the same nonce cannot both pass.
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return "notfound"
end
local rec = cjson.decode(raw)
if rec.value ~= ARGV[1] then
	return "notfound"
end
if rec.used then
	return "used"
end
if tonumber(rec.expires_at) <= tonumber(ARGV[2]) then
	return "expired"
end
rec.used = true
redis.call("SET", KEYS[1], cjson.encode(rec), "KEEPTTL")
return "ok"
`)

// Issue stores the challenge record, superseding any earlier one.
func (s *RedisNonceStore) Issue(ctx context.Context, nonce core.Nonce) error {
	record := nonceRecord{
		Value:     nonce.Value,
		IssuedAt:  nonce.IssuedAt.Unix(),
		ExpiresAt: nonce.ExpiresAt.Unix(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal nonce record: %w", err)
	}

	ttl := nonce.ExpiresAt.Sub(s.clock()) + purgeGrace
	if err := s.client.Set(ctx, s.prefix+nonce.Address, payload, ttl).Err(); err != nil {
		return fmt.Errorf("issue nonce: %w", core.ErrStoreFailure)
	}
	return nil
}

// Consume validates and burns a challenge via the Lua script.
func (s *RedisNonceStore) Consume(ctx context.Context, address, value string) error {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{s.prefix + address}, value, s.clock().Unix()).Text()
	if err != nil {
		return fmt.Errorf("consume nonce: %w", core.ErrStoreFailure)
	}

	switch res {
	case "ok":
		return nil
	case "used":
		return core.ErrNonceUsed
	case "expired":
		return core.ErrNonceExpired
	default:
		return core.ErrNonceNotFound
	}
}

// PurgeExpired is a no-op for Redis; key TTLs already reclaim expired rows.
func (s *RedisNonceStore) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}
