// Package idempotency deduplicates client-supplied Idempotency-Key values
// on comment creation.
//
// Primary backend: Redis SETNX with TTL (env REDIS_DSN).
// Fallback: Postgres INSERT ... ON CONFLICT on processed_requests.
// If neither is available, an in-memory store is used (development only).
package idempotency

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxKeyLength bounds client-supplied keys.
const MaxKeyLength = 128

var ErrInvalidKey = errors.New("idempotency key must be 1-128 printable characters")

// Store checks whether a key has already been used and marks it.
type Store interface {
	// Claim returns true if key was already claimed within the TTL.
	// If not seen, it atomically claims it.
	Claim(ctx context.Context, key string) (duplicate bool, err error)
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}

// NewStore creates the best available store: Redis > Postgres > in-memory.
// When isProd is true, the in-memory fallback is not allowed.
func NewStore(redisDSN string, pool *pgxpool.Pool, ttl time.Duration, isProd bool) (Store, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if redisDSN != "" {
		return newRedisStore(redisDSN, ttl), nil
	}
	if pool != nil {
		return newPostgresStore(pool, ttl), nil
	}
	if isProd {
		return nil, errors.New("production requires REDIS_DSN or DATABASE_URL for idempotency; in-memory store is not allowed")
	}
	return newMemoryStore(ttl), nil
}

// Key scopes a client key to a caller and an operation.
func Key(op string, userID int64, clientKey string) (string, error) {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" || len(clientKey) > MaxKeyLength {
		return "", ErrInvalidKey
	}
	for _, r := range clientKey {
		if r < 0x21 || r > 0x7e {
			return "", ErrInvalidKey
		}
	}
	return op + ":" + strconv.FormatInt(userID, 10) + ":" + clientKey, nil
}
