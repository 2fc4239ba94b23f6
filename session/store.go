package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every Redis transport failure.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrRecordNotFound is returned when no record exists at the key.
var ErrRecordNotFound = errors.New("session record not found")

// ErrValueMismatch is returned by [Store.CompareAndSwap] when the stored value
// is not the expected one.
var ErrValueMismatch = errors.New("session record value mismatch")

const (
	swapStatusNotFound int64 = 0
	swapStatusMismatch int64 = 2
	swapStatusSwapped  int64 = 3
	swapStatusDeleted  int64 = 4
)

const compareAndSwapScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 3
`

var compareAndSwapLua = redis.NewScript(compareAndSwapScript)

const compareAndDeleteScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("DEL", KEYS[1])
return 4
`

var compareAndDeleteLua = redis.NewScript(compareAndDeleteScript)

// Store is a Redis-backed session record store.
//
// Store never retries; a failed call surfaces as [ErrStoreUnavailable] and the
// caller decides what to do.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; empty means [DefaultPrefix].
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

// Prefix returns the key namespace of s.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(k Key) string {
	return k.String(s.prefix)
}

// SetWithTTL writes value at key, replacing any previous record, and sets its
// expiry to ttl.
//
//	Performance: 1 Redis SET.
func (s *Store) SetWithTTL(ctx context.Context, key Key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the value stored at key or [ErrRecordNotFound].
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, key Key) (string, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

// Exists reports whether a live record is stored at key.
//
//	Performance: 1 Redis EXISTS.
func (s *Store) Exists(ctx context.Context, key Key) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Delete removes the record at key. Deleting an absent record is not an error.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// CompareAndSwap replaces the record at key with next only when it currently
// holds expected, resetting its expiry to ttl. It fails with
// [ErrRecordNotFound] or [ErrValueMismatch] without writing anything.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
func (s *Store) CompareAndSwap(ctx context.Context, key Key, expected, next string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	result, err := compareAndSwapLua.Run(
		ctx,
		s.redis,
		[]string{s.key(key)},
		expected,
		next,
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("%w: invalid swap script status", ErrStoreUnavailable)
	}

	switch code {
	case swapStatusNotFound:
		return ErrRecordNotFound
	case swapStatusMismatch:
		return ErrValueMismatch
	case swapStatusSwapped:
		return nil
	default:
		return fmt.Errorf("%w: unknown swap script status", ErrStoreUnavailable)
	}
}

// CompareAndDelete removes the record at key only when it currently holds
// expected. It fails with [ErrRecordNotFound] or [ErrValueMismatch] without
// deleting anything.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-delete).
func (s *Store) CompareAndDelete(ctx context.Context, key Key, expected string) error {
	result, err := compareAndDeleteLua.Run(ctx, s.redis, []string{s.key(key)}, expected).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("%w: invalid delete script status", ErrStoreUnavailable)
	}

	switch code {
	case swapStatusNotFound:
		return ErrRecordNotFound
	case swapStatusMismatch:
		return ErrValueMismatch
	case swapStatusDeleted:
		return nil
	default:
		return fmt.Errorf("%w: unknown delete script status", ErrStoreUnavailable)
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
