package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	connectTimeout   = 2 * time.Second
	primaryAttempts  = 3
	fallbackAttempts = 2
	retryBackoff     = 500 * time.Millisecond
)

// Store is a cache-aside wrapper over Redis. It is pure optimization: once
// the connection fails or an operation errors, the store disables itself
// for the remainder of the process lifetime and every Get becomes an
// instant miss, every Set a no-op. Callers never see a cache error.
type Store struct {
	rdb      *redis.Client
	disabled atomic.Bool
	logger   zerolog.Logger
}

// New connects to Redis and returns a usable store regardless of the
// outcome. Connection establishment retries the primary URL with linear
// backoff; if the primary host does not resolve, a secondary URL gets one
// round of attempts. When both fail the store starts disabled; there is
// no re-enable without a process restart.
func New(ctx context.Context, primaryURL, fallbackURL string, logger zerolog.Logger) *Store {
	s := &Store{logger: logger.With().Str("component", "cache").Logger()}

	rdb, err := connect(ctx, primaryURL, primaryAttempts, s.logger)
	if err == nil {
		s.rdb = rdb
		return s
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && fallbackURL != "" && fallbackURL != primaryURL {
		s.logger.Warn().
			Str("primary", primaryURL).
			Str("fallback", fallbackURL).
			Msg("Redis host not found, trying fallback")

		rdb, err = connect(ctx, fallbackURL, fallbackAttempts, s.logger)
		if err == nil {
			s.rdb = rdb
			return s
		}
	}

	s.disable(err)
	return s
}

// connect builds a client and pings it with bounded retries.
func connect(ctx context.Context, url string, attempts int, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = connectTimeout
	// The store handles its own retry budget and disable mode.
	opts.MaxRetries = -1

	rdb := redis.NewClient(opts)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * retryBackoff
			logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying Redis connection")

			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		lastErr = rdb.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return rdb, nil
		}

		var dnsErr *net.DNSError
		if errors.As(lastErr, &dnsErr) {
			// Name resolution will not fix itself within the retry budget.
			break
		}
	}

	_ = rdb.Close()
	return nil, lastErr
}

// Enabled reports whether the store still talks to Redis.
func (s *Store) Enabled() bool {
	return !s.disabled.Load()
}

// Get reads a key and unmarshals its JSON payload into dest. Returns false
// on miss, on a disabled store, and on a corrupted payload; only the last
// leaves the store enabled since corruption is scoped to a single entry.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	if s.disabled.Load() {
		return false
	}

	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		misses.Inc()
		return false
	}
	if err != nil {
		opErrors.Inc()
		s.disable(err)
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		opErrors.Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Corrupted cache payload, treating as miss")
		return false
	}

	hits.Inc()
	return true
}

// Set writes a JSON payload with the given TTL, best-effort. TTL is fixed
// at write time; reads never extend it.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.disabled.Load() {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to marshal cache value")
		return
	}

	if err := s.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		opErrors.Inc()
		s.disable(err)
	}
}

// Close releases the underlying connection.
func (s *Store) Close() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}

func (s *Store) disable(err error) {
	if s.disabled.Swap(true) {
		return
	}
	disabledGauge.Set(1)
	s.logger.Warn().Err(err).Msg("Cache disabled, continuing without it")
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}
