// Package hashstore provides access to key-value stores that hold a hash, i.e.
// a set of named string fields, under each key.
package hashstore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/logr"
)

const (
	// DefaultURL is the store used when none is configured.
	DefaultURL = "redis://localhost:6379/0"

	// DefaultConnectTimeout is the maximum time spent waiting for the store
	// to become reachable upon startup.
	DefaultConnectTimeout = 30 * time.Second
)

// Condition restricts a write to the existence, or otherwise, of the key.
type Condition int

const (
	// Always writes regardless of whether the key exists.
	Always Condition = iota
	// IfAbsent writes only if the key does not exist.
	IfAbsent
	// IfPresent writes only if the key exists.
	IfPresent
)

// Store is a key-value store of hashes.
type Store interface {
	// GetAll retrieves every field of the hash. If the key is absent then
	// internal.ErrResourceNotFound is returned.
	GetAll(ctx context.Context, key string) (map[string]string, error)
	// Put replaces the hash at key with the given fields. Fields previously
	// held by the hash and not present in fields are removed. The existence
	// check implied by cond and the write happen atomically.
	Put(ctx context.Context, key string, fields map[string]string, cond Condition) error
	// Delete removes the key. If the key is absent then
	// internal.ErrResourceNotFound is returned.
	Delete(ctx context.Context, key string) error
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	// Close releases the store's connections.
	Close() error
}

// check returns an error if cond is not satisfied.
func (cond Condition) check(exists bool) error {
	switch cond {
	case IfAbsent:
		if exists {
			return internal.ErrResourceAlreadyExists
		}
	case IfPresent:
		if !exists {
			return internal.ErrResourceNotFound
		}
	}
	return nil
}

func (cond Condition) String() string {
	switch cond {
	case IfAbsent:
		return "if-absent"
	case IfPresent:
		return "if-present"
	default:
		return "always"
	}
}

// Open connects to the store identified by the URL, waiting up to timeout
// for it to become reachable. The scheme selects the backend: redis, rediss,
// postgres, postgresql, or memory.
func Open(ctx context.Context, logger logr.Logger, rawURL string, timeout time.Duration) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}
	var connect func() (Store, error)
	switch u.Scheme {
	case "redis", "rediss":
		connect = func() (Store, error) { return NewRedisStore(ctx, rawURL) }
	case "postgres", "postgresql":
		connect = func() (Store, error) { return NewPostgresStore(ctx, logger, rawURL) }
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store scheme: %q", u.Scheme)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout

	store, err := backoff.RetryNotifyWithData[Store](connect, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		logger.Error(err, "waiting for store", "scheme", u.Scheme, "backoff", next)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	logger.Info("connected to store", "scheme", u.Scheme, "host", u.Host)
	return store, nil
}
