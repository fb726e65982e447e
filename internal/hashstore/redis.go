package hashstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/leg100/roster/internal"
	"github.com/redis/go-redis/v9"
)

// maxTxAttempts is the number of times an optimistic transaction is attempted
// before giving up, each attempt failing because another client modified the
// watched key.
const maxTxAttempts = 10

var _ Store = (*RedisStore)(nil)

// RedisStore is a store backed by redis hashes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a redis store from a URL of the form
// redis://<user>:<password>@<host>:<port>/<db>, and checks the server is
// reachable. An invalid URL is a permanent error.
func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) GetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	// redis never holds an empty hash, so no fields means no key.
	if len(fields) == 0 {
		return nil, internal.ErrResourceNotFound
	}
	return fields, nil
}

// Put watches the key, checks the condition, and then deletes and re-sets the
// hash within a MULTI/EXEC transaction. The transaction is abandoned if the key
// is modified by another client in the meantime, in which case it is
// attempted again.
func (s *RedisStore) Put(ctx context.Context, key string, fields map[string]string, cond Condition) error {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	txf := func(tx *redis.Tx) error {
		if cond != Always {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if err := cond.check(n > 0); err != nil {
				return err
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(args) > 0 {
				pipe.HSet(ctx, key, args...)
			}
			return nil
		})
		return err
	}
	for range maxTxAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("writing %s: %w", key, redis.TxFailedErr)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return internal.ErrResourceNotFound
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
