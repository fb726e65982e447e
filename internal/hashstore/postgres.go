package hashstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/logr"
)

// max conns avail in a pgx pool
const defaultMaxConnections = 10

var (
	mu sync.Mutex

	//go:embed migrations/*.sql
	migrations embed.FS
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore is a store backed by a postgres table holding one row per
// hash field.
type PostgresStore struct {
	pool *pgxpool.Pool
	logr.Logger
}

// NewPostgresStore migrates the database to the latest migration version, and
// then constructs a store using a connection pool. Errors other than failing
// to reach the database are permanent.
func NewPostgresStore(ctx context.Context, logger logr.Logger, connString string) (*PostgresStore, error) {
	if err := migrate(ctx, logger, connString); err != nil {
		return nil, err
	}

	connString, err := setDefaultMaxConnections(connString, defaultMaxConnections)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, Logger: logger}, nil
}

func (s *PostgresStore) GetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT field, value FROM hash_fields WHERE key = $1", key)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string)
	var field, value string
	_, err = pgx.ForEachRow(rows, []any{&field, &value}, func() error {
		fields[field] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, internal.ErrResourceNotFound
	}
	return fields, nil
}

// Put replaces the hash within a transaction, holding a transaction-level
// advisory lock on the key so that concurrent writes to the same key are
// serialized.
func (s *PostgresStore) Put(ctx context.Context, key string, fields map[string]string, cond Condition) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return fmt.Errorf("locking key: %w", err)
		}
		if cond != Always {
			var exists bool
			err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM hash_fields WHERE key = $1)", key).Scan(&exists)
			if err != nil {
				return err
			}
			if err := cond.check(exists); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, "DELETE FROM hash_fields WHERE key = $1", key); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for field, value := range fields {
			batch.Queue("INSERT INTO hash_fields (key, field, value) VALUES ($1, $2, $3)", key, field, value)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM hash_fields WHERE key = $1", key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrResourceNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func migrate(ctx context.Context, logger logr.Logger, connString string) error {
	mu.Lock()
	defer mu.Unlock()

	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("parsing connection string: %w", err))
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("migrating database: %w", err))
	}
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return backoff.Permanent(err)
	}
	if err := m.LoadMigrations(sub); err != nil {
		return backoff.Permanent(fmt.Errorf("loading migrations: %w", err))
	}
	m.OnStart = func(sequence int32, name, direction, sql string) {
		logger.V(1).Info("migrating database", "sequence", sequence, "name", name, "direction", direction)
	}
	if err := m.Migrate(ctx); err != nil {
		return backoff.Permanent(fmt.Errorf("migrating database: %w", err))
	}
	return nil
}

func setDefaultMaxConnections(connString string, max int) (string, error) {
	// pg connection string can be either a URL or a DSN
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("parsing connection string url: %w", err)
		}
		q := u.Query()
		q.Add("pool_max_conns", strconv.Itoa(max))
		u.RawQuery = q.Encode()
		return url.PathUnescape(u.String())
	} else if connString == "" {
		// presume empty DSN
		return fmt.Sprintf("pool_max_conns=%d", max), nil
	} else {
		// presume non-empty DSN
		return fmt.Sprintf("%s pool_max_conns=%d", connString, max), nil
	}
}
