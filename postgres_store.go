package edgesession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgDB is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the store needs.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txContextKey struct{}

// WithTx returns a context carrying tx. PostgresStore calls made with that
// context run inside tx instead of on the store's pool.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

// PostgresStore is a Store backed by a single Postgres table:
//
//	key text PRIMARY KEY, value text NOT NULL, expires_at timestamptz NULL
//
// Expired rows are ignored by reads; DeleteExpired removes them.
type PostgresStore struct {
	db  pgDB
	now func() time.Time

	qGet, qSet, qDel, qDelAll, qTake, qDeleteExpired, qCreate string
}

// NewPostgresStore creates a store using table, which Migrate can create.
func NewPostgresStore(db pgDB, table string, options ...func(*PostgresStore)) *PostgresStore {
	t := pgx.Identifier{table}.Sanitize()
	s := &PostgresStore{
		db:  db,
		now: time.Now,

		qGet:           `SELECT value FROM ` + t + ` WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		qSet:           `INSERT INTO ` + t + ` (key, value, expires_at) VALUES ($1, $2, $3) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		qDel:           `DELETE FROM ` + t + ` WHERE key = $1`,
		qDelAll:        `DELETE FROM ` + t + ` WHERE key LIKE $1 ESCAPE '\'`,
		qTake:          `DELETE FROM ` + t + ` WHERE key = $1 RETURNING value, expires_at`,
		qDeleteExpired: `DELETE FROM ` + t + ` WHERE expires_at IS NOT NULL AND expires_at <= $1`,
		qCreate:        `CREATE TABLE IF NOT EXISTS ` + t + ` (key text PRIMARY KEY, value text NOT NULL, expires_at timestamptz NULL)`,
	}
	for _, op := range options {
		op(s)
	}
	return s
}

// WithPostgresClock replaces time.Now for expiry checks.
func WithPostgresClock(now func() time.Time) func(*PostgresStore) {
	return func(s *PostgresStore) {
		s.now = now
	}
}

func (s *PostgresStore) conn(ctx context.Context) pgDB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate creates the session table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.conn(ctx).Exec(ctx, s.qCreate)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.conn(ctx).QueryRow(ctx, s.qGet, key, s.now()).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires *time.Time
	if ttl > 0 {
		t := s.now().Add(ttl)
		expires = &t
	}
	_, err := s.conn(ctx).Exec(ctx, s.qSet, key, value, expires)
	return err
}

func (s *PostgresStore) Del(ctx context.Context, key string) error {
	_, err := s.conn(ctx).Exec(ctx, s.qDel, key)
	return err
}

// DelAll deletes every row whose key starts with prefix in one statement.
func (s *PostgresStore) DelAll(ctx context.Context, prefix string) error {
	_, err := s.conn(ctx).Exec(ctx, s.qDelAll, escapeLike(prefix)+"%")
	return err
}

// Take deletes key and returns the value it held, if it had not expired.
func (s *PostgresStore) Take(ctx context.Context, key string) (string, bool, error) {
	var (
		v       string
		expires *time.Time
	)
	err := s.conn(ctx).QueryRow(ctx, s.qTake, key).Scan(&v, &expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if expires != nil && !expires.After(s.now()) {
		return "", false, nil
	}
	return v, true, nil
}

// DeleteExpired removes expired rows and returns how many were deleted.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.conn(ctx).Exec(ctx, s.qDeleteExpired, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeReplacer.Replace(s)
}
