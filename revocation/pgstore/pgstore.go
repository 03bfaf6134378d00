package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jrsteele09/storefront-sessions/revocation"
)

const (
	recordsTable    = "revoked_credentials"
	watermarksTable = "revocation_watermarks"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS revoked_credentials (
		credential TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS revoked_credentials_expires_at_idx ON revoked_credentials (expires_at)`,
	`CREATE TABLE IF NOT EXISTS revocation_watermarks (
		subject_id TEXT PRIMARY KEY,
		revoked_before TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements revocation.Store backed by PostgreSQL.
type Store struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

var _ revocation.Store = (*Store)(nil)

// New constructs a store backed by any executor that satisfies pgExecutor
// (a *pgxpool.Pool in production, a pgxmock pool in tests).
func New(exec pgExecutor) *Store {
	return &Store{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Open creates a pgx pool for dsn and verifies connectivity.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables used by the store when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.exec.Exec(ctx, stmt); err != nil {
			return revocation.StorageError("postgres migrate", err)
		}
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, credential string) (bool, error) {
	stmt, args, err := s.builder.
		Select("1").
		From(recordsTable).
		Where(squirrel.Eq{"credential": credential}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select revoked credential sql: %w", err)
	}

	var one int
	if err := s.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, revocation.StorageError("postgres select revoked credential", err)
	}
	return true, nil
}

func (s *Store) Revoke(ctx context.Context, record revocation.Record) error {
	if record.Credential == "" {
		return fmt.Errorf("credential is required")
	}

	stmt, args, err := s.builder.
		Insert(recordsTable).
		Columns("credential", "subject_id", "expires_at").
		Values(record.Credential, record.SubjectID, record.ExpiresAt.UTC()).
		Suffix("ON CONFLICT (credential) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert revoked credential sql: %w", err)
	}

	if _, err := s.exec.Exec(ctx, stmt, args...); err != nil {
		return revocation.StorageError("postgres insert revoked credential", err)
	}
	return nil
}

func (s *Store) SetWatermark(ctx context.Context, subjectID string, now time.Time) error {
	if subjectID == "" {
		return fmt.Errorf("subject id is required")
	}

	ts := now.UTC()
	stmt, args, err := s.builder.
		Insert(watermarksTable).
		Columns("subject_id", "revoked_before", "updated_at").
		Values(subjectID, ts, ts).
		Suffix("ON CONFLICT (subject_id) DO UPDATE SET revoked_before = EXCLUDED.revoked_before, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert watermark sql: %w", err)
	}

	if _, err := s.exec.Exec(ctx, stmt, args...); err != nil {
		return revocation.StorageError("postgres upsert watermark", err)
	}
	return nil
}

func (s *Store) GetWatermark(ctx context.Context, subjectID string) (revocation.Watermark, bool, error) {
	stmt, args, err := s.builder.
		Select("revoked_before").
		From(watermarksTable).
		Where(squirrel.Eq{"subject_id": subjectID}).
		Limit(1).
		ToSql()
	if err != nil {
		return revocation.Watermark{}, false, fmt.Errorf("build select watermark sql: %w", err)
	}

	var revokedBefore time.Time
	if err := s.exec.QueryRow(ctx, stmt, args...).Scan(&revokedBefore); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return revocation.Watermark{}, false, nil
		}
		return revocation.Watermark{}, false, revocation.StorageError("postgres select watermark", err)
	}
	return revocation.Watermark{SubjectID: subjectID, RevokedBefore: revokedBefore.UTC()}, true, nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	stmt, args, err := s.builder.
		Delete(recordsTable).
		Where(squirrel.Lt{"expires_at": now.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge sql: %w", err)
	}

	tag, err := s.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, revocation.StorageError("postgres purge expired records", err)
	}
	return tag.RowsAffected(), nil
}
