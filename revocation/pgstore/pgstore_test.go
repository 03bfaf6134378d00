package pgstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/storefront-sessions/revocation"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock, New(mock)
}

func TestStore_IsRevoked(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT 1 FROM revoked_credentials WHERE credential = $1 LIMIT 1`)

	t.Run("hit", func(t *testing.T) {
		mock, store := newMock(t)
		mock.ExpectQuery(query).WithArgs("cred-1").WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

		revoked, err := store.IsRevoked(context.Background(), "cred-1")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("miss", func(t *testing.T) {
		mock, store := newMock(t)
		mock.ExpectQuery(query).WithArgs("cred-1").WillReturnRows(pgxmock.NewRows([]string{"?column?"}))

		revoked, err := store.IsRevoked(context.Background(), "cred-1")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("storage failure", func(t *testing.T) {
		mock, store := newMock(t)
		mock.ExpectQuery(query).WithArgs("cred-1").WillReturnError(errors.New("connection reset"))

		_, err := store.IsRevoked(context.Background(), "cred-1")
		require.ErrorIs(t, err, revocation.ErrStorage)
	})
}

func TestStore_Revoke(t *testing.T) {
	mock, store := newMock(t)
	expiry := testNow.Add(time.Minute)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO revoked_credentials (credential,subject_id,expires_at) VALUES ($1,$2,$3) ON CONFLICT (credential) DO NOTHING`)).
		WithArgs("cred-1", "user-1", expiry).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Revoke(context.Background(), revocation.Record{Credential: "cred-1", SubjectID: "user-1", ExpiresAt: expiry}))
}

func TestStore_RevokeRequiresCredential(t *testing.T) {
	_, store := newMock(t)
	require.Error(t, store.Revoke(context.Background(), revocation.Record{SubjectID: "user-1"}))
}

func TestStore_SetWatermark(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO revocation_watermarks (subject_id,revoked_before,updated_at) VALUES ($1,$2,$3) ON CONFLICT (subject_id) DO UPDATE SET revoked_before = EXCLUDED.revoked_before`)).
		WithArgs("user-1", testNow, testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SetWatermark(context.Background(), "user-1", testNow))
}

func TestStore_SetWatermarkFailure(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectExec(`INSERT INTO revocation_watermarks`).
		WithArgs("user-1", testNow, testNow).
		WillReturnError(errors.New("read-only transaction"))

	err := store.SetWatermark(context.Background(), "user-1", testNow)
	require.ErrorIs(t, err, revocation.ErrStorage)
}

func TestStore_GetWatermark(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT revoked_before FROM revocation_watermarks WHERE subject_id = $1 LIMIT 1`)

	t.Run("present", func(t *testing.T) {
		mock, store := newMock(t)
		mock.ExpectQuery(query).WithArgs("user-1").WillReturnRows(pgxmock.NewRows([]string{"revoked_before"}).AddRow(testNow))

		wm, ok, err := store.GetWatermark(context.Background(), "user-1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "user-1", wm.SubjectID)
		require.True(t, wm.RevokedBefore.Equal(testNow))
	})

	t.Run("absent", func(t *testing.T) {
		mock, store := newMock(t)
		mock.ExpectQuery(query).WithArgs("user-1").WillReturnRows(pgxmock.NewRows([]string{"revoked_before"}))

		_, ok, err := store.GetWatermark(context.Background(), "user-1")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestStore_PurgeExpired(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM revoked_credentials WHERE expires_at < $1`)).
		WithArgs(testNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := store.PurgeExpired(context.Background(), testNow)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)
}

func TestStore_Migrate(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS revoked_credentials`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS revoked_credentials_expires_at_idx`).WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS revocation_watermarks`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.Migrate(context.Background()))
}
