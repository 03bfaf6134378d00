package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/storefront-sessions/revocation"
	"github.com/jrsteele09/storefront-sessions/revocation/storetest"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) revocation.Store {
		client, _ := newTestRedis(t)
		return New(client, "test")
	})
}

func TestStore_KeyLayout(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, "")
	ctx := context.Background()
	expiry := time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC)

	require.NoError(t, store.Revoke(ctx, revocation.Record{Credential: "abc", SubjectID: "user-1", ExpiresAt: expiry}))
	require.NoError(t, store.SetWatermark(ctx, "user-1", expiry))

	require.True(t, server.Exists("sessions:revoked:abc"))
	require.True(t, server.Exists("sessions:watermark:user-1"))

	members, err := server.ZMembers("sessions:revoked-index")
	require.NoError(t, err)
	require.Equal(t, []string{"sessions:revoked:abc"}, members)

	score, err := server.ZScore("sessions:revoked-index", "sessions:revoked:abc")
	require.NoError(t, err)
	require.Equal(t, float64(expiry.UnixMilli()), score)
}

func TestStore_PurgeCleansIndex(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, "test")
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Revoke(ctx, revocation.Record{Credential: "old", SubjectID: "user-1", ExpiresAt: now.Add(-time.Minute)}))
	removed, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	require.False(t, server.Exists("test:revoked:old"))
	require.False(t, server.Exists("test:revoked-index"))
}

func TestStore_Validation(t *testing.T) {
	client, _ := newTestRedis(t)
	store := New(client, "test")
	ctx := context.Background()

	require.Error(t, store.Revoke(ctx, revocation.Record{}))
	require.Error(t, store.SetWatermark(ctx, "", time.Now()))
}

func TestStore_StorageFailure(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, "test")
	server.Close()

	_, err := store.IsRevoked(context.Background(), "abc")
	require.ErrorIs(t, err, revocation.ErrStorage)

	_, _, err = store.GetWatermark(context.Background(), "user-1")
	require.ErrorIs(t, err, revocation.ErrStorage)
}

func TestStore_CorruptWatermark(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, "test")
	require.NoError(t, server.Set("test:watermark:user-1", "yesterday"))

	_, _, err := store.GetWatermark(context.Background(), "user-1")
	require.ErrorIs(t, err, revocation.ErrStorage)
}

func TestStore_RevokeRetryAfterIndexFailure(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, "test")
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := revocation.Record{Credential: "c1", SubjectID: "user-1", ExpiresAt: now.Add(time.Minute)}

	// a wrongly typed index makes the ZADD fail after the record key is written
	require.NoError(t, server.Set("test:revoked-index", "not-a-zset"))
	require.ErrorIs(t, store.Revoke(ctx, record), revocation.ErrStorage)
	require.True(t, server.Exists("test:revoked:c1"))

	server.Del("test:revoked-index")
	require.NoError(t, store.Revoke(ctx, record))

	removed, err := store.PurgeExpired(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	revoked, err := store.IsRevoked(ctx, "c1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestStore_RevokeTwiceKeepsOneIndexEntry(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, "test")
	ctx := context.Background()
	record := revocation.Record{Credential: "c1", SubjectID: "user-1", ExpiresAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	require.NoError(t, store.Revoke(ctx, record))
	require.NoError(t, store.Revoke(ctx, record))

	members, err := server.ZMembers("test:revoked-index")
	require.NoError(t, err)
	require.Equal(t, []string{"test:revoked:c1"}, members)
}

func TestStore_IndexKeyIsNotACredential(t *testing.T) {
	client, _ := newTestRedis(t)
	store := New(client, "test")
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, revocation.Record{Credential: "c1", SubjectID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}))

	for _, credential := range []string{"index", "-index"} {
		revoked, err := store.IsRevoked(ctx, credential)
		require.NoError(t, err)
		require.False(t, revoked, credential)
	}
}

func TestStore_PurgeSubMillisecondExpiry(t *testing.T) {
	client, _ := newTestRedis(t)
	store := New(client, "test")
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Revoke(ctx, revocation.Record{Credential: "c1", SubjectID: "user-1", ExpiresAt: now.Add(500 * time.Microsecond)}))

	// still live at now, so it must survive even though its score truncates to now's millisecond
	removed, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(0), removed)

	removed, err = store.PurgeExpired(ctx, now.Add(time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
