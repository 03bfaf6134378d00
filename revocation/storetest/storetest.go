// Package storetest holds the behaviour every revocation.Store backend must share.
// Backends that can run against a real or emulated server call Run from their tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/storefront-sessions/revocation"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the shared store contract against stores built by newStore. Each
// subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) revocation.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("revoke then lookup", func(t *testing.T) {
		store := newStore(t)

		revoked, err := store.IsRevoked(ctx, "cred-1")
		require.NoError(t, err)
		require.False(t, revoked)

		require.NoError(t, store.Revoke(ctx, revocation.Record{Credential: "cred-1", SubjectID: "user-1", ExpiresAt: base.Add(time.Minute)}))

		revoked, err = store.IsRevoked(ctx, "cred-1")
		require.NoError(t, err)
		require.True(t, revoked)

		revoked, err = store.IsRevoked(ctx, "cred-2")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		store := newStore(t)
		record := revocation.Record{Credential: "cred-1", SubjectID: "user-1", ExpiresAt: base.Add(time.Minute)}

		require.NoError(t, store.Revoke(ctx, record))
		require.NoError(t, store.Revoke(ctx, record))

		removed, err := store.PurgeExpired(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, int64(1), removed)
	})

	t.Run("concurrent revokes of one credential", func(t *testing.T) {
		store := newStore(t)
		record := revocation.Record{Credential: "cred-race", SubjectID: "user-1", ExpiresAt: base.Add(time.Minute)}

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.Revoke(ctx, record)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		revoked, err := store.IsRevoked(ctx, "cred-race")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("watermark upsert", func(t *testing.T) {
		store := newStore(t)

		_, ok, err := store.GetWatermark(ctx, "user-1")
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, store.SetWatermark(ctx, "user-1", base))
		wm, ok, err := store.GetWatermark(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "user-1", wm.SubjectID)
		require.True(t, wm.RevokedBefore.Equal(base), "got %s", wm.RevokedBefore)

		later := base.Add(10 * time.Second)
		require.NoError(t, store.SetWatermark(ctx, "user-1", later))
		wm, ok, err = store.GetWatermark(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, wm.RevokedBefore.Equal(later), "got %s", wm.RevokedBefore)

		_, ok, err = store.GetWatermark(ctx, "user-2")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("purge removes only expired records", func(t *testing.T) {
		store := newStore(t)

		for i, offset := range []time.Duration{10 * time.Second, 20 * time.Second, 60 * time.Second, 120 * time.Second} {
			require.NoError(t, store.Revoke(ctx, revocation.Record{
				Credential: fmt.Sprintf("cred-%d", i),
				SubjectID:  "user-1",
				ExpiresAt:  base.Add(offset),
			}))
		}
		require.NoError(t, store.SetWatermark(ctx, "user-1", base))

		// A record expiring exactly at now is kept: purge is strictly before.
		removed, err := store.PurgeExpired(ctx, base.Add(20*time.Second))
		require.NoError(t, err)
		require.Equal(t, int64(1), removed)

		removed, err = store.PurgeExpired(ctx, base.Add(61*time.Second))
		require.NoError(t, err)
		require.Equal(t, int64(2), removed)

		for i, want := range []bool{false, false, false, true} {
			revoked, err := store.IsRevoked(ctx, fmt.Sprintf("cred-%d", i))
			require.NoError(t, err)
			require.Equal(t, want, revoked, "cred-%d", i)
		}

		_, ok, err := store.GetWatermark(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, ok)

		removed, err = store.PurgeExpired(ctx, base.Add(61*time.Second))
		require.NoError(t, err)
		require.Zero(t, removed)
	})
}
