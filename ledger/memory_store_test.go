package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCASMatchesRedisSemantics(t *testing.T) {
	store := NewMemoryStore()
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, pendingRecord("SOMA-M1")))

	result, err := store.CASTransition(ctx, "SOMA-M1", StatusPending, StatusFailed, "RELWORX-2")
	require.NoError(t, err)
	require.Equal(t, CASApplied, result)

	got, err := store.GetByCustomerReference(ctx, "SOMA-M1")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, int64(1700000000), got.NotifiedAt)

	result, err = store.CASTransition(ctx, "SOMA-M1", StatusPending, StatusSuccess, "RELWORX-2")
	require.NoError(t, err)
	require.Equal(t, CASConflict, result)

	_, err = store.CASTransition(ctx, "SOMA-NOPE", StatusPending, StatusSuccess, "R")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConcurrentCASSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, pendingRecord("SOMA-RACE")))

	const attempts = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := store.CASTransition(ctx, "SOMA-RACE", StatusPending, StatusSuccess, "RELWORX-R")
			if err == nil && result == CASApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, applied)
}
