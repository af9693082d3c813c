package history_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmcallister/riskgate/internal/history"
	"github.com/jmcallister/riskgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userID string, ts time.Time, success bool) *models.LoginRecord {
	return &models.LoginRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		Timestamp: ts,
		IPAddress: "203.0.113.10",
		DeviceID:  "device-1",
		UserAgent: "Mozilla/5.0",
		Success:   success,
	}
}

func TestStoreSnapshot_EmptyForUnknownUser(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())

	snap := store.Snapshot("nobody")

	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestStoreAppend_VisibleInSnapshot(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	rec := record("user-1", time.Now(), true)

	store.Append("user-1", rec)
	snap := store.Snapshot("user-1")

	require.Len(t, snap, 1)
	assert.Equal(t, rec.ID, snap[0].ID)
}

func TestStoreSnapshot_IdempotentWithoutAppend(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	now := time.Now()
	store.Append("user-1", record("user-1", now.Add(-2*time.Hour), true))
	store.Append("user-1", record("user-1", now.Add(-1*time.Hour), false))

	first := store.Snapshot("user-1")
	second := store.Snapshot("user-1")

	assert.Equal(t, first, second)
}

func TestStoreSnapshot_OrderedByTimestamp(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	now := time.Now()

	// Out-of-order commit: the later record lands first.
	store.Append("user-1", record("user-1", now, true))
	store.Append("user-1", record("user-1", now.Add(-3*time.Hour), true))
	store.Append("user-1", record("user-1", now.Add(-1*time.Hour), true))

	snap := store.Snapshot("user-1")

	require.Len(t, snap, 3)
	for i := 1; i < len(snap); i++ {
		assert.False(t, snap[i].Timestamp.Before(snap[i-1].Timestamp),
			"snapshot must be timestamp-ordered")
	}
}

func TestStoreSnapshot_CopyIsIsolatedFromAppends(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	now := time.Now()
	store.Append("user-1", record("user-1", now.Add(-time.Hour), true))

	snap := store.Snapshot("user-1")
	store.Append("user-1", record("user-1", now, true))

	assert.Len(t, snap, 1)
	assert.Len(t, store.Snapshot("user-1"), 2)
}

func TestStoreAppend_EnforcesMaxRecords(t *testing.T) {
	store := history.NewStore(history.Config{MaxRecordsPerUser: 5, MaxRecordAge: time.Hour})
	now := time.Now()

	for i := 0; i < 20; i++ {
		store.Append("user-1", record("user-1", now.Add(time.Duration(i)*time.Second), true))
	}

	snap := store.Snapshot("user-1")
	require.Len(t, snap, 5)
	// The newest records survive.
	assert.Equal(t, now.Add(19*time.Second).Unix(), snap[4].Timestamp.Unix())
}

func TestStoreSweep_DropsAgedRecords(t *testing.T) {
	store := history.NewStore(history.Config{MaxRecordsPerUser: 100, MaxRecordAge: time.Hour})
	now := time.Now()
	store.Append("user-1", record("user-1", now.Add(-2*time.Hour), true))
	store.Append("user-1", record("user-1", now.Add(-90*time.Minute), true))
	store.Append("user-1", record("user-1", now.Add(-5*time.Minute), true))

	removed := store.Sweep(now)

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len("user-1"))
}

func TestStoreHydrate_SortsAndReplaces(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	now := time.Now()
	store.Append("user-1", record("user-1", now, true))

	archived := []*models.LoginRecord{
		record("user-1", now.Add(-1*time.Hour), true),
		record("user-1", now.Add(-3*time.Hour), false),
		record("user-1", now.Add(-2*time.Hour), true),
	}
	store.Hydrate("user-1", archived)

	snap := store.Snapshot("user-1")
	require.Len(t, snap, 3)
	assert.True(t, snap[0].Timestamp.Before(snap[1].Timestamp))
	assert.True(t, snap[1].Timestamp.Before(snap[2].Timestamp))
}

func TestStoreAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	now := time.Now()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			store.Append("user-1", record("user-1", now.Add(time.Duration(n)*time.Millisecond), true))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, writers, store.Len("user-1"))
}

func TestStoreAppend_ConcurrentUsersAreIndependent(t *testing.T) {
	store := history.NewStore(history.DefaultConfig())
	now := time.Now()

	const users = 20
	const perUser = 10
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("user-%d", u)
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(id string, n int) {
				defer wg.Done()
				store.Append(id, record(id, now.Add(time.Duration(n)*time.Second), true))
			}(userID, i)
		}
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		assert.Equal(t, perUser, store.Len(fmt.Sprintf("user-%d", u)))
	}
}
