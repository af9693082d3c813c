// Package history maintains the per-user login history consumed by risk
// analysis. The store is append-only: committed records are never mutated,
// and readers always work from point-in-time snapshots.
package history

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/jmcallister/riskgate/internal/models"
)

const defaultShardCount = 32

// Config bounds how much history is retained per user. Retention keeps
// analysis O(bounded) and memory predictable under long-lived identities.
type Config struct {
	MaxRecordsPerUser int
	MaxRecordAge      time.Duration
	ShardCount        int
}

// DefaultConfig returns the standard retention policy: the last 100 records,
// no older than 90 days.
func DefaultConfig() Config {
	return Config{
		MaxRecordsPerUser: 100,
		MaxRecordAge:      90 * 24 * time.Hour,
		ShardCount:        defaultShardCount,
	}
}

// Store is a sharded, concurrency-safe append log of login records keyed by
// user ID. Sharding keeps writers for unrelated users off each other's locks;
// a single process-wide mutex would serialize every login in flight.
type Store struct {
	config Config
	shards []*shard
}

type shard struct {
	mu      sync.RWMutex
	records map[string][]*models.LoginRecord
}

// NewStore creates a Store with the given retention config. Zero or negative
// config values fall back to defaults.
func NewStore(config Config) *Store {
	def := DefaultConfig()
	if config.MaxRecordsPerUser <= 0 {
		config.MaxRecordsPerUser = def.MaxRecordsPerUser
	}
	if config.MaxRecordAge <= 0 {
		config.MaxRecordAge = def.MaxRecordAge
	}
	if config.ShardCount <= 0 {
		config.ShardCount = def.ShardCount
	}

	shards := make([]*shard, config.ShardCount)
	for i := range shards {
		shards[i] = &shard{records: make(map[string][]*models.LoginRecord)}
	}

	return &Store{config: config, shards: shards}
}

// Append commits a record to the user's history. Appends for the same user
// are serialized by the shard lock; a snapshot issued after Append returns
// will observe the record.
func (s *Store) Append(userID string, record *models.LoginRecord) {
	sh := s.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	recs := sh.records[userID]
	recs = append(recs, record)

	// Keep the slice timestamp-ordered. Records almost always arrive in
	// order, so this is a no-op shift in the common case.
	for i := len(recs) - 1; i > 0 && recs[i].Timestamp.Before(recs[i-1].Timestamp); i-- {
		recs[i], recs[i-1] = recs[i-1], recs[i]
	}

	sh.records[userID] = s.prune(recs, time.Now())
}

// Snapshot returns an immutable point-in-time copy of the user's history,
// ordered by timestamp. Unknown users get an empty slice, not an error:
// a never-seen identity is an expected state.
func (s *Store) Snapshot(userID string) []*models.LoginRecord {
	sh := s.shardFor(userID)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	recs := sh.records[userID]
	out := make([]*models.LoginRecord, len(recs))
	copy(out, recs)
	return out
}

// Len returns the number of retained records for a user.
func (s *Store) Len(userID string) int {
	sh := s.shardFor(userID)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	return len(sh.records[userID])
}

// Sweep drops aged-out records across all users and returns how many were
// removed. Called periodically by the background sweeper so idle users don't
// pin stale history until their next login.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for userID, recs := range sh.records {
			pruned := s.prune(recs, now)
			removed += len(recs) - len(pruned)
			if len(pruned) == 0 {
				delete(sh.records, userID)
				continue
			}
			sh.records[userID] = pruned
		}
		sh.mu.Unlock()
	}
	return removed
}

// Hydrate seeds a user's history from archived records, replacing whatever
// is currently held. Used at startup to warm the store from durable storage.
func (s *Store) Hydrate(userID string, records []*models.LoginRecord) {
	sorted := make([]*models.LoginRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	sh := s.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.records[userID] = s.prune(sorted, time.Now())
}

// prune enforces the retention policy on an ordered slice. Must be called
// with the shard lock held.
func (s *Store) prune(recs []*models.LoginRecord, now time.Time) []*models.LoginRecord {
	cutoff := now.Add(-s.config.MaxRecordAge)

	firstLive := 0
	for firstLive < len(recs) && recs[firstLive].Timestamp.Before(cutoff) {
		firstLive++
	}
	recs = recs[firstLive:]

	if len(recs) > s.config.MaxRecordsPerUser {
		recs = recs[len(recs)-s.config.MaxRecordsPerUser:]
	}
	return recs
}

func (s *Store) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}
