package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/types"
)

var (
	// Bucket names
	bucketMatchResults    = []byte("match_results")
	bucketStandings       = []byte("standings")
	bucketProcessedEvents = []byte("processed_events")
	bucketTournaments     = []byte("tournaments")
	bucketTeams           = []byte("teams")
	bucketCache           = []byte("cache")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB

	// set only by tests to force a failure mid-transaction
	failAfterResult func() error
}

// cacheEntry wraps a cached value with its expiry
type cacheEntry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "matchday.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketMatchResults,
			bucketStandings,
			bucketProcessedEvents,
			bucketTournaments,
			bucketTeams,
			bucketCache,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is open and its buckets are reachable
func (s *BoltStore) Ping() error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketMatchResults) == nil {
			return fmt.Errorf("match_results bucket missing")
		}
		return nil
	})
}

func itob(v int64) []byte {
	return []byte(strconv.FormatInt(v, 10))
}

func standingKey(tournamentID, teamID int64) []byte {
	return []byte(fmt.Sprintf("%d/%d", tournamentID, teamID))
}

// Match result operations

func (s *BoltStore) GetMatchResult(matchID int64) (*types.MatchResult, error) {
	var result types.MatchResult
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMatchResults)
		data := b.Get(itob(matchID))
		if data == nil {
			return fmt.Errorf("match result not found: %d", matchID)
		}
		return json.Unmarshal(data, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *BoltStore) ListMatchResults(tournamentID int64) ([]*types.MatchResult, error) {
	var results []*types.MatchResult
	err := s.db.View(func(tx *bolt.Tx) error {
		return listMatchResultsTx(tx, tournamentID, &results)
	})
	return results, err
}

func listMatchResultsTx(tx *bolt.Tx, tournamentID int64, out *[]*types.MatchResult) error {
	b := tx.Bucket(bucketMatchResults)
	return b.ForEach(func(k, v []byte) error {
		var result types.MatchResult
		if err := json.Unmarshal(v, &result); err != nil {
			return err
		}
		if result.TournamentID == tournamentID {
			*out = append(*out, &result)
		}
		return nil
	})
}

// ApplyMatchResult applies a completed match inside a single transaction.
// The ledger check, result upsert, standings rebuild and ledger insert
// either all commit or all roll back. Standings are rebuilt from the full
// set of persisted results rather than patched incrementally, so duplicate
// or out-of-order delivery re-applies the same final state.
func (s *BoltStore) ApplyMatchResult(eventID, eventType string, result *types.MatchResult, rules standings.Rules) (bool, error) {
	applied := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		ledger := tx.Bucket(bucketProcessedEvents)
		if ledger.Get([]byte(eventID)) != nil {
			// Duplicate delivery, side effects already applied
			return nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketMatchResults).Put(itob(result.MatchID), data); err != nil {
			return err
		}

		if s.failAfterResult != nil {
			if err := s.failAfterResult(); err != nil {
				return err
			}
		}

		if err := recomputeStandingsTx(tx, result.TournamentID, rules); err != nil {
			return err
		}

		entry := types.ProcessedEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now().UTC(),
		}
		entryData, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		if err := ledger.Put([]byte(eventID), entryData); err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, err
}

// Standings operations

func (s *BoltStore) ListStandings(tournamentID int64) ([]*types.Standing, error) {
	var table []*types.Standing
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStandings)
		prefix := []byte(fmt.Sprintf("%d/", tournamentID))
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var row types.Standing
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			table = append(table, &row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	standings.Rank(table)
	return table, nil
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// RecomputeStandings rebuilds the full table for a tournament from its
// persisted match results
func (s *BoltStore) RecomputeStandings(tournamentID int64, rules standings.Rules) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return recomputeStandingsTx(tx, tournamentID, rules)
	})
}

func recomputeStandingsTx(tx *bolt.Tx, tournamentID int64, rules standings.Rules) error {
	var results []*types.MatchResult
	if err := listMatchResultsTx(tx, tournamentID, &results); err != nil {
		return err
	}

	table := standings.Compute(results, rules)

	b := tx.Bucket(bucketStandings)

	// Drop stale rows for the tournament before writing the new table.
	// Deletion during iteration must go through the cursor.
	prefix := []byte(fmt.Sprintf("%d/", tournamentID))
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		if err := c.Delete(); err != nil {
			return err
		}
	}

	for _, row := range table {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if err := b.Put(standingKey(row.TournamentID, row.TeamID), data); err != nil {
			return err
		}
	}
	return nil
}

// Processed-event ledger operations

func (s *BoltStore) IsProcessed(eventID string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketProcessedEvents).Get([]byte(eventID)) != nil
		return nil
	})
	return found, err
}

func (s *BoltStore) MarkProcessed(eventID, eventType string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		entry := types.ProcessedEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketProcessedEvents).Put([]byte(eventID), data)
	})
}

// Tournament and team snapshot operations

func (s *BoltStore) PutTournament(t *types.TournamentSnapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTournaments).Put(itob(t.ID), data)
	})
}

func (s *BoltStore) GetTournament(id int64) (*types.TournamentSnapshot, error) {
	var t types.TournamentSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTournaments).Get(itob(id))
		if data == nil {
			return fmt.Errorf("tournament not found: %d", id)
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *BoltStore) ListTournaments() ([]*types.TournamentSnapshot, error) {
	var tournaments []*types.TournamentSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTournaments)
		return b.ForEach(func(k, v []byte) error {
			var t types.TournamentSnapshot
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			tournaments = append(tournaments, &t)
			return nil
		})
	})
	return tournaments, err
}

func (s *BoltStore) PutTeam(t *types.TeamSnapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTeams).Put(itob(t.ID), data)
	})
}

func (s *BoltStore) GetTeam(id int64) (*types.TeamSnapshot, error) {
	var t types.TeamSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTeams).Get(itob(id))
		if data == nil {
			return fmt.Errorf("team not found: %d", id)
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *BoltStore) ListTeamsByTournament(tournamentID int64) ([]*types.TeamSnapshot, error) {
	var teams []*types.TeamSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTeams)
		return b.ForEach(func(k, v []byte) error {
			var team types.TeamSnapshot
			if err := json.Unmarshal(v, &team); err != nil {
				return err
			}
			if team.TournamentID == tournamentID {
				teams = append(teams, &team)
			}
			return nil
		})
	})
	return teams, err
}

// SetTeamsLocked flips the lock flag on every team of a tournament and
// returns how many rows changed
func (s *BoltStore) SetTeamsLocked(tournamentID int64, locked bool) (int, error) {
	updated := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTeams)

		type change struct {
			key  []byte
			team types.TeamSnapshot
		}
		var changes []change

		err := b.ForEach(func(k, v []byte) error {
			var team types.TeamSnapshot
			if err := json.Unmarshal(v, &team); err != nil {
				return err
			}
			if team.TournamentID == tournamentID && team.Locked != locked {
				team.Locked = locked
				team.UpdatedAt = time.Now().UTC()
				key := make([]byte, len(k))
				copy(key, k)
				changes = append(changes, change{key: key, team: team})
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, ch := range changes {
			data, err := json.Marshal(&ch.team)
			if err != nil {
				return err
			}
			if err := b.Put(ch.key, data); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	return updated, err
}

// TTL cache operations

func (s *BoltStore) CachePut(key string, v any, ttl time.Duration) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		entry := cacheEntry{
			Data:      data,
			ExpiresAt: time.Now().UTC().Add(ttl),
		}
		entryData, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketCache).Put([]byte(key), entryData)
	})
}

func (s *BoltStore) CacheGet(key string, v any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCache).Get([]byte(key))
		if data == nil {
			return nil
		}
		var entry cacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return err
		}
		if time.Now().After(entry.ExpiresAt) {
			// Expired entries read as misses; overwritten on next put
			return nil
		}
		if err := json.Unmarshal(entry.Data, v); err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (s *BoltStore) CacheDelete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCache).Delete([]byte(key))
	})
}
