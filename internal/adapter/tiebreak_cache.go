package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	m "afluent.dev/pkg/afluent/internal/model"
)

// TiebreakCache stores computed tie-break datasets keyed by the content hash
// of the analysed file, one bucket per strategy.
type TiebreakCache interface {
	Get(hash string, strategy m.Tiebreak) (m.LineScores, bool, error)
	Put(hash string, strategy m.Tiebreak, scores m.LineScores) error
	Close() error
}

// BoltTiebreakCache is a TiebreakCache backed by a bbolt file.
type BoltTiebreakCache struct {
	db *bolt.DB
}

// NewBoltTiebreakCache opens (or creates) the cache database at path.
func NewBoltTiebreakCache(path string) (*BoltTiebreakCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	return &BoltTiebreakCache{db: db}, nil
}

// Get returns the cached dataset for hash, if any.
func (c *BoltTiebreakCache) Get(hash string, strategy m.Tiebreak) (m.LineScores, bool, error) {
	var raw []byte

	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(strategy))
		if bucket == nil {
			return nil
		}

		if v := bucket.Get([]byte(hash)); v != nil {
			// v is only valid inside the transaction
			raw = append([]byte(nil), v...)
		}

		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read cache: %w", err)
	}

	if raw == nil {
		return nil, false, nil
	}

	var scores m.LineScores
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, false, fmt.Errorf("decode cached %s dataset: %w", strategy, err)
	}

	return scores, true, nil
}

// Put stores scores for hash, replacing any previous entry.
func (c *BoltTiebreakCache) Put(hash string, strategy m.Tiebreak, scores m.LineScores) error {
	raw, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode %s dataset: %w", strategy, err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(strategy))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", strategy, err)
		}

		return bucket.Put([]byte(hash), raw)
	})
}

// Close closes the underlying bbolt database.
func (c *BoltTiebreakCache) Close() error {
	return c.db.Close()
}

// NopTiebreakCache never hits and drops every write. Used with --no-cache.
type NopTiebreakCache struct{}

// Get always misses.
func (NopTiebreakCache) Get(string, m.Tiebreak) (m.LineScores, bool, error) { return nil, false, nil }

// Put discards scores.
func (NopTiebreakCache) Put(string, m.Tiebreak, m.LineScores) error { return nil }

// Close is a no-op.
func (NopTiebreakCache) Close() error { return nil }
