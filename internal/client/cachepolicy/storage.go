package cachepolicy

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/ustory/internal/filex"
	"go.etcd.io/bbolt"
)

// Storage holds named cache generations of snapshots.
type Storage interface {
	Put(cache, key string, s *Snapshot) error
	// Get returns nil, nil when the key is not in cache.
	Get(cache, key string) (*Snapshot, error)
	// Match looks key up in every generation, in name order.
	Match(key string) (*Snapshot, error)
	Caches() ([]string, error)
	// DeleteCache removes a whole generation and reports whether it existed.
	DeleteCache(cache string) (bool, error)
	Close() error
}

// BoltStorage keeps one bucket per cache generation.
type BoltStorage struct {
	db *bbolt.DB
}

func OpenBolt(path string) (*BoltStorage, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

func (b *BoltStorage) Close() error {
	return b.db.Close()
}

func (b *BoltStorage) Put(cache, key string, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(cache))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
}

func (b *BoltStorage) Get(cache, key string) (*Snapshot, error) {
	var snap *Snapshot
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(cache))
		if bucket == nil {
			return nil
		}
		var err error
		snap, err = decodeSnapshot(bucket.Get([]byte(key)))
		return err
	})
	return snap, err
}

func (b *BoltStorage) Match(key string) (*Snapshot, error) {
	var snap *Snapshot
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(_ []byte, bucket *bbolt.Bucket) error {
			if snap != nil {
				return nil
			}
			var err error
			snap, err = decodeSnapshot(bucket.Get([]byte(key)))
			return err
		})
	})
	return snap, err
}

func (b *BoltStorage) Caches() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

func (b *BoltStorage) DeleteCache(cache string) (bool, error) {
	var existed bool
	err := b.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(cache)) == nil {
			return nil
		}
		existed = true
		return tx.DeleteBucket([]byte(cache))
	})
	return existed, err
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	if data == nil {
		return nil, nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
