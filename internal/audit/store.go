// Package audit keeps a local trail of authentication attempts in a bbolt
// file. Raw tag strings and credential hashes are never written.
package audit

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"
)

var bucketAttempts = []byte("attempts")

// lockTimeout bounds the wait for the file lock held by a concurrent login.
const lockTimeout = 2 * time.Second

// Entry is one authentication attempt.
type Entry struct {
	ID      string
	Time    time.Time
	User    string
	Service string
	Result  string
	Reason  string
	TagType string
}

// Store wraps a bbolt database holding audit entries.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates the audit database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create dir for %s: %w", path, err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAttempts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create buckets: %w", err)
	}
	return &Store{bolt: db}, nil
}

func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// Record persists e, assigning an ID and timestamp when they are unset.
func (s *Store) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	data, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("audit: encode entry %s: %w", e.ID, err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAttempts).Put(entryKey(e), data)
	})
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) ([]Entry, error) {
	out := make([]Entry, 0)
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketAttempts).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(out) >= n {
				break
			}
			e, err := decodeEntry(v)
			if err != nil {
				return fmt.Errorf("audit: decode entry %x: %w", k, err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// entryKey orders entries by time; the id suffix keeps keys unique.
func entryKey(e Entry) []byte {
	key := make([]byte, 8, 8+len(e.ID))
	binary.BigEndian.PutUint64(key, uint64(e.Time.UnixNano()))
	return append(key, e.ID...)
}

func encodeEntry(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
