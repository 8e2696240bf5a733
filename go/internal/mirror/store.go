// Package mirror keeps a best-effort local copy of the latest room snapshot
// and of the process identity in a bbolt file. Nothing reads the mirror back
// into a live host; it exists for inspection and for participants that
// restart and want to rejoin under the same nickname.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const (
	snapshotsBucket  = "snapshots"
	identitiesBucket = "identities"
)

var ErrEntryNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

// Open opens or creates the mirror file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening mirror %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("mirror opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing mirror: %w", err)
	}
	return nil
}

// SaveSnapshot stores r under its room code, replacing the previous one.
func (s *Store) SaveSnapshot(r *models.Room) error {
	return s.put(snapshotsBucket, r.Code, r)
}

// LoadSnapshot returns the last snapshot stored for code.
func (s *Store) LoadSnapshot(code string) (*models.Room, error) {
	var r models.Room
	if err := s.get(snapshotsBucket, code, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveIdentity remembers who this process is, keyed by role.
func (s *Store) SaveIdentity(id room.Identity) error {
	return s.put(identitiesBucket, string(id.Role), id)
}

// LoadIdentity returns the identity stored for role.
func (s *Store) LoadIdentity(role room.RoleKind) (room.Identity, error) {
	var id room.Identity
	err := s.get(identitiesBucket, string(role), &id)
	return id, err
}

func (s *Store) put(bucket, key string, v any) error {
	tx, err := s.db.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("can not create bucket: %w", err)
	}

	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put([]byte(key), bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) get(bucket, key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrEntryNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrEntryNotFound
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}
		return nil
	})
}
