// Package store persists map snapshots in a buntdb database, one key per map:
//
//	map:<uuid>:data
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/layout"
)

var ErrNotFound = errors.New("map not found")

type Store struct {
	db *buntdb.DB
}

// Open opens the database at path (":memory:" for one that is not backed by
// a file).
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	err = db.SetConfig(buntdb.Config{
		SyncPolicy:           buntdb.Always,
		AutoShrinkPercentage: 100,
		AutoShrinkMinSize:    32 * 1024 * 1024,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(id uuid.UUID) string {
	return fmt.Sprintf("map:%s:data", id)
}

// Save stores a snapshot of m under id.
func (s *Store) Save(id uuid.UUID, m *layout.Map) error {
	return s.SaveSnapshot(id, m.Snapshot())
}

func (s *Store) SaveSnapshot(id uuid.UUID, snap layout.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", id, err)
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, replaced, err := tx.Set(key(id), string(data), nil)
		if err != nil {
			return err
		}
		zap.S().Debugw("saved map", "map", id, "replaced", replaced, "size", len(data))
		return nil
	})
}

// Load decodes the map stored under id.
func (s *Store) Load(id uuid.UUID, opts ...layout.Option) (*layout.Map, error) {
	var value string
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		value, err = tx.Get(key(id))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	m, err := layout.Decode([]byte(value), opts...)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) Delete(id uuid.UUID) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(id))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return err
}

// List returns the identities of the stored maps in key order. Keys that do
// not parse are logged and skipped.
func (s *Store) List() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("map:*:data", func(key, value string) bool {
			raw := strings.TrimSuffix(strings.TrimPrefix(key, "map:"), ":data")
			id, err := uuid.Parse(raw)
			if err != nil {
				zap.S().Errorw("parsing key failed", "key", key, "err", err)
				return true
			}
			ids = append(ids, id)
			return true
		})
	})
	return ids, err
}
