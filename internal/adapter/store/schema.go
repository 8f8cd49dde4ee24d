package store

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		if data := b.Get(keySchemaVersion); len(data) == 8 {
			version = int(binary.BigEndian.Uint64(data))
		}
		return nil
	})
	return version, err
}

// migrate brings an older file up to CurrentSchemaVersion and refuses
// files written by a newer one.
func (s *Store) migrate() error {
	version, err := s.schemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("%w (v%d > v%d)", domain.ErrSchemaTooNew, version, CurrentSchemaVersion)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for v := version; v < CurrentSchemaVersion; v++ {
			if err := runMigration(tx, v, v+1); err != nil {
				return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
			}
		}
		return setSchemaVersion(tx, CurrentSchemaVersion)
	})
}

func runMigration(tx *bbolt.Tx, from, to int) error {
	switch {
	case from == 0 && to == 1:
		for _, name := range [][]byte{bucketMeta, bucketCollections} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	default:
		return nil
	}
}

func setSchemaVersion(tx *bbolt.Tx, version int) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(version))
	return b.Put(keySchemaVersion, buf[:])
}
