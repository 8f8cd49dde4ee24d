package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/port"
)

// FileName is the bbolt file kept inside the store directory.
const FileName = "docqa.db"

var (
	bucketMeta        = []byte("meta")
	bucketCollections = []byte("collections")
	bucketChunks      = []byte("chunks")
	keyCollectionMeta = []byte("collection")
)

// Options controls how a store is opened.
type Options struct {
	// LockTimeout bounds the wait for another process holding the file.
	LockTimeout time.Duration
	// StrictBackend rejects opening a collection with an embedding backend
	// other than the one it was created with. Otherwise a warning is logged.
	StrictBackend bool
}

// Store is a directory holding named vector collections in one bbolt file.
type Store struct {
	db   *bbolt.DB
	dir  string
	opts Options
}

// Open opens the store in dir. The directory must already exist.
func Open(dir string, opts Options) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, dir)
	}

	db, err := bbolt.Open(filepath.Join(dir, FileName), 0600, &bbolt.Options{Timeout: opts.LockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	s := &Store{db: db, dir: dir, opts: opts}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type collectionMeta struct {
	Backend   string    `json:"backend"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
}

// Collection opens the named collection, creating it if needed. backend is
// the registry name of the embedding backend emb was created from.
func (s *Store) Collection(name, backend string, emb port.Embedder) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}

	var meta collectionMeta
	created := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketCollections)
		b := root.Bucket([]byte(name))
		if b != nil {
			return json.Unmarshal(b.Get(keyCollectionMeta), &meta)
		}

		b, err := root.CreateBucket([]byte(name))
		if err != nil {
			return fmt.Errorf("failed to create collection bucket: %w", err)
		}
		if _, err := b.CreateBucket(bucketChunks); err != nil {
			return err
		}
		meta = collectionMeta{
			Backend:   backend,
			Model:     emb.ModelName(),
			Dimension: emb.Dimension(),
			CreatedAt: time.Now().UTC(),
		}
		created = true
		return putJSON(b, keyCollectionMeta, meta)
	})
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}

	if created {
		logger.Debug("created collection", "collection", name, "backend", backend, "model", meta.Model)
	} else if err := s.checkBackend(name, meta, backend, emb); err != nil {
		return nil, err
	}

	return &Collection{store: s, name: name, embedder: emb, meta: meta}, nil
}

// OpenCollection opens an existing collection without creating it.
func (s *Store) OpenCollection(name, backend string, emb port.Embedder) (*Collection, error) {
	var meta collectionMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(name))
		if b == nil {
			return fmt.Errorf("%w: %q in %s", domain.ErrCollectionNotFound, name, s.dir)
		}
		return json.Unmarshal(b.Get(keyCollectionMeta), &meta)
	})
	if err != nil {
		return nil, err
	}

	if err := s.checkBackend(name, meta, backend, emb); err != nil {
		return nil, err
	}
	return &Collection{store: s, name: name, embedder: emb, meta: meta}, nil
}

func (s *Store) checkBackend(name string, meta collectionMeta, backend string, emb port.Embedder) error {
	if dim := emb.Dimension(); dim != 0 && meta.Dimension != 0 && dim != meta.Dimension {
		return fmt.Errorf("%w: collection %s holds %d-dimensional vectors, %s/%s produces %d",
			domain.ErrDimensionMismatch, name, meta.Dimension, backend, emb.ModelName(), dim)
	}
	if meta.Backend == backend && meta.Model == emb.ModelName() {
		return nil
	}
	if s.opts.StrictBackend {
		return fmt.Errorf("%w: collection %s uses %s/%s, got %s/%s",
			domain.ErrBackendMismatch, name, meta.Backend, meta.Model, backend, emb.ModelName())
	}
	logger.Warn("collection was created with a different embedding backend",
		"collection", name,
		"stored_backend", meta.Backend, "stored_model", meta.Model,
		"backend", backend, "model", emb.ModelName())
	return nil
}

// Collections lists every collection in name order.
func (s *Store) Collections() ([]domain.CollectionInfo, error) {
	var infos []domain.CollectionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketCollections)
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			b := root.Bucket(k)
			var meta collectionMeta
			if err := json.Unmarshal(b.Get(keyCollectionMeta), &meta); err != nil {
				return fmt.Errorf("collection %s: %w", k, err)
			}
			infos = append(infos, domain.CollectionInfo{
				Name:      string(k),
				Size:      b.Bucket(bucketChunks).Stats().KeyN,
				Backend:   meta.Backend,
				Model:     meta.Model,
				Dimension: meta.Dimension,
				CreatedAt: meta.CreatedAt,
			})
			return nil
		})
	})
	return infos, err
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
