package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// DefaultBatchSize is used by Insert when no batch size is given.
const DefaultBatchSize = 64

// Collection is a named set of embedded chunks inside a Store.
type Collection struct {
	store    *Store
	name     string
	embedder port.Embedder
	meta     collectionMeta
}

func (c *Collection) Name() string {
	return c.name
}

// Info returns the collection's fingerprint and current size.
func (c *Collection) Info() (domain.CollectionInfo, error) {
	size, err := c.Size()
	if err != nil {
		return domain.CollectionInfo{}, err
	}
	return domain.CollectionInfo{
		Name:      c.name,
		Size:      size,
		Backend:   c.meta.Backend,
		Model:     c.meta.Model,
		Dimension: c.meta.Dimension,
		CreatedAt: c.meta.CreatedAt,
	}, nil
}

// Insert embeds chunks in batches and stores them, one transaction per
// batch. Every chunk gets a fresh ID, so inserting the same chunks twice
// stores them twice. progress, if non-nil, is called after each batch.
// On error the batches already written stay in the collection.
func (c *Collection) Insert(ctx context.Context, chunks []domain.Chunk, batchSize int, progress func(done, total int)) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	inserted := 0
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, ch := range batch {
			texts[j] = ch.Text
		}
		vectors, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return inserted, fmt.Errorf("embed chunks %d-%d: %w", i, end, err)
		}
		if len(vectors) != len(batch) {
			return inserted, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		if err := c.putBatch(batch, vectors); err != nil {
			return inserted, err
		}
		inserted += len(batch)

		if progress != nil {
			progress(inserted, len(chunks))
		}
	}
	return inserted, nil
}

func (c *Collection) putBatch(batch []domain.Chunk, vectors [][]float32) error {
	return c.store.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(c.name))
		if b == nil {
			return fmt.Errorf("collection %s not found", c.name)
		}

		meta := c.meta
		if meta.Dimension == 0 {
			meta.Dimension = len(vectors[0])
			if err := putJSON(b, keyCollectionMeta, meta); err != nil {
				return err
			}
		}

		chunks := b.Bucket(bucketChunks)
		for i, ch := range batch {
			if len(vectors[i]) != meta.Dimension {
				return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, meta.Dimension, len(vectors[i]))
			}
			ch.ID = uuid.NewString()

			seq, err := chunks.NextSequence()
			if err != nil {
				return err
			}
			if err := putJSON(chunks, sequenceKey(seq), domain.EmbeddedChunk{Chunk: ch, Vector: vectors[i]}); err != nil {
				return err
			}
		}

		c.meta = meta
		return nil
	})
}

// Size returns the number of stored chunks.
func (c *Collection) Size() (int, error) {
	var n int
	err := c.store.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(c.name))
		if b == nil {
			return fmt.Errorf("collection %s not found", c.name)
		}
		n = b.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return n, err
}

// Search embeds query and returns the k stored chunks closest to it by
// cosine similarity, best first. Fewer than k are returned when the
// collection is smaller. Equal scores keep insertion order.
func (c *Collection) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	vectors, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vectors))
	}
	qv := vectors[0]

	var scored []domain.ScoredChunk
	err = c.store.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(c.name))
		if b == nil {
			return fmt.Errorf("collection %s not found", c.name)
		}
		return b.Bucket(bucketChunks).ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var ec domain.EmbeddedChunk
			if err := json.Unmarshal(v, &ec); err != nil {
				return fmt.Errorf("decode chunk: %w", err)
			}
			if len(ec.Vector) != len(qv) {
				return fmt.Errorf("%w: query has %d dimensions, stored vectors %d", domain.ErrDimensionMismatch, len(qv), len(ec.Vector))
			}
			scored = append(scored, domain.ScoredChunk{
				Chunk: ec.Chunk,
				Score: cosineSimilarity(qv, ec.Vector),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func sequenceKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
