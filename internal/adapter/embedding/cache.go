package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"docqa/internal/port"
)

var bucketEmbeddings = []byte("embeddings")

// CachedEmbedder stores the vectors produced by another embedder in a BoltDB
// file, keyed by model name and text hash. Only codec output is cached; the
// similarity index is still rebuilt in memory on every run.
type CachedEmbedder struct {
	inner  port.Embedder
	db     *bbolt.DB
	hits   atomic.Int64
	misses atomic.Int64
}

type storedVector struct {
	Model  string    `json:"m"`
	Vector []float32 `json:"v"`
}

var (
	_ port.Embedder     = (*CachedEmbedder)(nil)
	_ port.CorpusFitter = (*CachedEmbedder)(nil)
)

// NewCachedEmbedder opens (or creates) the cache file at path.
func NewCachedEmbedder(path string, inner port.Embedder) (*CachedEmbedder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}
	return &CachedEmbedder{inner: inner, db: db}, nil
}

// Fit forwards to the wrapped embedder when it needs fitting.
func (c *CachedEmbedder) Fit(texts []string) error {
	if f, ok := c.inner.(port.CorpusFitter); ok {
		return f.Fit(texts)
	}
	return nil
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Embed serves cached vectors and forwards the misses to the wrapped
// embedder in a single call, preserving input order.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.inner.ModelName()
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(model, t)
	}

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, k := range keys {
			data := b.Get(k)
			if data == nil {
				continue
			}
			var sv storedVector
			if err := json.Unmarshal(data, &sv); err != nil || sv.Model != model {
				continue // treat corrupted entries as misses
			}
			out[i] = sv.Vector
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache read failed: %w", err)
	}

	var missIdx []int
	var missTexts []string
	for i, v := range out {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	c.hits.Add(int64(len(texts) - len(missIdx)))
	c.misses.Add(int64(len(missIdx)))
	if len(missIdx) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(fresh), len(missTexts))
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for j, i := range missIdx {
			out[i] = fresh[j]
			data, err := json.Marshal(storedVector{Model: model, Vector: fresh[j]})
			if err != nil {
				return err
			}
			if err := b.Put(keys[i], data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache write failed: %w", err)
	}
	return out, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the cache file.
func (c *CachedEmbedder) Close() error {
	return c.db.Close()
}

func cacheKey(model, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}
