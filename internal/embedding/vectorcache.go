// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/curatus/internal/metrics"
)

// VectorCache persists computed embedding vectors in BadgerDB so repeated
// generations do not re-embed unchanged text. Keys are SHA-256 of
// model name + canonical text, so switching models invalidates naturally.
type VectorCache struct {
	db    *badger.DB
	model string
}

// OpenVectorCache opens (or creates) a vector cache at the given directory.
func OpenVectorCache(path, model string) (*VectorCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector cache at %s: %w", path, err)
	}
	return &VectorCache{db: db, model: model}, nil
}

// Close releases the underlying Badger database.
func (c *VectorCache) Close() error {
	return c.db.Close()
}

// key derives the cache key for a text.
func (c *VectorCache) key(text string) []byte {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return sum[:]
}

// Get returns the cached vector for text, or (nil, false) on a miss.
func (c *VectorCache) Get(text string) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec = DecodeVector(val)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			// Corrupt or unreadable entries count as misses; the vector
			// will be recomputed and overwritten.
			vec = nil
		}
		metrics.EmbeddingCacheMisses.Inc()
		return nil, false
	}
	if vec == nil {
		metrics.EmbeddingCacheMisses.Inc()
		return nil, false
	}
	metrics.EmbeddingCacheHits.Inc()
	return vec, true
}

// Put stores a vector for text. Errors are returned for the caller to log;
// a failed put never fails the embedding call itself.
func (c *VectorCache) Put(text string, vec []float32) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(text), EncodeVector(vec))
	})
}

// EncodeVector packs a float32 slice as little-endian bytes.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, x := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector unpacks little-endian bytes into a float32 slice.
// Returns nil for malformed input.
func DecodeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
