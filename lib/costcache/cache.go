// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package costcache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dexsplit/dexsplit/lib/codec"
)

// SnapshotFile is the snapshot's name inside the cache directory.
const SnapshotFile = "footprints.cache"

// DefaultMemoryEntries bounds the in-memory tier when Options leaves
// it unset.
const DefaultMemoryEntries = 65536

const (
	snapshotMagic   = "DXSFPC"
	snapshotFormat  = 1
	headerSize      = 13
	maxPayloadBytes = 1 << 30
)

// Estimator is the estimator shape the cache wraps and implements.
type Estimator interface {
	Estimate(r io.Reader) (int64, error)
}

// Options configures a Cache.
type Options struct {
	// Dir holds the snapshot. Empty means memory only: Open loads
	// nothing and Save writes nothing.
	Dir string

	// Estimator computes footprints on a miss. Required.
	Estimator Estimator

	// EstimatorVersion is stored in the snapshot. A snapshot written
	// with a different version is discarded on load.
	EstimatorVersion int

	Compression   Compression
	MemoryEntries int
	Logger        *slog.Logger
}

// Stats counts lookups since Open.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Cache memoizes footprints by content. See the package documentation.
type Cache struct {
	estimator   Estimator
	version     int
	dir         string
	compression Compression
	logger      *slog.Logger

	entries *lru.Cache[Key, int64]
	hits    atomic.Int64
	misses  atomic.Int64
}

// snapshot is the CBOR payload of a snapshot file.
type snapshot struct {
	EstimatorVersion int              `cbor:"estimator_version"`
	Entries          []snapshotRecord `cbor:"entries"`
}

type snapshotRecord struct {
	Key       []byte `cbor:"k"`
	Footprint int64  `cbor:"f"`
}

// Open creates a cache and, when options.Dir is set, loads its
// snapshot. A missing, corrupt or stale snapshot leaves the cache
// empty; only invalid options are errors.
func Open(options Options) (*Cache, error) {
	if options.Estimator == nil {
		return nil, errors.New("costcache: estimator is required")
	}
	if options.Compression > CompressionZstd {
		return nil, fmt.Errorf("costcache: unsupported compression %s", options.Compression)
	}
	size := options.MemoryEntries
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[Key, int64](size)
	if err != nil {
		return nil, fmt.Errorf("costcache: creating memory tier: %w", err)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache := &Cache{
		estimator:   options.Estimator,
		version:     options.EstimatorVersion,
		dir:         options.Dir,
		compression: options.Compression,
		logger:      logger,
		entries:     entries,
	}
	if cache.dir != "" {
		cache.load()
	}
	return cache, nil
}

// Estimate returns the footprint of the classfile read from r, from
// the cache when its content has been seen before. Estimator errors
// are returned unchanged and not cached.
func (c *Cache) Estimate(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	key := KeyOf(data)
	if footprint, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return footprint, nil
	}
	c.misses.Add(1)

	footprint, err := c.estimator.Estimate(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	c.entries.Add(key, footprint)
	return footprint, nil
}

// Stats returns the lookup counters and the number of cached entries.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Len(),
	}
}

// Path returns the snapshot path, or "" for a memory-only cache.
func (c *Cache) Path() string {
	if c.dir == "" {
		return ""
	}
	return filepath.Join(c.dir, SnapshotFile)
}

// Save writes the memory tier to the snapshot file via a temporary
// file and rename. A memory-only cache saves nothing.
func (c *Cache) Save() error {
	if c.dir == "" {
		return nil
	}
	data, err := c.encode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(c.dir, SnapshotFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, c.Path()); err != nil {
		return fmt.Errorf("renaming snapshot to %s: %w", c.Path(), err)
	}

	success = true
	c.logger.Debug("saved footprint cache", "path", c.Path(), "entries", c.entries.Len(), "compression", c.compression)
	return nil
}

// encode renders the memory tier as snapshot file bytes.
func (c *Cache) encode() ([]byte, error) {
	keys := c.entries.Keys()
	payload := snapshot{
		EstimatorVersion: c.version,
		Entries:          make([]snapshotRecord, 0, len(keys)),
	}
	for _, key := range keys {
		footprint, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		payload.Entries = append(payload.Entries, snapshotRecord{Key: key[:], Footprint: footprint})
	}

	raw, err := codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	compression := c.compression
	body, err := compress(raw, compression)
	if errors.Is(err, errIncompressible) {
		compression, body = CompressionNone, raw
	} else if err != nil {
		return nil, err
	}

	data := make([]byte, headerSize, headerSize+len(body))
	copy(data, snapshotMagic)
	binary.BigEndian.PutUint16(data[6:8], snapshotFormat)
	data[8] = byte(compression)
	binary.BigEndian.PutUint32(data[9:13], uint32(len(raw)))
	return append(data, body...), nil
}

// load reads the snapshot into the memory tier. Failures are logged
// and leave the cache empty.
func (c *Cache) load() {
	data, err := os.ReadFile(c.Path())
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		c.logger.Warn("ignoring unreadable footprint cache", "path", c.Path(), "error", err)
		return
	}
	payload, err := decodeSnapshot(data)
	if err != nil {
		c.logger.Warn("ignoring corrupt footprint cache", "path", c.Path(), "error", err)
		return
	}
	if payload.EstimatorVersion != c.version {
		c.logger.Info("discarding footprint cache from another estimator version",
			"path", c.Path(),
			"cached_version", payload.EstimatorVersion,
			"version", c.version,
		)
		return
	}

	for _, record := range payload.Entries {
		if len(record.Key) != len(Key{}) {
			c.logger.Warn("ignoring corrupt footprint cache", "path", c.Path(),
				"error", fmt.Sprintf("key is %d bytes", len(record.Key)))
			c.entries.Purge()
			return
		}
		var key Key
		copy(key[:], record.Key)
		c.entries.Add(key, record.Footprint)
	}
	c.logger.Debug("loaded footprint cache", "path", c.Path(), "entries", c.entries.Len())
}

func decodeSnapshot(data []byte) (*snapshot, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("snapshot is %d bytes, shorter than its header", len(data))
	}
	if string(data[:6]) != snapshotMagic {
		return nil, errors.New("bad snapshot magic")
	}
	if format := binary.BigEndian.Uint16(data[6:8]); format != snapshotFormat {
		return nil, fmt.Errorf("unsupported snapshot format %d", format)
	}
	compression := Compression(data[8])
	size := binary.BigEndian.Uint32(data[9:13])
	if size > maxPayloadBytes {
		return nil, fmt.Errorf("snapshot payload of %d bytes exceeds limit", size)
	}

	raw, err := decompress(data[headerSize:], compression, int(size))
	if err != nil {
		return nil, err
	}
	var payload snapshot
	if err := codec.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &payload, nil
}
