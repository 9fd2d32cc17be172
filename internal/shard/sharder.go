package shard

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/storage"
)

// primaryKey is the storage key for a shard's primary content.
func primaryKey(id int) string {
	return strconv.Itoa(id)
}

// replicaKey is the storage key for a shard's replica at a given level.
func replicaKey(id, level int) string {
	return fmt.Sprintf("%d-%d", id, level)
}

// Sharder splits a corpus into contiguous shards and writes them to
// storage, recording each shard's byte range in the index.
type Sharder struct {
	data storage.Store
	idx  *index.Store
	log  zerolog.Logger
}

// NewSharder creates a sharder over the given data and index stores.
func NewSharder(data storage.Store, idx *index.Store, log zerolog.Logger) *Sharder {
	return &Sharder{
		data: data,
		idx:  idx,
		log:  log.With().Str("component", "sharder").Logger(),
	}
}

// Build bootstraps the topology: splits corpus into count shards, writes
// every primary, and persists the index. Build is a one-time operation:
// it fails with ErrAlreadySharded if a topology exists; topology changes
// afterwards go through the Resharder.
func (s *Sharder) Build(count int, corpus []byte) error {
	m, err := s.idx.Load()
	if err != nil {
		return err
	}
	if !m.IsEmpty() {
		return fmt.Errorf("%w: %d shards present", ErrAlreadySharded, m.Count())
	}
	if err := validateCount(count, len(corpus)); err != nil {
		return err
	}

	_, err = s.rebuild(count, corpus, nil)
	return err
}

// rebuild splits corpus into count shards, overwrites every primary, and
// persists a full index carrying the given replica levels. The index is
// written once, after all shard content.
func (s *Sharder) rebuild(count int, corpus []byte, levels []int) (*index.Mapping, error) {
	pieces := splitCorpus(count, corpus)

	m := index.NewMapping()
	m.Levels = levels

	offset := 0
	for id, piece := range pieces {
		if err := s.data.Put(primaryKey(id), piece); err != nil {
			return nil, fmt.Errorf("write shard %d: %w", id, err)
		}
		m.Shards[id] = index.ByteRange{Start: offset, End: offset + len(piece)}
		offset += len(piece)
	}

	if err := s.idx.Save(m); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("shards", count).
		Int("bytes", len(corpus)).
		Msg("topology written")
	return m, nil
}

// validateCount rejects counts no split can satisfy, before any write.
// A count above the corpus length would force empty shards, which would
// also make the sync pass's restore-by-length check meaningless.
func validateCount(count, corpusLen int) error {
	if count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShardCount, count)
	}
	if count > corpusLen {
		return fmt.Errorf("%w: %d shards for a %d-byte corpus", ErrInvalidShardCount, count, corpusLen)
	}
	return nil
}

// splitCorpus cuts the corpus into count contiguous pieces. Every shard
// gets floor(len/count) bytes except the last, which also takes the
// remainder. An 11-byte corpus over 5 shards splits 2,2,2,2,3.
func splitCorpus(count int, corpus []byte) [][]byte {
	base := len(corpus) / count

	pieces := make([][]byte, count)
	for i := range pieces {
		start := i * base
		end := start + base
		if i == count-1 {
			end = len(corpus)
		}
		pieces[i] = corpus[start:end]
	}
	return pieces
}
