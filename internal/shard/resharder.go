package shard

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/storage"
)

// Resharder grows or shrinks the topology by exactly one shard per call,
// rebuilding every shard from the reconstructed corpus. Multi-step jumps
// are repeated calls.
//
// Neither operation is atomic: a failure partway through leaves primaries
// partially rewritten and an index that no longer matches storage. There
// is no automatic rollback; recovery is an explicit full rebuild by the
// caller.
type Resharder struct {
	data    storage.Store
	idx     *index.Store
	sharder *Sharder
	syncer  *Syncer
	log     zerolog.Logger
}

// NewResharder creates a resharder that re-splits via the given sharder
// and closes every operation with the given syncer.
func NewResharder(data storage.Store, idx *index.Store, sharder *Sharder, syncer *Syncer, log zerolog.Logger) *Resharder {
	return &Resharder{
		data:    data,
		idx:     idx,
		sharder: sharder,
		syncer:  syncer,
		log:     log.With().Str("component", "resharder").Logger(),
	}
}

// AddShard grows the topology by one shard: reconstructs the corpus from
// the current primaries, re-splits it under the larger count, rewrites
// every shard, and runs a sync pass to bring replicas onto the new
// topology.
func (r *Resharder) AddShard() error {
	m, err := r.idx.Load()
	if err != nil {
		return err
	}
	if m.IsEmpty() {
		return fmt.Errorf("%w: no topology to grow", ErrNotFound)
	}

	corpus, err := loadCorpus(r.data, m)
	if err != nil {
		return err
	}

	// Ids are dense 0..N-1, so maxID+2 is exactly one more shard.
	newCount := m.MaxID() + 2
	if err := validateCount(newCount, len(corpus)); err != nil {
		return err
	}

	if _, err := r.sharder.rebuild(newCount, corpus, m.Levels); err != nil {
		return err
	}

	r.log.Info().Int("shards", newCount).Msg("topology grown")
	_, err = r.syncer.Sync()
	return err
}

// RemoveShard shrinks the topology by one shard: reconstructs the corpus,
// deletes every current primary and the dropped shard's replicas, re-splits
// under the smaller count, and runs a sync pass.
func (r *Resharder) RemoveShard() error {
	m, err := r.idx.Load()
	if err != nil {
		return err
	}
	if m.IsEmpty() {
		return fmt.Errorf("%w: no topology to shrink", ErrNotFound)
	}
	if m.Count() == 1 {
		return fmt.Errorf("%w: cannot shrink below one shard", ErrInvalidShardCount)
	}

	corpus, err := loadCorpus(r.data, m)
	if err != nil {
		return err
	}

	for _, id := range m.IDs() {
		if !r.data.Has(primaryKey(id)) {
			return fmt.Errorf("%w: primary %d", ErrNotFound, id)
		}
		if err := r.data.Delete(primaryKey(id)); err != nil {
			return fmt.Errorf("delete shard %d: %w", id, err)
		}
	}

	// The dropped shard's replicas would be orphans under the new index.
	dropped := m.MaxID()
	for _, level := range m.Levels {
		if err := r.data.Delete(replicaKey(dropped, level)); err != nil {
			return fmt.Errorf("delete replica %d-%d: %w", dropped, level, err)
		}
	}

	newCount := m.MaxID()
	if _, err := r.sharder.rebuild(newCount, corpus, m.Levels); err != nil {
		return err
	}

	r.log.Info().Int("shards", newCount).Msg("topology shrunk")
	_, err = r.syncer.Sync()
	return err
}
