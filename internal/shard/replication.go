package shard

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/storage"
)

// Replicator adds and removes replica levels uniformly across the whole
// topology. Levels are global: every shard carries the same set, tracked
// in the index rather than discovered by probing storage.
type Replicator struct {
	data storage.Store
	idx  *index.Store
	log  zerolog.Logger
}

// NewReplicator creates a replicator over the given data and index stores.
func NewReplicator(data storage.Store, idx *index.Store, log zerolog.Logger) *Replicator {
	return &Replicator{
		data: data,
		idx:  idx,
		log:  log.With().Str("component", "replicator").Logger(),
	}
}

// AddReplication writes a new replica level for every shard, each replica
// a verbatim copy of the shard's current primary, then records the level
// in the index. Returns the level added.
func (r *Replicator) AddReplication() (int, error) {
	m, err := r.idx.Load()
	if err != nil {
		return 0, err
	}
	if m.IsEmpty() {
		return 0, fmt.Errorf("%w: no topology to replicate", ErrNotFound)
	}

	level := m.NextLevel()
	for _, id := range m.IDs() {
		content, err := r.data.Get(primaryKey(id))
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, fmt.Errorf("%w: primary %d", ErrNotFound, id)
		}
		if err != nil {
			return 0, fmt.Errorf("read shard %d: %w", id, err)
		}
		if err := r.data.Put(replicaKey(id, level), content); err != nil {
			return 0, fmt.Errorf("write replica %d-%d: %w", id, level, err)
		}
	}

	m.AddLevel(level)
	if err := r.idx.Save(m); err != nil {
		return 0, err
	}

	r.log.Info().Int("level", level).Int("shards", m.Count()).Msg("replication level added")
	return level, nil
}

// RemoveReplication deletes the highest replica level for every shard and
// drops it from the index. Returns the level removed, or
// ErrNoReplicationToRemove when only primaries exist.
func (r *Replicator) RemoveReplication() (int, error) {
	m, err := r.idx.Load()
	if err != nil {
		return 0, err
	}
	if m.IsEmpty() {
		return 0, fmt.Errorf("%w: no topology", ErrNotFound)
	}
	if len(m.Levels) == 0 {
		return 0, ErrNoReplicationToRemove
	}

	level := m.MaxLevel()
	for _, id := range m.IDs() {
		if err := r.data.Delete(replicaKey(id, level)); err != nil {
			return 0, fmt.Errorf("delete replica %d-%d: %w", id, level, err)
		}
	}

	m.RemoveLevel(level)
	if err := r.idx.Save(m); err != nil {
		return 0, err
	}

	r.log.Info().Int("level", level).Msg("replication level removed")
	return level, nil
}
