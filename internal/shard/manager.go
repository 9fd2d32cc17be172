package shard

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/storage"
)

// ShardInfo describes one shard's place in the corpus.
type ShardInfo struct {
	ID    int `json:"id"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// TopologyInfo describes the whole topology: every shard in ascending id
// order plus the active replica levels.
type TopologyInfo struct {
	Shards        []ShardInfo `json:"shards"`
	ReplicaLevels []int       `json:"replica_levels"`
}

// Manager is the single entry point a driver uses: it composes the
// sharder, resharder, replicator and syncer over one data namespace and
// one index namespace.
//
// Manager assumes a single logical writer. Mutating calls must be
// serialized by the caller; reads are only consistent while no mutation
// is in flight.
type Manager struct {
	data       storage.Store
	idx        *index.Store
	sharder    *Sharder
	resharder  *Resharder
	replicator *Replicator
	syncer     *Syncer
}

// NewManager wires the topology components over the given stores.
func NewManager(data storage.Store, idx *index.Store, log zerolog.Logger) *Manager {
	sharder := NewSharder(data, idx, log)
	syncer := NewSyncer(data, idx, log)
	return &Manager{
		data:       data,
		idx:        idx,
		sharder:    sharder,
		resharder:  NewResharder(data, idx, sharder, syncer, log),
		replicator: NewReplicator(data, idx, log),
		syncer:     syncer,
	}
}

// BuildShards bootstraps the topology from a corpus. One-time: fails with
// ErrAlreadySharded if shards exist.
func (m *Manager) BuildShards(count int, corpus []byte) error {
	return m.sharder.Build(count, corpus)
}

// AddShard grows the topology by exactly one shard.
func (m *Manager) AddShard() error {
	return m.resharder.AddShard()
}

// RemoveShard shrinks the topology by exactly one shard.
func (m *Manager) RemoveShard() error {
	return m.resharder.RemoveShard()
}

// AddReplication adds one replica level across all shards and returns it.
func (m *Manager) AddReplication() (int, error) {
	return m.replicator.AddReplication()
}

// RemoveReplication removes the highest replica level and returns it.
func (m *Manager) RemoveReplication() (int, error) {
	return m.replicator.RemoveReplication()
}

// SyncReplication reconciles replicas with primaries and repairs primary
// loss, returning what it did and what it could not fix.
func (m *Manager) SyncReplication() (*SyncReport, error) {
	return m.syncer.Sync()
}

// GetShardData returns one shard's index entry.
func (m *Manager) GetShardData(id int) (ShardInfo, error) {
	mapping, err := m.idx.Load()
	if err != nil {
		return ShardInfo{}, err
	}
	r, ok := mapping.Range(id)
	if !ok {
		return ShardInfo{}, fmt.Errorf("%w: shard %d not in index (valid ids %v)", ErrNotFound, id, mapping.IDs())
	}
	return ShardInfo{ID: id, Start: r.Start, End: r.End}, nil
}

// GetAllShardData returns the full topology view.
func (m *Manager) GetAllShardData() (*TopologyInfo, error) {
	mapping, err := m.idx.Load()
	if err != nil {
		return nil, err
	}

	info := &TopologyInfo{
		Shards:        make([]ShardInfo, 0, mapping.Count()),
		ReplicaLevels: mapping.Levels,
	}
	for _, id := range mapping.IDs() {
		r := mapping.Shards[id]
		info.Shards = append(info.Shards, ShardInfo{ID: id, Start: r.Start, End: r.End})
	}
	return info, nil
}

// Corpus reconstructs the logical corpus from the current primaries.
func (m *Manager) Corpus() ([]byte, error) {
	mapping, err := m.idx.Load()
	if err != nil {
		return nil, err
	}
	return loadCorpus(m.data, mapping)
}

// Stats returns storage statistics for the data namespace.
func (m *Manager) Stats() storage.StoreStats {
	return m.data.Stats()
}

// Verify checks that the data namespace holds exactly the keys the index
// implies: one primary per shard and one replica per shard per active
// level. Returns an error naming missing and unexpected keys; a sync
// pass fixes missing replicas, anything else needs a rebuild.
func (m *Manager) Verify() error {
	mapping, err := m.idx.Load()
	if err != nil {
		return err
	}
	keys, err := m.data.List()
	if err != nil {
		return err
	}

	want := make(map[string]bool, mapping.Count()*(1+len(mapping.Levels)))
	for _, id := range mapping.IDs() {
		want[primaryKey(id)] = true
		for _, level := range mapping.Levels {
			want[replicaKey(id, level)] = true
		}
	}

	var missing, extra []string
	for _, key := range keys {
		if !want[key] {
			extra = append(extra, key)
		}
		delete(want, key)
	}
	for key := range want {
		missing = append(missing, key)
	}
	slices.Sort(missing)

	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("topology out of step with index: missing %v, unexpected %v", missing, extra)
	}
	return nil
}
