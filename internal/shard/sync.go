package shard

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/storage"
)

// ReplicaRef names one replica of one shard.
type ReplicaRef struct {
	Shard int `json:"shard"`
	Level int `json:"level"`
}

// SyncReport is the structured result of a sync pass.
//
// Repaired and Restored accumulate across passes. Corrupt and Lost come
// from the final pass only: a replica found corrupt early is rewritten
// from its primary once that primary is restored, so it ends the pass
// sequence as a repair, not a corruption.
type SyncReport struct {
	// Passes is how many passes ran before the fixed point.
	Passes int `json:"passes"`

	// Repaired lists replicas rewritten from their primary, including
	// replicas that were missing entirely and got materialized.
	Repaired []ReplicaRef `json:"repaired,omitempty"`

	// Restored lists shard ids whose primary was rebuilt from a replica.
	Restored []int `json:"restored,omitempty"`

	// Corrupt lists replicas rejected as restore sources because their
	// length does not match the shard's index range.
	Corrupt []ReplicaRef `json:"corrupt,omitempty"`

	// Lost lists shard ids left with no primary and no valid replica.
	// These are unrecoverable without a full rebuild.
	Lost []int `json:"lost,omitempty"`
}

// Clean reports whether the pass left every replica equal to its primary
// with nothing unrecoverable.
func (r *SyncReport) Clean() bool {
	return len(r.Corrupt) == 0 && len(r.Lost) == 0
}

// Syncer reconciles replica drift and repairs primary loss. It is invoked
// after every topology or replication change and is the system's only
// self-healing mechanism.
type Syncer struct {
	data storage.Store
	idx  *index.Store
	log  zerolog.Logger
}

// NewSyncer creates a syncer over the given data and index stores.
func NewSyncer(data storage.Store, idx *index.Store, log zerolog.Logger) *Syncer {
	return &Syncer{
		data: data,
		idx:  idx,
		log:  log.With().Str("component", "syncer").Logger(),
	}
}

// Sync runs reconciliation passes until a fixed point: for every shard in
// ascending id order, replicas that drifted from an existing primary are
// overwritten with it (primary wins), and a missing primary is rebuilt
// from the first replica whose length matches the shard's index range.
//
// Restoring a primary changes what the same shard's other replicas must
// be compared against, so a pass that restored anything triggers another.
// Each restore is permanent, which bounds the loop at shards+1 passes.
func (s *Syncer) Sync() (*SyncReport, error) {
	m, err := s.idx.Load()
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	if m.IsEmpty() {
		return report, nil
	}

	maxPasses := m.Count() + 1
	for pass := 1; pass <= maxPasses; pass++ {
		report.Passes = pass
		restored, corrupt, lost, err := s.pass(m, report)
		if err != nil {
			return nil, err
		}
		report.Corrupt = corrupt
		report.Lost = lost
		if restored == 0 {
			break
		}
	}

	if !report.Clean() {
		s.log.Warn().
			Int("corrupt", len(report.Corrupt)).
			Int("lost", len(report.Lost)).
			Msg("sync finished with unrecoverable damage")
	}
	return report, nil
}

// pass walks every shard once, appending repairs and restores to the
// report and returning this pass's corruption and loss findings.
func (s *Syncer) pass(m *index.Mapping, report *SyncReport) (restored int, corrupt []ReplicaRef, lost []int, err error) {
	for _, id := range m.IDs() {
		primary, err := s.data.Get(primaryKey(id))
		switch {
		case err == nil:
			if err := s.repairReplicas(id, primary, m.Levels, report); err != nil {
				return 0, nil, nil, err
			}
		case errors.Is(err, storage.ErrKeyNotFound):
			ok, bad, err := s.restorePrimary(id, m, report)
			if err != nil {
				return 0, nil, nil, err
			}
			corrupt = append(corrupt, bad...)
			if ok {
				restored++
			} else {
				lost = append(lost, id)
			}
		default:
			return 0, nil, nil, fmt.Errorf("read shard %d: %w", id, err)
		}
	}
	return restored, corrupt, lost, nil
}

// repairReplicas overwrites every replica of a live primary that is
// missing or differs from it. The index's level set is authoritative, so
// a missing replica counts as drift and is materialized.
func (s *Syncer) repairReplicas(id int, primary []byte, levels []int, report *SyncReport) error {
	for _, level := range levels {
		replica, err := s.data.Get(replicaKey(id, level))
		if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("read replica %d-%d: %w", id, level, err)
		}
		if err == nil && bytes.Equal(replica, primary) {
			continue
		}

		if err := s.data.Put(replicaKey(id, level), primary); err != nil {
			return fmt.Errorf("write replica %d-%d: %w", id, level, err)
		}
		report.Repaired = append(report.Repaired, ReplicaRef{Shard: id, Level: level})
		s.log.Info().Int("shard", id).Int("level", level).Msg("replica repaired")
	}
	return nil
}

// restorePrimary rebuilds a missing primary from the first replica whose
// length matches the shard's index range. Length-mismatched replicas are
// reported as corrupt and skipped; they never abort the pass. Remaining
// levels of a restored shard are reconciled on the next pass against the
// restored primary.
func (s *Syncer) restorePrimary(id int, m *index.Mapping, report *SyncReport) (bool, []ReplicaRef, error) {
	r, _ := m.Range(id)
	want := r.Len()

	var corrupt []ReplicaRef
	for _, level := range m.Levels {
		replica, err := s.data.Get(replicaKey(id, level))
		if errors.Is(err, storage.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return false, nil, fmt.Errorf("read replica %d-%d: %w", id, level, err)
		}

		if len(replica) != want {
			corrupt = append(corrupt, ReplicaRef{Shard: id, Level: level})
			s.log.Warn().
				Int("shard", id).
				Int("level", level).
				Int("want", want).
				Int("got", len(replica)).
				Msg("replica rejected as restore source")
			continue
		}

		if err := s.data.Put(primaryKey(id), replica); err != nil {
			return false, nil, fmt.Errorf("restore shard %d: %w", id, err)
		}
		report.Restored = append(report.Restored, id)
		s.log.Info().Int("shard", id).Int("level", level).Msg("primary restored from replica")
		return true, corrupt, nil
	}
	return false, corrupt, nil
}
