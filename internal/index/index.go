// Package index maintains the persisted shard index.
// See doc.go for complete package documentation.
package index

import (
	"golang.org/x/exp/slices"
)

// ByteRange is the half-open interval [Start, End) of the logical corpus
// owned by one shard.
type ByteRange struct {
	Start int `json:"start"` // First byte offset owned by the shard
	End   int `json:"end"`   // One past the last byte offset owned
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int {
	return r.End - r.Start
}

// Mapping is the authoritative record of the shard topology: the byte range
// of every shard plus the set of active replica levels. The persisted
// document is the single source of truth; any in-memory Mapping is a
// transient copy loaded at the top of an operation and discarded after it.
//
// Replica levels are global across the topology: every shard carries the
// same levels. Level 0 is implicit (the primary) and never appears in
// Levels.
type Mapping struct {
	// Shards maps each shard id to the byte range it owns.
	// Ids are dense: 0..N-1 for a topology of N shards.
	Shards map[int]ByteRange

	// Levels holds the active replica levels in ascending order,
	// contiguous starting at 1.
	Levels []int
}

// NewMapping returns an empty mapping with no shards and no replica levels.
func NewMapping() *Mapping {
	return &Mapping{Shards: make(map[int]ByteRange)}
}

// IsEmpty reports whether the mapping describes no shards.
func (m *Mapping) IsEmpty() bool {
	return len(m.Shards) == 0
}

// Count returns the number of shards.
func (m *Mapping) Count() int {
	return len(m.Shards)
}

// IDs returns all shard ids in ascending order.
// Ascending id order is the reconstruction order for the corpus.
func (m *Mapping) IDs() []int {
	ids := make([]int, 0, len(m.Shards))
	for id := range m.Shards {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaxID returns the highest shard id, or -1 for an empty mapping.
func (m *Mapping) MaxID() int {
	max := -1
	for id := range m.Shards {
		if id > max {
			max = id
		}
	}
	return max
}

// Range returns the byte range for a shard id.
func (m *Mapping) Range(id int) (ByteRange, bool) {
	r, ok := m.Shards[id]
	return r, ok
}

// MaxLevel returns the highest active replica level, or 0 when only
// primaries exist.
func (m *Mapping) MaxLevel() int {
	if len(m.Levels) == 0 {
		return 0
	}
	return slices.Max(m.Levels)
}

// NextLevel returns the replica level AddReplication would create.
func (m *Mapping) NextLevel() int {
	return m.MaxLevel() + 1
}

// AddLevel records a new active replica level, keeping Levels sorted.
func (m *Mapping) AddLevel(level int) {
	m.Levels = append(m.Levels, level)
	slices.Sort(m.Levels)
}

// RemoveLevel drops a replica level from the active set.
func (m *Mapping) RemoveLevel(level int) {
	if i := slices.Index(m.Levels, level); i >= 0 {
		m.Levels = slices.Delete(m.Levels, i, i+1)
	}
}
