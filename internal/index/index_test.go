package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/shardkeeper/internal/storage"
)

// TestMappingHelpers verifies the accessors the topology layer leans on.
func TestMappingHelpers(t *testing.T) {
	m := NewMapping()
	assert.True(t, m.IsEmpty())
	assert.Equal(t, -1, m.MaxID())
	assert.Equal(t, 0, m.MaxLevel())
	assert.Equal(t, 1, m.NextLevel())

	m.Shards[0] = ByteRange{Start: 0, End: 2}
	m.Shards[2] = ByteRange{Start: 4, End: 7}
	m.Shards[1] = ByteRange{Start: 2, End: 4}

	assert.False(t, m.IsEmpty())
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, []int{0, 1, 2}, m.IDs())
	assert.Equal(t, 2, m.MaxID())

	r, ok := m.Range(2)
	require.True(t, ok)
	assert.Equal(t, 3, r.Len())

	_, ok = m.Range(9)
	assert.False(t, ok)
}

// TestMappingLevels verifies replica-level bookkeeping stays sorted and
// contiguous.
func TestMappingLevels(t *testing.T) {
	m := NewMapping()

	m.AddLevel(m.NextLevel())
	m.AddLevel(m.NextLevel())
	assert.Equal(t, []int{1, 2}, m.Levels)
	assert.Equal(t, 2, m.MaxLevel())
	assert.Equal(t, 3, m.NextLevel())

	m.RemoveLevel(2)
	assert.Equal(t, []int{1}, m.Levels)

	m.RemoveLevel(7) // unknown level is a no-op
	assert.Equal(t, []int{1}, m.Levels)
}

// TestStoreLoadEmpty verifies Load on a fresh namespace returns an empty
// mapping rather than an error.
func TestStoreLoadEmpty(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())

	m, err := s.Load()
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
	assert.Empty(t, m.Levels)
}

// TestStoreRoundTrip verifies Save/Load preserve ranges and levels.
func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())

	m := NewMapping()
	m.Shards[0] = ByteRange{Start: 0, End: 2}
	m.Shards[1] = ByteRange{Start: 2, End: 5}
	m.AddLevel(1)

	require.NoError(t, s.Save(m))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, m.Shards, loaded.Shards)
	assert.Equal(t, []int{1}, loaded.Levels)
}

// TestStoreDocumentShape pins the persisted document format: string shard
// keys, start/end objects, explicit replica_levels.
func TestStoreDocumentShape(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := NewStore(kv)

	m := NewMapping()
	m.Shards[0] = ByteRange{Start: 0, End: 10}
	m.AddLevel(1)
	require.NoError(t, s.Save(m))

	raw, err := kv.Get("mapping")
	require.NoError(t, err)

	var doc struct {
		Shards        map[string]map[string]int `json:"shards"`
		ReplicaLevels []int                     `json:"replica_levels"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, map[string]int{"start": 0, "end": 10}, doc.Shards["0"])
	assert.Equal(t, []int{1}, doc.ReplicaLevels)
}

// TestStoreRejectsBadDocument verifies a corrupt index document surfaces
// as an error instead of a half-decoded mapping.
func TestStoreRejectsBadDocument(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Put("mapping", []byte(`{"shards": {"x": {"start": 0, "end": 1}}}`)))

	_, err := NewStore(kv).Load()
	assert.Error(t, err)

	require.NoError(t, kv.Put("mapping", []byte(`not json`)))
	_, err = NewStore(kv).Load()
	assert.Error(t, err)
}
