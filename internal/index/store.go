package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dreamware/shardkeeper/internal/storage"
)

// documentKey is the key the index document is stored under. The index
// lives in its own store namespace, separate from shard content.
const documentKey = "mapping"

// document is the on-disk shape of the index: shard ids as string keys
// (JSON object keys are strings) and the active replica levels.
type document struct {
	Shards        map[string]ByteRange `json:"shards"`
	ReplicaLevels []int                `json:"replica_levels,omitempty"`
}

// Store persists and loads the shard index document.
//
// The persisted document is the sole authority on topology. Every
// operation that reads or mutates topology calls Load at its top and
// threads the returned Mapping through to a single Save; no component
// trusts a Mapping cached across operations.
type Store struct {
	kv storage.Store
}

// NewStore creates an index store over the given KV namespace.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted mapping, or an empty mapping if none has
// been saved yet.
func (s *Store) Load() (*Mapping, error) {
	raw, err := s.kv.Get(documentKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return NewMapping(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	m := NewMapping()
	m.Levels = doc.ReplicaLevels
	for key, r := range doc.Shards {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("decode index: bad shard id %q", key)
		}
		m.Shards[id] = r
	}
	return m, nil
}

// Save overwrites the persisted index with the given mapping as a whole.
func (s *Store) Save(m *Mapping) error {
	doc := document{
		Shards:        make(map[string]ByteRange, len(m.Shards)),
		ReplicaLevels: m.Levels,
	}
	for id, r := range m.Shards {
		doc.Shards[strconv.Itoa(id)] = r
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := s.kv.Put(documentKey, raw); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}
