package shard

import (
	"errors"
	"fmt"

	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/storage"
)

// loadCorpus reconstructs the logical corpus by concatenating primary
// shard contents in ascending id order. A missing primary aborts with
// ErrNotFound naming the shard.
func loadCorpus(data storage.Store, m *index.Mapping) ([]byte, error) {
	size := 0
	for _, r := range m.Shards {
		size += r.Len()
	}

	corpus := make([]byte, 0, size)
	for _, id := range m.IDs() {
		content, err := data.Get(primaryKey(id))
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: primary %d", ErrNotFound, id)
		}
		if err != nil {
			return nil, fmt.Errorf("read shard %d: %w", id, err)
		}
		corpus = append(corpus, content...)
	}
	return corpus, nil
}
