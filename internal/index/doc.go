// Package index maintains the persisted shard index for shardkeeper,
// serving as the authoritative record of data placement: the byte range
// each shard owns within the logical corpus, and the set of replica levels
// active across the topology.
//
// # Overview
//
// The corpus is never stored whole. It exists only as the concatenation of
// shard contents in ascending shard-id order, and the index is what makes
// that reconstruction possible. The ranges across all shards partition the
// corpus exactly: no gaps, no overlaps.
//
// # The index document
//
// The index persists as a single indented JSON document in its own store
// namespace, rewritten in full on every mutation and never patched
// incrementally:
//
//	{
//	  "shards": {
//	    "0": {"start": 0, "end": 2},
//	    "1": {"start": 2, "end": 4}
//	  },
//	  "replica_levels": [1, 2]
//	}
//
// Replica levels are document metadata rather than something discovered by
// probing storage for replica keys: the document says which levels exist,
// and the sync pass makes storage agree with it.
//
// # Ownership model
//
// Store.Load returns a fresh Mapping; Store.Save persists one whole. Every
// topology operation follows a load → mutate → persist boundary with the
// document as the sole authority; a Mapping held across operations is
// stale by definition.
//
// # Invariants
//
//   - Shard ids are dense: 0..N-1 for N shards.
//   - Ranges are contiguous in id order and cover the corpus exactly.
//   - Levels are contiguous starting at 1, shared by all shards.
//   - Index keys equal the set of primary shards physically present
//     (the sync pass restores this after a loss).
package index
