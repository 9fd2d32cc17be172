// Package shard implements the topology core of shardkeeper: building a
// shard layout from a corpus, re-sharding it one shard at a time,
// managing replica levels, and the sync pass that keeps replicas equal to
// their primaries and rebuilds lost primaries.
//
// # Overview
//
// A corpus is partitioned into N contiguous shards. Each shard's bytes
// live in the data store under key "{id}"; each replica under
// "{id}-{level}". The index (package index) records every shard's byte
// range and the set of active replica levels, and is the sole authority:
// every operation loads it at the top, mutates state, and persists it
// once.
//
// # Components
//
//	┌────────────────────────────────────────────┐
//	│                 Manager                    │
//	│   BuildShards / AddShard / RemoveShard     │
//	│   AddReplication / RemoveReplication       │
//	│   SyncReplication / GetShardData           │
//	├──────────┬──────────┬───────────┬──────────┤
//	│ Sharder  │Resharder │Replicator │  Syncer  │
//	└──────────┴──────────┴───────────┴──────────┘
//	            │                      │
//	            ▼                      ▼
//	      storage.Store          index.Store
//
// Sharder: one-time bootstrap split. floor(len/count) bytes per shard,
// remainder appended to the tail shard.
//
// Resharder: grows or shrinks the count by one, rebuilding every shard
// from the reconstructed corpus. Re-sharding is destructive and not
// atomic; a mid-operation failure leaves an explicit rebuild obligation.
//
// Replicator: adds or removes one replica level uniformly across all
// shards. Levels are index metadata, contiguous from 1.
//
// Syncer: bounded fixed-point reconciliation. Primary wins over drifted
// replicas; a missing primary is rebuilt from the first replica whose
// length matches the index range; length-mismatched replicas are
// reported, not fatal. Every topology or replication change ends with a
// sync pass.
//
// # Concurrency
//
// Single logical writer, enforced by the caller. Nothing here locks
// across operations; concurrent mutation of the same namespaces corrupts
// the topology.
package shard
