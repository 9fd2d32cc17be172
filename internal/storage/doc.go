// Package storage defines the key-value byte store that holds shard content
// and provides the concrete backends shardkeeper runs on.
//
// # Overview
//
// Everything the topology layer persists (primary shard content, replica
// copies, the index document) is a plain byte value addressed by a string
// key. The Store interface keeps that contract small so backends stay
// pluggable.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│      Topology Layer                 │
//	│  (Sharder, Resharder, Syncer)       │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│        Store Interface              │
//	│  Get / Put / Delete / Has / List    │
//	└─────────────────────────────────────┘
//	                 │
//	        ┌────────┴────────┐
//	        ▼                 ▼
//	   ┌─────────┐       ┌─────────┐
//	   │ Memory  │       │  File   │
//	   │ Store   │       │ Store   │
//	   └─────────┘       └─────────┘
//
// # Implementations
//
// MemoryStore: mutex-guarded map, values copied on the way in and out.
// Fast, ephemeral, the default for tests.
//
// FileStore: one file per key under a root directory, created on first
// write. Writes go through a temp file and rename so a value is either
// fully present or absent. Keys that could escape the root ("../x",
// anything with a path separator) are rejected with ErrInvalidKey.
//
// # Key scheme
//
// The topology layer addresses a shard's primary content at "{shardId}"
// and its replica at level L at "{shardId}-{L}". The index document lives
// in a separate store namespace so List over the data namespace returns
// exactly the shard content keys.
//
// # Concurrency
//
// Both backends are safe for concurrent use. Consistency across multiple
// keys is the caller's problem: the topology layer enforces a
// single-writer discipline and never relies on cross-key atomicity.
//
// # Error Handling
//
// ErrKeyNotFound: returned by Get when the key is absent. Delete of a
// missing key is idempotent and returns nil.
//
// ErrInvalidKey: returned by FileStore for keys unusable as file names.
package storage
