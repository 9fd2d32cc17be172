package shard

import "errors"

// Sentinel errors for the topology operations. Callers match these with
// errors.Is; returned values carry wrapped context about the failing
// shard or count.
var (
	// ErrAlreadySharded is returned by BuildShards when a topology
	// already exists. Growth goes through AddShard/RemoveShard.
	ErrAlreadySharded = errors.New("sharding already exists")

	// ErrInvalidShardCount is returned for a non-positive shard count or
	// one exceeding the corpus length, before anything is written.
	ErrInvalidShardCount = errors.New("invalid shard count")

	// ErrNotFound is returned when expected shard content is absent
	// during reconstruction or deletion. The operation aborts without
	// rollback; recovery is an explicit full rebuild.
	ErrNotFound = errors.New("shard content not found")

	// ErrNoReplicationToRemove is returned by RemoveReplication when
	// only primaries exist.
	ErrNoReplicationToRemove = errors.New("no replication level to remove")
)
