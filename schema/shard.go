package schema

import "hash/fnv"

// ShardConfig fixes the number of shards and micro-shards for an index
// generation. M must be a multiple of S; the mapping is immutable for the
// lifetime of the generation.
type ShardConfig struct {
	NumberOfShards      int    `yaml:"numberOfShards"`
	NumberOfMicroShards int    `yaml:"numberOfMicroShards"`
	HashSourceKey       string `yaml:"hashSourceKey"`
}

// Validate checks M mod S == 0 and that both are positive.
func (c ShardConfig) Validate() error {
	if c.NumberOfShards <= 0 {
		return errShard("numberOfShards must be positive")
	}
	if c.NumberOfMicroShards <= 0 {
		return errShard("numberOfMicroShards must be positive")
	}
	if c.NumberOfMicroShards%c.NumberOfShards != 0 {
		return errShard("numberOfMicroShards must be a multiple of numberOfShards")
	}
	return nil
}

func errShard(msg string) error { return &shardConfigError{msg} }

type shardConfigError struct{ msg string }

func (e *shardConfigError) Error() string { return "schema: " + e.msg }

// MicroShardID computes the deterministic micro-shard id for a source key,
// using a stable FNV-1a hash modulo m. The same (key, m) pair always
// produces the same result, matching the stability invariant ingestion
// relies on.
func MicroShardID(key string, m int) int {
	if m <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum64() % uint64(m))
}

// ShardOf maps a micro-shard id to its owning shard given S shards and M
// micro-shards: shard = m / (M/S).
func ShardOf(microShardID, numberOfShards, numberOfMicroShards int) int {
	if numberOfShards <= 0 || numberOfMicroShards <= 0 {
		return 0
	}
	microShardsPerShard := numberOfMicroShards / numberOfShards
	if microShardsPerShard <= 0 {
		return 0
	}
	return microShardID / microShardsPerShard
}
