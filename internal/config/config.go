// Package config loads and validates the runtime configuration for the
// broker, searcher and indexer binaries: sharding, concurrency and
// deadline defaults, and the schema itself.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/dzlab/searchcore/schema"
)

// Concurrency bounds the resources a single searcher process grants a
// request.
type Concurrency struct {
	AvailableParallelismMultiplier int           `yaml:"availableParallelismMultiplier"`
	QueueTimeout                   time.Duration `yaml:"queueTimeout"`
}

// Deadlines carries the default per-request deadline applied when a
// client doesn't supply one.
type Deadlines struct {
	Default time.Duration `yaml:"default"`
}

// Join bounds recursive join-query evaluation.
type Join struct {
	MaxInnerCardinality int `yaml:"maxInnerCardinality"`
	MaxDepth            int `yaml:"maxDepth"`
}

// SearcherEndpoint names one shard's searcher replica, for the broker
// binary to dial.
type SearcherEndpoint struct {
	ShardID       int    `yaml:"shardId"`
	MicroShardIDs []int  `yaml:"microShardIds"`
	Address       string `yaml:"address"`
}

// IndexerConfig is only required by the indexer binary: which namespace
// it builds, where its local index lives, and where to distribute
// committed segments once built.
type IndexerConfig struct {
	Namespace     string `yaml:"namespace"`
	IndexPath     string `yaml:"indexPath"`
	MicroShardIDs []int  `yaml:"microShardIds"`
	StorageDir    string `yaml:"storageDir,omitempty"`
	S3Bucket      string `yaml:"s3Bucket,omitempty"`
}

// Configuration is the root structure for the query core's runtime
// configuration.
type Configuration struct {
	Schema      schema.Schema      `yaml:"schema"`
	Shard       schema.ShardConfig `yaml:"shard"`
	Concurrency Concurrency        `yaml:"concurrency"`
	Deadlines   Deadlines          `yaml:"deadlines"`
	Join        Join               `yaml:"join"`

	// Searchers is only required by the broker binary, naming each
	// shard's replica address to dial.
	Searchers []SearcherEndpoint `yaml:"searchers,omitempty"`

	// SnapshotPaths is only required by the searcher binary: the local
	// index snapshot path to open for each namespace this shard serves.
	SnapshotPaths map[string]string `yaml:"snapshotPaths,omitempty"`

	// Indexer is only required by the indexer binary.
	Indexer IndexerConfig `yaml:"indexer,omitempty"`
}

// Load reads a YAML configuration file from path and validates it.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the structural invariants of a Configuration: one
// explicit check per violation, each wrapped with context.
func Validate(cfg *Configuration) error {
	if cfg == nil {
		return fmt.Errorf("config: configuration cannot be nil")
	}
	if err := schema.Validate(&cfg.Schema); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Shard.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Concurrency.AvailableParallelismMultiplier <= 0 {
		return fmt.Errorf("config: concurrency.availableParallelismMultiplier must be positive")
	}
	if cfg.Join.MaxInnerCardinality <= 0 {
		return fmt.Errorf("config: join.maxInnerCardinality must be positive")
	}
	if cfg.Join.MaxDepth <= 0 {
		return fmt.Errorf("config: join.maxDepth must be positive")
	}
	if cfg.Deadlines.Default <= 0 {
		return fmt.Errorf("config: deadlines.default must be positive")
	}
	for i, ep := range cfg.Searchers {
		if ep.Address == "" {
			return fmt.Errorf("config: searchers[%d].address must not be empty", i)
		}
	}
	if cfg.Indexer.Namespace != "" {
		if cfg.Indexer.IndexPath == "" {
			return fmt.Errorf("config: indexer.indexPath must not be empty")
		}
		if cfg.Indexer.StorageDir == "" && cfg.Indexer.S3Bucket == "" {
			return fmt.Errorf("config: indexer requires either storageDir or s3Bucket")
		}
	}
	return nil
}
