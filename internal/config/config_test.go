package config

import (
	"testing"
	"time"

	"github.com/dzlab/searchcore/schema"
)

func validConfig() *Configuration {
	return &Configuration{
		Schema: schema.Schema{Namespaces: map[string]schema.Namespace{
			"products": {
				Name:       "products",
				PrimaryKey: "id",
				Fields:     []schema.Field{{Name: "id", Type: schema.String}},
			},
		}},
		Shard:       schema.ShardConfig{NumberOfShards: 2, NumberOfMicroShards: 8},
		Concurrency: Concurrency{AvailableParallelismMultiplier: 4, QueueTimeout: time.Second},
		Deadlines:   Deadlines{Default: 2 * time.Second},
		Join:        Join{MaxInnerCardinality: 10_000, MaxDepth: 4},
	}
}

func TestValidate_Accepts(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid configuration, got %v", err)
	}
}

func TestValidate_RejectsBadShardConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Shard.NumberOfMicroShards = 3 // not a multiple of NumberOfShards=2
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for a non-multiple micro-shard count")
	}
}

func TestValidate_RejectsMissingDeadline(t *testing.T) {
	cfg := validConfig()
	cfg.Deadlines.Default = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for a zero default deadline")
	}
}

func TestValidate_RejectsInvalidSchema(t *testing.T) {
	cfg := validConfig()
	cfg.Schema = schema.Schema{}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an empty schema")
	}
}

func TestValidate_RejectsSearcherEndpointWithoutAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Searchers = []SearcherEndpoint{{ShardID: 0, Address: ""}}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for a searcher endpoint with no address")
	}
}

func TestValidate_RejectsIndexerWithoutStorageTarget(t *testing.T) {
	cfg := validConfig()
	cfg.Indexer = IndexerConfig{Namespace: "products", IndexPath: "/tmp/products-index"}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an indexer with neither storageDir nor s3Bucket")
	}
}

func TestValidate_AcceptsIndexerWithStorageDir(t *testing.T) {
	cfg := validConfig()
	cfg.Indexer = IndexerConfig{Namespace: "products", IndexPath: "/tmp/products-index", StorageDir: "/tmp/segments"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid configuration, got %v", err)
	}
}
