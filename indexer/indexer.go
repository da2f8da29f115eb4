// Package indexer builds and maintains one namespace's local Bleve
// index shard: documents are routed by primary key to a micro-shard,
// indexed or deleted by primary key, and the committed index is
// periodically handed off to IndexSegmentStorage for distribution to
// the searchers that serve it.
package indexer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/dzlab/searchcore/schema"
)

// microShardIDField is the reserved field written onto every indexed
// document recording which micro-shard it was routed to, for operator
// visibility and consistency checks during reindexing.
const microShardIDField = "_microShardId"

// Indexer manages one namespace's Bleve index shard.
type Indexer struct {
	namespace     schema.Namespace
	shard         schema.ShardConfig
	microShardIDs map[int]struct{} // nil means this indexer accepts every micro-shard
	indexPath     string
	index         bleve.Index
	storage       IndexSegmentStorage
	mu            sync.Mutex
}

// NewIndexer opens or creates the Bleve index at indexPath, mapped from
// ns's typed field list. microShardIDs restricts which micro-shards this
// indexer instance will accept documents for; pass nil to accept all.
func NewIndexer(indexPath string, ns schema.Namespace, shard schema.ShardConfig, microShardIDs []int, storage IndexSegmentStorage) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index parent directory %s: %w", filepath.Dir(indexPath), err)
	}

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		log.Printf("Creating new index for namespace %s at %s", ns.Name, indexPath)
		index, err = bleve.New(indexPath, schema.ToBleveMapping(ns))
		if err != nil {
			return nil, fmt.Errorf("failed to create bleve index at %s: %w", indexPath, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open bleve index at %s: %w", indexPath, err)
	}

	log.Printf("Bleve index for namespace %s opened/created at %s", ns.Name, indexPath)

	var allowed map[int]struct{}
	if microShardIDs != nil {
		allowed = make(map[int]struct{}, len(microShardIDs))
		for _, id := range microShardIDs {
			allowed[id] = struct{}{}
		}
	}

	return &Indexer{
		namespace:     ns,
		shard:         shard,
		microShardIDs: allowed,
		indexPath:     indexPath,
		index:         index,
		storage:       storage,
	}, nil
}

// IndexDocument assigns doc's micro-shard from its primary key, rejects
// it if this indexer doesn't own that micro-shard, and adds or updates
// it in the index.
func (i *Indexer) IndexDocument(doc map[string]interface{}) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	pk, ok := doc[i.namespace.PrimaryKey].(string)
	if !ok || pk == "" {
		return fmt.Errorf("indexer: document missing string primary key %q", i.namespace.PrimaryKey)
	}

	microShardID := schema.MicroShardID(pk, i.shard.NumberOfMicroShards)
	if i.microShardIDs != nil {
		if _, owned := i.microShardIDs[microShardID]; !owned {
			return fmt.Errorf("indexer: document %s routes to micro-shard %d, not owned by this indexer", pk, microShardID)
		}
	}
	doc[microShardIDField] = microShardID

	log.Printf("Attempting to index document with ID: %s (micro-shard %d)", pk, microShardID)
	if err := i.index.Index(pk, doc); err != nil {
		log.Printf("Failed to index document %s: %v", pk, err)
		return fmt.Errorf("failed to index document %s: %w", pk, err)
	}
	log.Printf("Successfully indexed document with ID: %s", pk)
	return nil
}

// DeleteDocument removes a document from the index by primary key.
func (i *Indexer) DeleteDocument(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	log.Printf("Attempting to delete document with ID: %s", id)
	if err := i.index.Delete(id); err != nil {
		log.Printf("Failed to delete document %s: %v", id, err)
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	log.Printf("Successfully deleted document with ID: %s", id)
	return nil
}

// CommitAndUpload hands the index's current on-disk state to storage so
// searchers can pick up the new generation. Bleve flushes writes
// internally as they're made; this just triggers the distribution step.
func (i *Indexer) CommitAndUpload() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	log.Printf("Triggering upload of index data from %s", i.indexPath)
	if err := i.storage.UploadSegment(i.indexPath); err != nil {
		log.Printf("Error during segment upload: %v", err)
		return fmt.Errorf("failed to upload segment: %w", err)
	}
	log.Println("Segment upload complete.")
	return nil
}

// Close closes the underlying Bleve index.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	log.Printf("Closing bleve index at %s", i.indexPath)
	return i.index.Close()
}
