// Command indexer builds and serves one namespace's local index shard:
// it loads the runtime configuration, opens (or creates) the Bleve
// index, and accepts index/delete/commit requests over HTTP.
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dzlab/searchcore/indexer"
	"github.com/dzlab/searchcore/internal/config"
	"github.com/dzlab/searchcore/internal/logging"
)

func main() {
	logger := logging.New("indexer")

	configPath := os.Getenv("SEARCHCORE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", configPath)
		os.Exit(1)
	}

	ns, ok := cfg.Schema.Namespace(cfg.Indexer.Namespace)
	if !ok {
		logger.Error("indexer.namespace not found in schema", "namespace", cfg.Indexer.Namespace)
		os.Exit(1)
	}

	var storage indexer.IndexSegmentStorage
	if cfg.Indexer.S3Bucket != "" {
		storage, err = indexer.NewS3Storage(cfg.Indexer.S3Bucket)
	} else {
		storage, err = indexer.NewLocalFileStorage(cfg.Indexer.StorageDir)
	}
	if err != nil {
		logger.Error("failed to initialize segment storage", "error", err)
		os.Exit(1)
	}

	idx, err := indexer.NewIndexer(cfg.Indexer.IndexPath, ns, cfg.Shard, cfg.Indexer.MicroShardIDs, storage)
	if err != nil {
		logger.Error("failed to initialize indexer", "error", err)
		os.Exit(1)
	}
	defer idx.Close()

	handler := &indexer.Handler{Indexer: idx}
	router := gin.Default()
	handler.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	logger.Info("indexer listening", "port", port, "namespace", ns.Name)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Error("indexer server stopped", "error", err)
		os.Exit(1)
	}
}
