// Command searcher runs one shard's query engine: it loads the runtime
// configuration, lazily opens this shard's namespace snapshots, and
// serves broker fan-out requests over HTTP.
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dzlab/searchcore/internal/config"
	"github.com/dzlab/searchcore/internal/logging"
	"github.com/dzlab/searchcore/join"
	"github.com/dzlab/searchcore/searcher"
	"github.com/dzlab/searchcore/segindex/blv"
)

func main() {
	logger := logging.New("searcher")

	configPath := os.Getenv("SEARCHCORE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", configPath)
		os.Exit(1)
	}

	source := &searcher.SnapshotSource{Open: blv.OpenSnapshot, Paths: cfg.SnapshotPaths}
	defer source.Close()

	executor := &join.Executor{
		Schema:              &cfg.Schema,
		Segments:            source,
		MaxInnerCardinality: cfg.Join.MaxInnerCardinality,
		MaxDepth:            cfg.Join.MaxDepth,
	}
	service := &searcher.Service{
		Schema:          &cfg.Schema,
		Executor:        executor,
		DefaultDeadline: cfg.Deadlines.Default,
		Concurrency:     cfg.Concurrency,
		Logger:          logger,
	}
	handler := &searcher.Handler{Service: service}

	router := gin.Default()
	handler.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("searcher listening", "port", port, "namespaces", len(cfg.SnapshotPaths))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Error("searcher server stopped", "error", err)
		os.Exit(1)
	}
}
