// Command broker runs the scatter-gather entry point: it loads the
// runtime configuration, dials every configured searcher replica, and
// serves client queries over HTTP.
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dzlab/searchcore/broker"
	"github.com/dzlab/searchcore/internal/config"
	"github.com/dzlab/searchcore/internal/logging"
	"github.com/dzlab/searchcore/shardselect"
)

func main() {
	logger := logging.New("broker")

	configPath := os.Getenv("SEARCHCORE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", configPath)
		os.Exit(1)
	}

	clients := make([]shardselect.Client, 0, len(cfg.Searchers))
	for _, ep := range cfg.Searchers {
		clients = append(clients, broker.NewHTTPSearcherClient(ep.ShardID, ep.MicroShardIDs, ep.Address, nil))
	}

	selector := &shardselect.Selector{Shard: cfg.Shard, Clients: clients}
	b := broker.NewBroker(&cfg.Schema, selector)
	handler := &broker.Handler{Broker: b}

	router := gin.Default()
	handler.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("broker listening", "port", port, "shards", len(cfg.Searchers))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Error("broker server stopped", "error", err)
		os.Exit(1)
	}
}
