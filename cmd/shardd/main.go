// Package main implements shardd, the shardkeeper daemon: it owns the
// shard topology on local storage and exposes the topology operations
// over HTTP.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                shardd                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    POST /shards/build    - bootstrap    │
//	│    POST /shards/add      - grow by one  │
//	│    POST /shards/remove   - shrink by one│
//	│    POST /replication/add    - new level │
//	│    POST /replication/remove - drop level│
//	│    POST /sync            - repair pass  │
//	│    GET  /shards          - topology     │
//	│    GET  /shards/{id}     - one shard    │
//	│    GET  /corpus          - reconstruct  │
//	│    GET  /verify          - consistency  │
//	│    GET  /stats           - storage size │
//	│    GET  /health          - liveness     │
//	├─────────────────────────────────────────┤
//	│  shard.Manager over two FileStores      │
//	│  (data namespace + index namespace)     │
//	└─────────────────────────────────────────┘
//
// Configuration (YAML file named by SHARDD_CONFIG, each field overridable
// by environment):
//   - SHARDD_ADDR: listen address (default ":8080")
//   - SHARDD_DATA_DIR: shard content directory (default "data")
//   - SHARDD_INDEX_DIR: index document directory (default "index")
//   - SHARDD_CORPUS: optional corpus file to bootstrap from at startup
//   - SHARDD_SHARDS: shard count for that bootstrap (default 5)
//
// Example usage:
//
//	SHARDD_CORPUS=chapter2.txt SHARDD_SHARDS=5 ./shardd
//
//	curl -X POST localhost:8080/replication/add
//	curl -X POST localhost:8080/sync
//	curl localhost:8080/shards
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/shardkeeper/internal/config"
	"github.com/dreamware/shardkeeper/internal/index"
	"github.com/dreamware/shardkeeper/internal/shard"
	"github.com/dreamware/shardkeeper/internal/storage"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("SHARDD_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	data := storage.NewFileStore(cfg.DataDir)
	idx := index.NewStore(storage.NewFileStore(cfg.IndexDir))
	srv := newServer(shard.NewManager(data, idx, logger), logger)

	if cfg.CorpusPath != "" {
		if err := bootstrap(srv.mgr, cfg, logger); err != nil {
			logger.Fatal().Err(err).Msg("bootstrap")
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/shards", srv.handleTopology)
	mux.HandleFunc("/shards/", srv.handleShardPath)
	mux.HandleFunc("/replication/add", srv.handleAddReplication)
	mux.HandleFunc("/replication/remove", srv.handleRemoveReplication)
	mux.HandleFunc("/sync", srv.handleSync)
	mux.HandleFunc("/corpus", srv.handleCorpus)
	mux.HandleFunc("/verify", srv.handleVerify)
	mux.HandleFunc("/stats", srv.handleStats)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("shardd listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	logger.Info().Msg("shardd stopped")
}

// bootstrap builds the initial topology from the configured corpus file
// when none exists yet. An already-built topology is left alone.
func bootstrap(mgr *shard.Manager, cfg config.Config, logger zerolog.Logger) error {
	corpus, err := os.ReadFile(cfg.CorpusPath)
	if err != nil {
		return err
	}

	err = mgr.BuildShards(cfg.ShardCount, corpus)
	if errors.Is(err, shard.ErrAlreadySharded) {
		logger.Info().Msg("topology already built, skipping bootstrap")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("corpus", cfg.CorpusPath).
		Int("shards", cfg.ShardCount).
		Msg("topology bootstrapped")
	return nil
}
