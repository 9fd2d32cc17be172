package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dreamware/shardkeeper/internal/api"
	"github.com/dreamware/shardkeeper/internal/shard"
)

// server carries the daemon's handler state. The mutex enforces the
// single-writer discipline the topology core requires: one mutating
// operation at a time, reads excluded while a mutation runs.
type server struct {
	mu  sync.RWMutex
	mgr *shard.Manager
	log zerolog.Logger
}

func newServer(mgr *shard.Manager, log zerolog.Logger) *server {
	return &server{mgr: mgr, log: log}
}

// statusFor maps topology errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shard.ErrInvalidShardCount):
		return http.StatusBadRequest
	case errors.Is(err, shard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shard.ErrAlreadySharded),
		errors.Is(err, shard.ErrNoReplicationToRemove):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) fail(w http.ResponseWriter, err error) {
	s.log.Warn().Err(err).Msg("operation failed")
	http.Error(w, err.Error(), statusFor(err))
}

// handleTopology serves GET /shards.
func (s *server) handleTopology(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.mgr.GetAllShardData()
	if err != nil {
		s.fail(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(info)
}

// handleShardPath routes /shards/build, /shards/add, /shards/remove and
// /shards/{id}.
func (s *server) handleShardPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/shards/")
	switch rest {
	case "build":
		s.handleBuild(w, r)
	case "add":
		s.mutate(w, r, s.mgr.AddShard)
	case "remove":
		s.mutate(w, r, s.mgr.RemoveShard)
	default:
		s.handleShardByID(w, r, rest)
	}
}

func (s *server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req api.BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mgr.BuildShards(req.Count, req.Corpus); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutate runs a no-argument topology mutation under the write lock.
func (s *server) mutate(w http.ResponseWriter, r *http.Request, op func() error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleShardByID(w http.ResponseWriter, r *http.Request, rest string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.Atoi(rest)
	if err != nil || id < 0 {
		http.Error(w, "bad shard id", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.mgr.GetShardData(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(info)
}

// handleAddReplication serves POST /replication/add.
func (s *server) handleAddReplication(w http.ResponseWriter, r *http.Request) {
	s.replication(w, r, s.mgr.AddReplication)
}

// handleRemoveReplication serves POST /replication/remove.
func (s *server) handleRemoveReplication(w http.ResponseWriter, r *http.Request) {
	s.replication(w, r, s.mgr.RemoveReplication)
}

func (s *server) replication(w http.ResponseWriter, r *http.Request, op func() (int, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	level, err := op()
	if err != nil {
		s.fail(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(api.LevelResponse{Level: level})
}

// handleSync serves POST /sync and returns the repair report.
func (s *server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.mgr.SyncReplication()
	if err != nil {
		s.fail(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(report)
}

// handleVerify serves GET /verify: checks the data namespace against the
// index and reports divergence as a conflict.
func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.mgr.Verify(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		OK bool `json:"ok"`
	}{OK: true})
}

// handleStats serves GET /stats with data-namespace storage statistics.
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.mgr.Stats()
	_ = json.NewEncoder(w).Encode(struct {
		Keys  int `json:"keys"`
		Bytes int `json:"bytes"`
	}{Keys: stats.Keys, Bytes: stats.Bytes})
}

// handleCorpus serves GET /corpus: the corpus reconstructed from the
// current primaries.
func (s *server) handleCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	corpus, err := s.mgr.Corpus()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(corpus)
}
