// Package config loads the shardd daemon configuration from an optional
// YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything shardd needs to start.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// DataDir is the directory holding shard and replica content.
	DataDir string `yaml:"data_dir"`

	// IndexDir is the directory holding the index document. Kept
	// separate from DataDir so the data namespace contains exactly the
	// shard content keys.
	IndexDir string `yaml:"index_dir"`

	// CorpusPath, when set, is a file to bootstrap the topology from at
	// startup if no topology exists yet.
	CorpusPath string `yaml:"corpus_path"`

	// ShardCount is the shard count used when bootstrapping from
	// CorpusPath.
	ShardCount int `yaml:"shard_count"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		DataDir:    "data",
		IndexDir:   "index",
		ShardCount: 5,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist), applies environment overrides, and validates.
//
// Overrides: SHARDD_ADDR, SHARDD_DATA_DIR, SHARDD_INDEX_DIR,
// SHARDD_CORPUS, SHARDD_SHARDS.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.ListenAddr = getenv("SHARDD_ADDR", cfg.ListenAddr)
	cfg.DataDir = getenv("SHARDD_DATA_DIR", cfg.DataDir)
	cfg.IndexDir = getenv("SHARDD_INDEX_DIR", cfg.IndexDir)
	cfg.CorpusPath = getenv("SHARDD_CORPUS", cfg.CorpusPath)
	if v := os.Getenv("SHARDD_SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse SHARDD_SHARDS: %w", err)
		}
		cfg.ShardCount = n
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr must not be empty")
	}
	if c.DataDir == "" || c.IndexDir == "" {
		return fmt.Errorf("config: data_dir and index_dir must not be empty")
	}
	if c.DataDir == c.IndexDir {
		return fmt.Errorf("config: data_dir and index_dir must differ")
	}
	if c.ShardCount <= 0 {
		return fmt.Errorf("config: shard_count must be positive, got %d", c.ShardCount)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
