// Package api defines the wire types of the shardd HTTP surface and a
// JSON-over-HTTP client for drivers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dreamware/shardkeeper/internal/shard"
)

// BuildRequest is the body of POST /shards/build.
type BuildRequest struct {
	Count  int    `json:"count"`
	Corpus []byte `json:"corpus"`
}

// LevelResponse reports the replica level an operation added or removed.
type LevelResponse struct {
	Level int `json:"level"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON posts body as JSON to url and decodes the response into out
// (skipped when out is nil). Non-2xx statuses become errors carrying the
// response text.
func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON fetches url and decodes the JSON response into out.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Client drives a shardd daemon over HTTP.
type Client struct {
	base string
}

// NewClient creates a client for the daemon at base (e.g.
// "http://localhost:8080").
func NewClient(base string) *Client {
	return &Client{base: base}
}

// BuildShards bootstraps the topology.
func (c *Client) BuildShards(ctx context.Context, count int, corpus []byte) error {
	return PostJSON(ctx, c.base+"/shards/build", BuildRequest{Count: count, Corpus: corpus}, nil)
}

// AddShard grows the topology by one shard.
func (c *Client) AddShard(ctx context.Context) error {
	return PostJSON(ctx, c.base+"/shards/add", struct{}{}, nil)
}

// RemoveShard shrinks the topology by one shard.
func (c *Client) RemoveShard(ctx context.Context) error {
	return PostJSON(ctx, c.base+"/shards/remove", struct{}{}, nil)
}

// AddReplication adds a replica level and returns it.
func (c *Client) AddReplication(ctx context.Context) (int, error) {
	var out LevelResponse
	if err := PostJSON(ctx, c.base+"/replication/add", struct{}{}, &out); err != nil {
		return 0, err
	}
	return out.Level, nil
}

// RemoveReplication removes the highest replica level and returns it.
func (c *Client) RemoveReplication(ctx context.Context) (int, error) {
	var out LevelResponse
	if err := PostJSON(ctx, c.base+"/replication/remove", struct{}{}, &out); err != nil {
		return 0, err
	}
	return out.Level, nil
}

// Sync runs a sync pass and returns its report.
func (c *Client) Sync(ctx context.Context) (*shard.SyncReport, error) {
	var out shard.SyncReport
	if err := PostJSON(ctx, c.base+"/sync", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Topology returns the full shard topology.
func (c *Client) Topology(ctx context.Context) (*shard.TopologyInfo, error) {
	var out shard.TopologyInfo
	if err := GetJSON(ctx, c.base+"/shards", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the daemon to check storage against the index. A
// divergent topology comes back as an error.
func (c *Client) Verify(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	return GetJSON(ctx, c.base+"/verify", &out)
}

// Shard returns one shard's index entry.
func (c *Client) Shard(ctx context.Context, id int) (shard.ShardInfo, error) {
	var out shard.ShardInfo
	if err := GetJSON(ctx, fmt.Sprintf("%s/shards/%d", c.base, id), &out); err != nil {
		return shard.ShardInfo{}, err
	}
	return out, nil
}
