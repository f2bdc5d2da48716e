// Package entropy provides the random sources the simulation draws from:
// seeded and scripted sources for reproducible runs, and true randomness via
// random.org with a crypto/rand fallback when the API is unavailable.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	defaultEndpoint = "https://api.random.org/json-rpc/4/invoke"
	defaultBatch    = 100
	lowWater        = 10 // Refill when the pool drops below this
	refillTimeout   = 15 * time.Second
	failureBackoff  = time.Minute
)

// Client is a Source of true random numbers from random.org, drawn from a
// local pool. Draws never wait on the network: a low pool is refilled in the
// background, and an empty one falls back to crypto/rand. After a failed
// refill the client waits a minute before asking again.
type Client struct {
	apiKey   string
	endpoint string
	batch    int
	client   *http.Client

	mu        sync.Mutex
	pool      []float64
	refilling bool
	failedAt  time.Time
	fallbacks int
	inflight  sync.WaitGroup
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithEndpoint points the client at a different JSON-RPC URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithBatch sets how many numbers each refill requests.
func WithBatch(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.batch = n
		}
	}
}

// NewClient creates a random.org client. Returns nil if apiKey is empty; a
// nil client still works as a Source backed by crypto/rand.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	if apiKey == "" {
		return nil
	}
	c := &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		batch:    defaultBatch,
		client:   &http.Client{Timeout: refillTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Fill fetches one batch synchronously. Call it at startup, before anything
// draws on a hot path.
func (c *Client) Fill(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	values, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failedAt = time.Now()
		return err
	}
	c.pool = append(c.pool, values...)
	return nil
}

// Float64 returns a random float64 in [0, 1) from the pool, starting a
// background refill when the pool runs low.
func (c *Client) Float64() float64 {
	if !c.Enabled() {
		return cryptoRandFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < lowWater && !c.refilling && time.Since(c.failedAt) >= failureBackoff {
		c.refilling = true
		c.inflight.Add(1)
		go c.refill()
	}

	if len(c.pool) == 0 {
		c.fallbacks++
		return cryptoRandFloat()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

// Wait blocks until any background refill has finished.
func (c *Client) Wait() {
	if c == nil {
		return
	}
	c.inflight.Wait()
}

func (c *Client) refill() {
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), refillTimeout)
	values, err := c.fetch(ctx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refilling = false
	if err != nil {
		c.failedAt = time.Now()
		slog.Debug("random.org refill failed", "error", err)
		return
	}
	c.pool = append(c.pool, values...)
	slog.Debug("random.org pool refilled", "count", len(values), "pool", len(c.pool))
}

// Fallbacks returns how many draws were served by crypto/rand because the
// pool was empty.
func (c *Client) Fallbacks() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fallbacks
}

// fetch requests a batch of decimal fractions and returns the in-range ones.
// It does not touch the pool.
func (c *Client) fetch(ctx context.Context) ([]float64, error) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        c.apiKey,
			"n":             c.batch,
			"decimalPlaces": 10,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("api: %s", result.Error.Message)
	}

	values := make([]float64, 0, len(result.Result.Random.Data))
	for _, v := range result.Result.Random.Data {
		if v >= 0 && v < 1 {
			values = append(values, v)
		}
	}
	return values, nil
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
