package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/pkg/retry"
)

// Config bounds the triplestore client's endpoint and traffic shape.
type Config struct {
	// Endpoint is the dataset base URL, e.g. http://fuseki:3030/anamnesis.
	// Inserts go to {Endpoint}/data (SPARQL 1.1 Graph Store protocol) and
	// queries to {Endpoint}/query.
	Endpoint string `yaml:"endpoint" env:"ANAMNESIS_STORE_ENDPOINT"`

	// Graph is the named graph inserts target; empty means the default
	// graph.
	Graph string `yaml:"graph" env:"ANAMNESIS_STORE_GRAPH"`

	// Timeout bounds each HTTP call.
	Timeout time.Duration `yaml:"timeout" env:"ANAMNESIS_STORE_TIMEOUT"`

	// InsertRate caps inserts per second; Burst allows short spikes.
	InsertRate float64 `yaml:"insert_rate" env:"ANAMNESIS_STORE_INSERT_RATE"`
	Burst      int     `yaml:"burst" env:"ANAMNESIS_STORE_BURST"`
}

// DefaultConfig returns production store client defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:    15 * time.Second,
		InsertRate: 20,
		Burst:      5,
	}
}

// Validate checks the store configuration.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: store endpoint is required", errors.ErrMissingConfig),
			"StoreConfig", "Validate", "endpoint check")
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: bad endpoint %q: %v", errors.ErrInvalidConfig, c.Endpoint, err),
			"StoreConfig", "Validate", "endpoint check")
	}
	if c.Timeout <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: timeout must be positive, got %v", errors.ErrInvalidConfig, c.Timeout),
			"StoreConfig", "Validate", "timeout check")
	}
	if c.InsertRate <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: insert_rate must be positive, got %v", errors.ErrInvalidConfig, c.InsertRate),
			"StoreConfig", "Validate", "rate check")
	}
	if c.Burst <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: burst must be positive, got %d", errors.ErrInvalidConfig, c.Burst),
			"StoreConfig", "Validate", "burst check")
	}
	return nil
}

// Client talks to a remote SPARQL triplestore. Inserts are idempotent at
// the RDF level (re-asserting a triple is a no-op), so transient network
// failures are retried here; business failures never are.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config
	logger     *slog.Logger

	// Statistics (atomic)
	inserts  int64
	queries  int64
	rejected int64
}

// Option configures a Client at construction.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetryConfig overrides the transient-failure retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryCfg = cfg
	}
}

// NewClient validates the configuration and builds a client.
func NewClient(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.InsertRate), config.Burst),
		retryCfg:   retry.DefaultConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Insert asserts a batch of N-Triples into the configured graph via the
// SPARQL 1.1 Graph Store protocol.
func (c *Client) Insert(ctx context.Context, ntriples string) error {
	if strings.TrimSpace(ntriples) == "" {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "StoreClient", "Insert", "rate limit wait")
	}

	insertURL := c.config.Endpoint + "/data"
	if c.config.Graph != "" {
		insertURL += "?graph=" + url.QueryEscape(c.config.Graph)
	} else {
		insertURL += "?default"
	}

	err := retry.Do(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, insertURL, strings.NewReader(ntriples))
		if err != nil {
			return retry.NonRetryable(err)
		}
		req.Header.Set("Content-Type", "application/n-triples")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		return c.checkStatus(resp)
	})
	if err != nil {
		if errors.Is(err, errors.ErrStoreRejected) {
			return errors.WrapInvalid(err, "StoreClient", "Insert", "graph store POST")
		}
		return errors.WrapTransient(err, "StoreClient", "Insert", "graph store POST")
	}

	atomic.AddInt64(&c.inserts, 1)
	return nil
}

// Query runs a SPARQL query and decodes the SPARQL JSON results.
func (c *Client) Query(ctx context.Context, sparql string) (*QueryResult, error) {
	result, err := retry.DoWithResult(ctx, c.retryCfg, func() (*QueryResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.Endpoint+"/query", strings.NewReader(sparql))
		if err != nil {
			return nil, retry.NonRetryable(err)
		}
		req.Header.Set("Content-Type", "application/sparql-query")
		req.Header.Set("Accept", "application/sparql-results+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if err := c.checkStatus(resp); err != nil {
			return nil, err
		}

		var decoded QueryResult
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, retry.NonRetryable(
				fmt.Errorf("%w: undecodable results: %v", errors.ErrStoreRejected, err))
		}
		return &decoded, nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrStoreRejected) {
			return nil, errors.WrapInvalid(err, "StoreClient", "Query", "sparql POST")
		}
		return nil, errors.WrapTransient(err, "StoreClient", "Query", "sparql POST")
	}

	atomic.AddInt64(&c.queries, 1)
	return result, nil
}

// checkStatus maps HTTP status classes onto the store error taxonomy:
// 5xx is a transient availability failure, other non-2xx is a permanent
// rejection of the request itself.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d: %s", errors.ErrStoreUnavailable, resp.StatusCode, body)
	}

	atomic.AddInt64(&c.rejected, 1)
	return retry.NonRetryable(
		fmt.Errorf("%w: status %d: %s", errors.ErrStoreRejected, resp.StatusCode, body))
}

// Stats returns a snapshot of client activity.
func (c *Client) Stats() Stats {
	return Stats{
		Inserts:  atomic.LoadInt64(&c.inserts),
		Queries:  atomic.LoadInt64(&c.queries),
		Rejected: atomic.LoadInt64(&c.rejected),
	}
}

// Stats is a point-in-time view of store client activity.
type Stats struct {
	Inserts  int64 `json:"inserts"`
	Queries  int64 `json:"queries"`
	Rejected int64 `json:"rejected"`
}
