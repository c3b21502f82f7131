package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/pkg/retry"
)

func testConfig(endpoint string) Config {
	config := DefaultConfig()
	config.Endpoint = endpoint
	config.InsertRate = 1000
	config.Burst = 100
	return config
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, errors.ErrMissingConfig},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, errors.ErrInvalidConfig},
		{"zero rate", func(c *Config) { c.InsertRate = 0 }, errors.ErrInvalidConfig},
		{"zero burst", func(c *Config) { c.Burst = 0 }, errors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig("http://localhost:3030/ds")
			tt.mutate(&config)
			_, err := NewClient(config)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInsertPostsNTriples(t *testing.T) {
	var gotBody, gotPath, gotQuery, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	ntriples := "<http://a> <http://b> \"c\" .\n"
	require.NoError(t, client.Insert(context.Background(), ntriples))

	assert.Equal(t, "/data", gotPath)
	assert.Equal(t, "default", gotQuery)
	assert.Equal(t, "application/n-triples", gotContentType)
	assert.Equal(t, ntriples, gotBody)
	assert.Equal(t, int64(1), client.Stats().Inserts)
}

func TestInsertTargetsNamedGraph(t *testing.T) {
	var gotGraph string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGraph = r.URL.Query().Get("graph")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Graph = "https://anamnesis.hyperpolymath.io/graph/main"
	client, err := NewClient(config)
	require.NoError(t, err)

	require.NoError(t, client.Insert(context.Background(), "<http://a> <http://b> <http://c> .\n"))
	assert.Equal(t, config.Graph, gotGraph)
}

func TestInsertSkipsEmptyBatch(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:1/unreachable"))
	require.NoError(t, err)

	assert.NoError(t, client.Insert(context.Background(), "  \n"))
	assert.Zero(t, client.Stats().Inserts)
}

func TestInsertRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	require.NoError(t, client.Insert(context.Background(), "<http://a> <http://b> <http://c> .\n"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInsertDoesNotRetryRejection(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad triples", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	err = client.Insert(context.Background(), "<http://a> <http://b> <http://c> .\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStoreRejected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "rejections are permanent, not retried")
	assert.Equal(t, int64(1), client.Stats().Rejected)
}

func TestInsertUnavailableAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	err = client.Insert(context.Background(), "<http://a> <http://b> <http://c> .\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
	assert.True(t, errors.IsTransient(err))
}

func TestQueryDecodesBindings(t *testing.T) {
	const results = `{
		"head": {"vars": ["conv"]},
		"results": {"bindings": [
			{"conv": {"type": "uri", "value": "https://anamnesis.hyperpolymath.io/entity/conversation/c1"}},
			{"conv": {"type": "uri", "value": "https://anamnesis.hyperpolymath.io/entity/conversation/c2"}}
		]}
	}`

	var gotQuery, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotQuery = string(body)
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(results))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	sparql := "SELECT ?conv WHERE { ?conv a <https://anamnesis.hyperpolymath.io/ontology#Conversation> }"
	result, err := client.Query(context.Background(), sparql)
	require.NoError(t, err)

	assert.Equal(t, sparql, gotQuery)
	assert.Equal(t, "application/sparql-results+json", gotAccept)
	assert.Equal(t, []string{"conv"}, result.Head.Vars)
	require.Len(t, result.Results.Bindings, 2)
	assert.Equal(t, []string{
		"https://anamnesis.hyperpolymath.io/entity/conversation/c1",
		"https://anamnesis.hyperpolymath.io/entity/conversation/c2",
	}, result.Var("conv"))
}

func TestQueryMalformedResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	_, err = client.Query(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStoreRejected)
}
