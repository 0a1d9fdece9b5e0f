// Package config provides application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-based configuration.
type Config struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 5004)
	Port int `envconfig:"PORT" default:"5004"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// DBURL is the relational source connection URL.
	// Env: DB_URL
	DBURL string `envconfig:"DB_URL" default:"postgres://postgres:1@localhost:5432/postgres"`

	// QdrantHost is the vector index host.
	// Env: QDRANT_HOST (default: localhost)
	QdrantHost string `envconfig:"QDRANT_HOST" default:"localhost"`

	// QdrantPort is the vector index gRPC port.
	// Env: QDRANT_PORT (default: 6334)
	QdrantPort int `envconfig:"QDRANT_PORT" default:"6334"`

	// Collection is the vector index collection name.
	// Env: QDRANT_COLLECTION (default: item_embeddings)
	Collection string `envconfig:"QDRANT_COLLECTION" default:"item_embeddings"`

	// ModelDir is where the local ONNX encoder lives.
	// Env: MODEL_DIR (default: models)
	ModelDir string `envconfig:"MODEL_DIR" default:"models"`

	// EmbeddingEndpoint configures a remote OpenAI-compatible encoder.
	// When a model is set it takes precedence over the local encoder.
	EmbeddingEndpoint EndpointConfig `envconfig:"EMBEDDING_ENDPOINT"`

	// SyncBatchSize is the source reader batch size.
	// Env: SYNC_BATCH_SIZE (default: 10)
	SyncBatchSize int `envconfig:"SYNC_BATCH_SIZE" default:"10"`

	// ScrollLimit bounds the single-shot index scan during a sync.
	// Env: SCROLL_LIMIT (default: 10000)
	ScrollLimit int `envconfig:"SCROLL_LIMIT" default:"10000"`

	// SearchTopK is how many record ids a retrieval returns.
	// Env: SEARCH_TOP_K (default: 4)
	SearchTopK int `envconfig:"SEARCH_TOP_K" default:"4"`

	// PeriodicSync configures background resyncs.
	PeriodicSync PeriodicSyncConfig `envconfig:"PERIODIC_SYNC"`
}

// EndpointConfig holds environment configuration for the remote encoder.
type EndpointConfig struct {
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Env: EMBEDDING_ENDPOINT_TIMEOUT (seconds, default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`
}

// IsConfigured returns true if the remote encoder has a model configured.
func (e EndpointConfig) IsConfigured() bool {
	return e.Model != ""
}

// TimeoutDuration returns the request timeout as a Duration.
func (e EndpointConfig) TimeoutDuration() time.Duration {
	return time.Duration(e.Timeout * float64(time.Second))
}

// PeriodicSyncConfig holds environment configuration for background resyncs.
type PeriodicSyncConfig struct {
	// Env: PERIODIC_SYNC_ENABLED (default: false)
	Enabled bool `envconfig:"ENABLED" default:"false"`

	// Env: PERIODIC_SYNC_INTERVAL_SECONDS (default: 1800)
	IntervalSeconds float64 `envconfig:"INTERVAL_SECONDS" default:"1800"`
}

// Interval returns the resync interval as a Duration.
func (p PeriodicSyncConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds * float64(time.Second))
}

// Addr returns the host:port the server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
