package client

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/api"
	"github.com/wolfeidau/openbusser/internal/logger"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration

	// CacheDir persists cacheable GET responses across runs; empty uses memory.
	CacheDir string
}

// New creates an API client with the given configuration
func New(config Config) *api.Client {
	return api.New(config.ServerURL, NewHTTPClient(config))
}

// NewHTTPClient builds the transport stack used for backend calls:
// request logging, metrics, response caching and gzip decoding.
func NewHTTPClient(config Config) *http.Client {
	base := gzhttp.Transport(http.DefaultTransport)

	var transport http.RoundTripper = newCachingTransport(config.CacheDir, base)
	transport = newMetricsTransport(transport)
	transport = logger.NewRequests(log.Logger, transport)

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:3000",
		Timeout:   30 * time.Second,
	}
}
