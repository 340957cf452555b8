package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/catalog-admin/internal/catalog"
)

// Config holds the complete application configuration, loadable from
// environment variables (CATALOG_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"Admin gateway listen address"`
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// UpstreamConfig points at the remote catalog service.
type UpstreamConfig struct {
	BaseURL string        `default:"https://api.escuelajs.co/api/v1/" usage:"Catalog service base URL" flag:"upstream-url"`
	Timeout time.Duration `default:"30s" usage:"Catalog service request timeout" flag:"upstream-timeout"`
}

// CacheConfig controls the query cache.
type CacheConfig struct {
	StaleTime  time.Duration `default:"0s" usage:"Age after which cached reads are refetched (0 keeps them until invalidated)" flag:"cache-stale-time"`
	GCTime     time.Duration `default:"30m" usage:"How long unused cache entries are kept (0 keeps them forever)" flag:"cache-gc-time"`
	GCInterval time.Duration `default:"1m" usage:"How often unused cache entries are collected" flag:"cache-gc-interval"`
}

// CatalogConfig controls catalog mutations.
type CatalogConfig struct {
	UpdateMode string `default:"remote" usage:"How edits are confirmed: remote (PUT to the service) or local (cache only)" flag:"update-mode"`
}

// RateLimitConfig controls the per-client sliding window limiter on mutations.
type RateLimitConfig struct {
	Max    int           `default:"60" usage:"Max catalog changes per window (0 disables)"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads the gateway configuration from environment variables,
// YAML config files and command line flags.
func LoadConfig() (*Config, error) {
	return load(false)
}

// LoadClientConfig loads the same configuration without parsing flags, for
// binaries that own their command line.
func LoadClientConfig() (*Config, error) {
	return load(true)
}

func load(skipFlags bool) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: skipFlags,
		EnvPrefix: "CATALOG",
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream base URL is required: set CATALOG_UPSTREAM_BASE_URL")
	}
	if _, err := catalog.ParseUpdateMode(c.Catalog.UpdateMode); err != nil {
		return errors.Wrap(err, "catalog")
	}
	return nil
}

// applyPlatformDefaults maps the platform-provided PORT to the listen address.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
