// Package config provides configuration management for the preprint
// resolver service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the preprint resolver service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Crossref contains cross-reference lookup settings.
	Crossref CrossrefConfig `mapstructure:"crossref"`
	// BioRxiv contains bioRxiv/medRxiv details API settings.
	BioRxiv BioRxivConfig `mapstructure:"biorxiv"`
	// PubMed contains NCBI E-utilities settings.
	PubMed PubMedConfig `mapstructure:"pubmed"`
	// Embedding contains embedding provider settings.
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	// Resolver contains matching-stage settings.
	Resolver ResolverConfig `mapstructure:"resolver"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// CrossrefConfig holds cross-reference API settings.
type CrossrefConfig struct {
	// BaseURL is the Crossref REST API base URL.
	BaseURL string `mapstructure:"base_url"`
	// MailTo is the contact email for the polite pool.
	MailTo string `mapstructure:"mail_to"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// BioRxivConfig holds bioRxiv/medRxiv details API settings.
type BioRxivConfig struct {
	// BaseURL is the bioRxiv API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// PubMedConfig holds NCBI E-utilities settings.
type PubMedConfig struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the NCBI API key. Loaded exclusively from the
	// environment, never from config files.
	APIKey string `mapstructure:"-"`
	// Email is the contact address sent with every request.
	Email string `mapstructure:"email"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second (0 picks the NCBI
	// default for the key situation).
	RateLimit float64 `mapstructure:"rate_limit"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// BaseURL is the Ollama API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Model is the embedding model name.
	Model string `mapstructure:"model"`
	// Dimensions is the expected vector dimensionality.
	Dimensions int `mapstructure:"dimensions"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ResolverConfig holds matching-stage settings.
type ResolverConfig struct {
	// RetMax is the maximum candidate articles retrieved per search.
	RetMax int `mapstructure:"ret_max"`
	// StopwordFile optionally overrides the built-in stopword list with
	// a file of one word per line.
	StopwordFile string `mapstructure:"stopword_file"`
}

// Load reads configuration from defaults, an optional config.yaml, and
// PRE2PUB_-prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PRE2PUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/preprint-resolver")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.PubMed.APIKey = os.Getenv("PRE2PUB_PUBMED_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// External source defaults
	v.SetDefault("crossref.base_url", "https://api.crossref.org")
	v.SetDefault("crossref.mail_to", "")
	v.SetDefault("crossref.timeout", "30s")
	v.SetDefault("crossref.rate_limit", 5)

	v.SetDefault("biorxiv.base_url", "https://api.biorxiv.org")
	v.SetDefault("biorxiv.timeout", "30s")
	v.SetDefault("biorxiv.rate_limit", 1)

	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.email", "")
	v.SetDefault("pubmed.timeout", "30s")
	v.SetDefault("pubmed.rate_limit", 0)

	// Embedding defaults
	v.SetDefault("embedding.base_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.timeout", "30s")

	// Resolver defaults
	v.SetDefault("resolver.ret_max", 5)
	v.SetDefault("resolver.stopword_file", "")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Server.HTTPPort == c.Server.MetricsPort {
		return fmt.Errorf("http and metrics ports must differ: %d", c.Server.HTTPPort)
	}
	if c.Resolver.RetMax <= 0 {
		return fmt.Errorf("resolver.ret_max must be positive: %d", c.Resolver.RetMax)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative: %d", c.Embedding.Dimensions)
	}
	if c.Crossref.RateLimit < 0 || c.BioRxiv.RateLimit < 0 || c.PubMed.RateLimit < 0 {
		return errors.New("rate limits must not be negative")
	}
	return nil
}
