package config

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMATCH_EMBEDDING_APIKEY, GEMINI_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	Matching      MatchingConfig      `mapstructure:"matching"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// EmbeddingConfig selects and tunes the text embedding provider
type EmbeddingConfig struct {
	Provider       string               `mapstructure:"provider" validate:"oneof=gemini hashing"`
	Model          string               `mapstructure:"model" validate:"required"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout" validate:"gt=0"`
	Dimensions     int                  `mapstructure:"dimensions" validate:"gte=0"`
	TaskType       string               `mapstructure:"taskType"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	Cache          CacheConfig          `mapstructure:"cache"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"` // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"` // open -> half-open
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold" validate:"gte=0,lte=1"`
}

// CacheConfig holds the embedding cache configuration.
// RedisURL empty keeps the cache memory-only.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl" validate:"gte=0"`
	MaxEntries      int           `mapstructure:"maxEntries" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	RedisURL        string        `mapstructure:"redisURL"`
}

// MatchingConfig holds the scoring pipeline policy
type MatchingConfig struct {
	MaxKeywords    int             `mapstructure:"maxKeywords" validate:"gte=0,lte=500"`
	SemanticWeight float64         `mapstructure:"semanticWeight" validate:"gte=0,lte=1"`
	KeywordWeight  float64         `mapstructure:"keywordWeight" validate:"gte=0,lte=1"`
	OverlapMode    string          `mapstructure:"overlapMode" validate:"oneof=exact token"`
	MinPhraseWords int             `mapstructure:"minPhraseWords" validate:"gte=0"`
	MaxPhraseWords int             `mapstructure:"maxPhraseWords" validate:"gte=0"`
	Stopwords      StopwordsConfig `mapstructure:"stopwords"`
}

// StopwordsConfig selects the stop-word list used by keyword extraction.
// File takes precedence over Language when set.
type StopwordsConfig struct {
	Language      string        `mapstructure:"language" validate:"required"`
	File          string        `mapstructure:"file"`
	Watch         bool          `mapstructure:"watch"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication; empty disables auth
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// PEM content, filled from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string `mapstructure:"minVersion"`       // 1.2, 1.3
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // require, request, verify
}

// RateLimitConfig holds rate limiting configuration.
// RequestsPerMin requests are allowed per Window, one minute by default.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize" validate:"gt=0"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	MatchOperations MatchMetricsConfig          `mapstructure:"matchOperations"`
	Embedding       EmbeddingMetricsConfig      `mapstructure:"embedding"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// MatchMetricsConfig controls pipeline metrics
type MatchMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
	TrackScores   bool `mapstructure:"trackScores"`
}

// EmbeddingMetricsConfig controls embedding provider metrics
type EmbeddingMetricsConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TrackCache bool `mapstructure:"trackCache"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout              time.Duration `mapstructure:"timeout"`
	EmbedderCheckTimeout time.Duration `mapstructure:"embedderCheckTimeout"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumatch/")
	v.AddConfigPath("$HOME/.resumatch")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/resumatch/, $HOME/.resumatch, .")

	return load(v)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("RESUMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validateStopwordsFile(); err != nil {
		return nil, fmt.Errorf("stopwords file validation failed: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	sections := []struct {
		name  string
		value any
	}{
		{"embedding", c.Embedding},
		{"matching", c.Matching},
		{"server", c.Server},
		{"app", c.App},
	}
	for _, section := range sections {
		if err := validate.Struct(section.value); err != nil {
			return fmt.Errorf("%s: %w", section.name, err)
		}
	}

	if err := c.validateWeights(); err != nil {
		return err
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// validateWeights keeps the final score inside [0, 100]
func (c *Config) validateWeights() error {
	sum := c.Matching.SemanticWeight + c.Matching.KeywordWeight
	if sum <= 0 {
		return fmt.Errorf("matching weights must not both be zero")
	}
	if sum > 1+1e-9 || math.IsNaN(sum) {
		return fmt.Errorf("matching weights must sum to at most 1 (got %.4f)", sum)
	}
	return nil
}
