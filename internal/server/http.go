package server

import (
	"time"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/matcher"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ServerConfig holds the listener and request policy of a Server.
type ServerConfig struct {
	Host      string
	Port      string
	Version   string
	TLSConfig config.TLSConfig
	APIKeys   []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Zero disables the body size limit.
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ConfigFrom derives the server settings from the application config.
// A match request carries two documents, so the body limit is twice the
// per-file limit.
func ConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: 2 * cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// Server serves the matching pipeline over HTTP.
type Server struct {
	ServerConfig

	AppConfig *config.Config

	// Matching pipeline; built from AppConfig on Start when nil
	Components *matcher.Components

	RateLimiter *RateLimiter
	Logger      *resumatchErrors.Logger

	apiKeys map[string]bool
}

// NewServer creates a Server. The rate limiter starts here; the pipeline is
// built by Start.
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resumatchErrors.Logger) *Server {
	s := &Server{
		ServerConfig: cfg,
		AppConfig:    appCfg,
		Logger:       logger,
		apiKeys:      make(map[string]bool, len(cfg.APIKeys)),
	}
	for _, key := range cfg.APIKeys {
		if key != "" {
			s.apiKeys[key] = true
		}
	}
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		s.RateLimiter = NewRateLimiter(*cfg.RateLimit, logger)
	}
	return s
}
