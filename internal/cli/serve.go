package cli

import (
	"fmt"

	"resumatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP matching API",
	Long: `Start an HTTP server exposing the matching pipeline.

Available endpoints:
- POST /match: Score a resume against a job description
- POST /keywords: Extract ranked keywords from a text
- GET /health: Embedding model and circuit breaker status
- GET /stats: Cache, circuit breaker and rate limiting statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

var serveFlags struct {
	port, host, tlsMode, certFile, keyFile, caFile string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	overrides := []struct {
		value  string
		target *string
	}{
		{serveFlags.port, &cfg.Server.Port},
		{serveFlags.host, &cfg.Server.Host},
		{serveFlags.tlsMode, &cfg.Server.TLS.Mode},
		{serveFlags.certFile, &cfg.Server.TLS.CertFile},
		{serveFlags.keyFile, &cfg.Server.TLS.KeyFile},
		{serveFlags.caFile, &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return server.NewServer(cfg, server.ConfigFrom(cfg, Version), logger).Start(cmd.Context())
}
