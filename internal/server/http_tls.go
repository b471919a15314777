package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"resumatch/internal/config"
)

var tlsVersions = map[string]uint16{
	"":    tls.VersionTLS12,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

var clientAuthPolicies = map[string]tls.ClientAuthType{
	"":        tls.RequireAndVerifyClientCert,
	"require": tls.RequireAndVerifyClientCert,
	"request": tls.RequestClientCert,
	"verify":  tls.VerifyClientCertIfGiven,
}

// configureTLS installs the TLS settings for the configured mode on httpServer.
// Disabled leaves httpServer untouched.
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "disabled", "":
		return nil
	case "server", "mutual":
		tlsConfig, err := tlsConfigFor(s.TLSConfig)
		if err != nil {
			return fmt.Errorf("failed to set up TLS (%s mode): %w", s.TLSConfig.Mode, err)
		}
		httpServer.TLSConfig = tlsConfig
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}
}

func tlsConfigFor(cfg config.TLSConfig) (*tls.Config, error) {
	minVersion, ok := tlsVersions[cfg.MinVersion]
	if !ok {
		return nil, fmt.Errorf("unsupported minimum TLS version %q", cfg.MinVersion)
	}

	certPEM, err := readPEM("certificate", cfg.CertContent, cfg.CertFile)
	if err != nil {
		return nil, err
	}
	keyPEM, err := readPEM("private key", cfg.KeyContent, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
		ClientAuth:   tls.NoClientCert,
	}
	if cfg.Mode != "mutual" {
		return tlsConfig, nil
	}

	policy, ok := clientAuthPolicies[cfg.ClientAuthPolicy]
	if !ok {
		return nil, fmt.Errorf("unsupported client auth policy %q", cfg.ClientAuthPolicy)
	}
	caPEM, err := readPEM("CA certificate", cfg.CAContent, cfg.CAFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no usable certificates in CA bundle")
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = policy
	return tlsConfig, nil
}

// readPEM prefers inline content (from Vault) over a file path.
func readPEM(what, content, file string) ([]byte, error) {
	if content != "" {
		return []byte(content), nil
	}
	if file == "" {
		return nil, fmt.Errorf("TLS %s is required (provide a file or content)", what)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read TLS %s: %w", what, err)
	}
	return data, nil
}
