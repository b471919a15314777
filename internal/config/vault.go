package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"resumatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"tokenFile"`
	Namespace string        `mapstructure:"namespace"`
	Mount     string        `mapstructure:"mount"` // KV v2 mount, "secret" by default
	Timeout   time.Duration `mapstructure:"timeout"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KV v2 secrets to read, relative to the mount.
// An empty path skips that secret.
type VaultSecrets struct {
	// APIKeys holds a comma separated list under "keys"
	APIKeys string `mapstructure:"apiKeys"`
	// GeminiKey holds the embedding provider key under "api_key"
	GeminiKey string `mapstructure:"geminiKey"`
	// TLSCerts holds PEM content under "cert", "key" and "ca"
	TLSCerts string `mapstructure:"tlsCerts"`
}

// Secret is the latest version of a KV v2 secret.
type Secret struct {
	Data    map[string]any
	Version int
}

// String returns the string stored under key.
func (s *Secret) String(key string) (string, error) {
	value, ok := s.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key %q is %T, not a string", key, value)
	}
	return str, nil
}

// SecretReader reads KV v2 secrets.
type SecretReader interface {
	ReadSecret(ctx context.Context, path string) (*Secret, error)
}

// VaultClient reads secrets from one KV v2 mount.
type VaultClient struct {
	kv     *api.KVv2
	logger *errors.Logger
}

var _ SecretReader = (*VaultClient)(nil)

// NewVaultClient connects to Vault and checks that it is reachable.
func NewVaultClient(ctx context.Context, cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	vaultConfig := api.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	if cfg.Timeout > 0 {
		vaultConfig.Timeout = cfg.Timeout
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", vaultConfig.Address, err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("vault at %s is sealed", vaultConfig.Address)
	}
	logger.Info("Connected to Vault",
		"address", vaultConfig.Address,
		"version", health.Version,
		"mount", mountOrDefault(cfg.Mount))

	return &VaultClient{kv: client.KVv2(mountOrDefault(cfg.Mount)), logger: logger}, nil
}

func mountOrDefault(mount string) string {
	if mount == "" {
		return "secret"
	}
	return mount
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		tokenBytes, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// ReadSecret returns the latest version of the secret at path.
func (vc *VaultClient) ReadSecret(ctx context.Context, path string) (*Secret, error) {
	kvSecret, err := vc.kv.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	secret := &Secret{Data: kvSecret.Data}
	if kvSecret.VersionMetadata != nil {
		secret.Version = kvSecret.VersionMetadata.Version
	}
	vc.logger.Debug("Secret read from Vault", "path", path, "version", secret.Version)
	return secret, nil
}

func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case len(value) > 0:
		return "****"
	default:
		return ""
	}
}

// ApplyVaultSecrets overrides config values with the secrets configured
// under vault.secrets. It does nothing when Vault is disabled.
func ApplyVaultSecrets(ctx context.Context, config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}
	client, err := NewVaultClient(ctx, config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(ctx, client, config, logger)
}

// applySecrets copies every configured secret from reader into config.
// Vault values take precedence over file and environment values.
func applySecrets(ctx context.Context, reader SecretReader, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets

	if paths.APIKeys != "" {
		keys, err := readString(ctx, reader, paths.APIKeys, "keys")
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if list := splitAndTrim(keys); len(list) > 0 {
			config.Server.APIKeys = list
			logger.Info("API keys loaded from Vault", "count", len(list))
		}
	}

	if paths.GeminiKey != "" {
		key, err := readString(ctx, reader, paths.GeminiKey, "api_key")
		if err != nil {
			return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
		}
		if key != "" {
			config.Embedding.APIKey = key
			logger.Info("Gemini API key loaded from Vault", "masked_value", maskSecret(key))
		}
	}

	if paths.TLSCerts != "" {
		secret, err := reader.ReadSecret(ctx, paths.TLSCerts)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		loaded := 0
		for field, target := range map[string]*string{
			"cert": &config.Server.TLS.CertContent,
			"key":  &config.Server.TLS.KeyContent,
			"ca":   &config.Server.TLS.CAContent,
		} {
			if content, err := secret.String(field); err == nil && content != "" {
				*target = content
				loaded++
			}
		}
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}

	return nil
}

func readString(ctx context.Context, reader SecretReader, path, key string) (string, error) {
	secret, err := reader.ReadSecret(ctx, path)
	if err != nil {
		return "", err
	}
	value, err := secret.String(key)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", path, err)
	}
	return value, nil
}
