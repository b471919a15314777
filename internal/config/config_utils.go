package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyEmbeddingKeyFallback()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyEmbeddingKeyFallback honours the key name the Gemini tooling uses
func (c *Config) applyEmbeddingKeyFallback() {
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// applyServerAPIKeyFallbacks parses a comma separated key list from the environment
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) > 0 {
		return
	}
	if apiKeysEnv := os.Getenv("RESUMATCH_SERVER_APIKEYS"); apiKeysEnv != "" {
		c.Server.APIKeys = splitAndTrim(apiKeysEnv)
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// validateStopwordsFile checks that a configured stop-word file is readable
func (c *Config) validateStopwordsFile() error {
	path := c.Matching.Stopwords.File
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stopwords file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("stopwords file %s is a directory", path)
	}
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// summaryEnvVars are the environment overrides worth echoing at startup.
var summaryEnvVars = []string{
	"RESUMATCH_EMBEDDING_APIKEY",
	"RESUMATCH_EMBEDDING_PROVIDER",
	"RESUMATCH_EMBEDDING_MODEL",
	"RESUMATCH_MATCHING_MAXKEYWORDS",
	"RESUMATCH_SERVER_PORT",
	"RESUMATCH_SERVER_HOST",
	"RESUMATCH_APP_LOGLEVEL",
	"RESUMATCH_VAULT_ENABLED",
	"GEMINI_API_KEY",
}

// logConfigurationSources logs where configuration came from and the values
// that shape matching. Secrets are never printed.
func (c *Config) logConfigurationSources(configFileUsed string) {
	for _, line := range c.sourceSummary(configFileUsed, os.Getenv) {
		log.Printf("[CONFIG] %s", line)
	}
}

func (c *Config) sourceSummary(configFileUsed string, getenv func(string) string) []string {
	file := configFileUsed
	if file == "" {
		file = "none (defaults and environment)"
	}
	lines := []string{"Config file: " + file}

	var env []string
	for _, name := range summaryEnvVars {
		value := getenv(name)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(name), "key") {
			value = "***MASKED***"
		}
		env = append(env, name+"="+value)
	}
	if len(env) == 0 {
		lines = append(lines, "Environment: none set")
	} else {
		lines = append(lines, "Environment: "+strings.Join(env, " "))
	}

	apiKey := "not set"
	if c.Embedding.APIKey != "" {
		apiKey = "configured"
	}
	stopwords := "language=" + c.Matching.Stopwords.Language
	if c.Matching.Stopwords.File != "" {
		stopwords = fmt.Sprintf("file=%s watch=%t", c.Matching.Stopwords.File, c.Matching.Stopwords.Watch)
	}

	return append(lines,
		fmt.Sprintf("Embedding: provider=%s model=%s apiKey=%s cache=%t redis=%t",
			c.Embedding.Provider, c.Embedding.Model, apiKey, c.Embedding.Cache.Enabled, c.Embedding.Cache.RedisURL != ""),
		fmt.Sprintf("Matching: maxKeywords=%d semanticWeight=%.2f keywordWeight=%.2f overlapMode=%s",
			c.Matching.MaxKeywords, c.Matching.SemanticWeight, c.Matching.KeywordWeight, c.Matching.OverlapMode),
		"Stopwords: "+stopwords,
		fmt.Sprintf("Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode),
		fmt.Sprintf("Log level: %s, vault: %t, observability: %t", c.App.LogLevel, c.Vault.Enabled, c.Observability.Enabled),
	)
}
