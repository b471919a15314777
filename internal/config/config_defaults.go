package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Embedding provider
	v.SetDefault("embedding.provider", "gemini")
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.apiKey", "")
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("embedding.dimensions", 0) // provider default
	v.SetDefault("embedding.taskType", "SEMANTIC_SIMILARITY")

	v.SetDefault("embedding.circuitBreaker.enabled", true)
	v.SetDefault("embedding.circuitBreaker.maxRequests", 3)
	v.SetDefault("embedding.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("embedding.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("embedding.circuitBreaker.minRequests", 3)
	v.SetDefault("embedding.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("embedding.cache.enabled", true)
	v.SetDefault("embedding.cache.ttl", 24*time.Hour)
	v.SetDefault("embedding.cache.maxEntries", 1000)
	v.SetDefault("embedding.cache.cleanupInterval", 5*time.Minute)
	v.SetDefault("embedding.cache.redisURL", "")

	// Matching policy
	v.SetDefault("matching.maxKeywords", 15)
	v.SetDefault("matching.semanticWeight", 0.7)
	v.SetDefault("matching.keywordWeight", 0.3)
	v.SetDefault("matching.overlapMode", "exact")
	v.SetDefault("matching.minPhraseWords", 1)
	v.SetDefault("matching.maxPhraseWords", 0) // unbounded
	v.SetDefault("matching.stopwords.language", "english")
	v.SetDefault("matching.stopwords.file", "")
	v.SetDefault("matching.stopwords.watch", true)
	v.SetDefault("matching.stopwords.debounceDelay", 500*time.Millisecond)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.mount", "secret")
	v.SetDefault("vault.timeout", 10*time.Second)
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumatch")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.matchOperations.enabled", true)
	v.SetDefault("observability.customMetrics.matchOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.matchOperations.trackScores", true)
	v.SetDefault("observability.customMetrics.embedding.enabled", true)
	v.SetDefault("observability.customMetrics.embedding.trackCache", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.embedderCheckTimeout", 10*time.Second)
}
