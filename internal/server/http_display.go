package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"resumatch/internal/utils"
)

// displayServerInfo prints the startup banner to stdout
func (s *Server) displayServerInfo(httpServer *http.Server) {
	s.writeBanner(os.Stdout, httpServer)
}

func (s *Server) writeBanner(w io.Writer, httpServer *http.Server) {
	scheme, mode := "http", s.TLSConfig.Mode
	if httpServer.TLSConfig != nil {
		scheme = "https"
	}
	if mode == "" {
		mode = "disabled"
	}
	fmt.Fprintf(w, "Starting resumatch %s on %s://%s (TLS mode: %s)\n", s.Version, scheme, httpServer.Addr, mode)

	fmt.Fprintln(w, "Available endpoints:")
	for _, rt := range routes {
		method, path, _ := strings.Cut(rt.pattern, " ")
		line := fmt.Sprintf("  %-5s %-10s - %s", method, path, rt.description)
		if rt.protected && len(s.apiKeys) > 0 {
			line += " (requires API key)"
		}
		fmt.Fprintln(w, line)
	}

	if len(s.apiKeys) > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", len(s.apiKeys))
		fmt.Fprintln(w, "Send 'X-API-Key: <key>' or 'Authorization: Bearer <key>'")
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %s\n", utils.FormatFileSize(s.MaxRequestSize))
	} else {
		fmt.Fprintln(w, "Request size limit: DISABLED")
	}

	if s.RateLimit == nil || !s.RateLimit.Enabled {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
		return
	}
	var scopes []string
	if s.RateLimit.ByAPIKey {
		scopes = append(scopes, "API key")
	}
	if s.RateLimit.ByIP {
		scopes = append(scopes, "IP address")
	}
	fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst %d, per %s)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, strings.Join(scopes, " and "))
}
