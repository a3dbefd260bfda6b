// Package introspect provides a lightweight HTTP API for runtime inspection
// of a running securelog-ecc process.
//
// Endpoints:
//
//	GET /status   - process health, uptime, and a redacted configuration summary
//	GET /metrics  - a snapshot of internal/metrics counters
package introspect

import (
	"encoding/json"
	"net/http"
	"time"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
)

// Server is the introspection HTTP server.
type Server struct {
	cfg       *config.Config
	startTime time.Time
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// New creates an introspection server bound to cfg and met.
func New(cfg *config.Config, met *metrics.Metrics, log *logger.Logger) *Server {
	return &Server{cfg: cfg, startTime: time.Now(), metrics: met, log: log}
}

// Handler returns the HTTP handler for the introspection API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Status             string `json:"status"`
		Uptime             string `json:"uptime"`
		SM2Curve           string `json:"sm2Curve"`
		SM4Transformation  string `json:"sm4Transformation"`
		SessionCacheSize   int    `json:"sessionCacheSize"`
		SystemCacheSize    int    `json:"systemCacheSize"`
		FallbackEnabled    bool   `json:"fallbackEnabled"`
		QueryStringEnabled bool   `json:"queryStringEnabled"`
	}
	resp := response{
		Status:             "running",
		Uptime:             time.Since(s.startTime).Round(time.Second).String(),
		SM2Curve:           s.cfg.SM2CurveName,
		SM4Transformation:  s.cfg.SM4Transformation,
		SessionCacheSize:   s.cfg.SessionCacheSize,
		SystemCacheSize:    s.cfg.SystemCacheSize,
		FallbackEnabled:    s.cfg.FallbackEnabled,
		QueryStringEnabled: s.cfg.QueryStringEnabled,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		http.Error(w, "metrics not enabled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoder failures here mean the client disconnected mid-write
	}
}
