// Package server implements the VCM HTTP API.
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fujie/v0-vcm/internal/auth"
	"github.com/fujie/v0-vcm/internal/config"
	"github.com/fujie/v0-vcm/internal/logging"
	"github.com/fujie/v0-vcm/internal/logstore"
	"github.com/fujie/v0-vcm/internal/models"
	"github.com/fujie/v0-vcm/internal/registry"
	"github.com/fujie/v0-vcm/internal/syncer"
)

const (
	serviceName    = "Verifiable Credential Manager"
	serviceVersion = "1.0.0"

	maxRequestBody = 1 << 16 // 64KB
)

// APIServer handles the admin console API: credential type reads, issuance,
// sync, webhooks, health, and the request log.
type APIServer struct {
	Registry registry.Registry
	Logs     *logstore.Store
	Engine   *syncer.Engine
	Config   *config.Config
	Logger   *zap.Logger

	started  time.Time
	settings healthSettings
}

// healthSettings is the mutable view of the health gate, initialized from
// config and updated by the health-settings endpoint.
type healthSettings struct {
	mu          sync.RWMutex
	requireAuth bool
	apiKey      string
}

func New(reg registry.Registry, logs *logstore.Store, engine *syncer.Engine, cfg *config.Config, logger *zap.Logger) *APIServer {
	s := &APIServer{
		Registry: reg,
		Logs:     logs,
		Engine:   engine,
		Config:   cfg,
		Logger:   logger,
		started:  time.Now(),
	}
	s.settings.requireAuth = cfg.HealthRequireAuth
	s.settings.apiKey = cfg.HealthAPIKey
	return s
}

// healthGate returns the effective health auth settings. The gate applies
// only when auth is required AND a secret is configured.
func (s *APIServer) healthGate() (required bool, key string) {
	s.settings.mu.RLock()
	defer s.settings.mu.RUnlock()
	return s.settings.requireAuth && s.settings.apiKey != "", s.settings.apiKey
}

func (s *APIServer) healthSecret() string {
	s.settings.mu.RLock()
	defer s.settings.mu.RUnlock()
	return s.settings.apiKey
}

// Handler returns the HTTP handler for the API server. One handler serves
// each logical endpoint; legacy paths are extra mounts of the same handler.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, path := range []string{"/api/credential-types", "/api/v1/credential-types", "/api/vcm/credential-types"} {
		mux.HandleFunc("GET "+path, s.record(models.LogSourceExternal, s.handleListCredentialTypes))
		mux.HandleFunc("OPTIONS "+path, corsPreflight("GET, OPTIONS", "Content-Type, Authorization, X-API-Key"))
	}

	mux.HandleFunc("POST /api/credentials/issue", s.record(models.LogSourceExternal, s.handleIssueCredential))
	mux.HandleFunc("POST /api/credentials/revoke", s.record(models.LogSourceExternal, s.handleRevokeCredential))

	for _, path := range []string{"/api/vcm/sync", "/api/sync/credential-types"} {
		mux.HandleFunc("POST "+path, s.record(models.LogSourceInternal, s.handleSync))
	}
	mux.HandleFunc("GET /api/vcm/sync", s.record(models.LogSourceInternal, s.handleSyncStatus))
	mux.HandleFunc("POST /api/vcm/sync-client-data", s.record(models.LogSourceInternal, s.handleSyncClientData))
	mux.HandleFunc("POST /api/connection-test", s.record(models.LogSourceInternal, s.handleConnectionTest))

	mux.HandleFunc("GET /api/health", s.record(models.LogSourceExternal, s.handleHealth))
	mux.HandleFunc("POST /api/health", s.record(models.LogSourceExternal, s.handleHealthPost))
	mux.HandleFunc("OPTIONS /api/health", corsPreflight("GET, POST, OPTIONS", "Content-Type, Authorization"))
	mux.HandleFunc("GET /api/status", s.record(models.LogSourceExternal, s.handleStatus))
	mux.HandleFunc("GET /api/ping", s.record(models.LogSourceExternal, s.handlePing))
	mux.HandleFunc("POST /api/ping", s.record(models.LogSourceExternal, s.handlePing))

	mux.HandleFunc("GET /api/health-settings", s.record(models.LogSourceInternal, s.handleGetHealthSettings))
	mux.HandleFunc("POST /api/health-settings", s.record(models.LogSourceInternal, s.handleUpdateHealthSettings))

	mux.HandleFunc("POST /api/webhooks/credential-issued", s.record(models.LogSourceExternal, s.handleWebhookCredentialIssued))
	mux.HandleFunc("POST /api/webhooks/credential-revoked", s.record(models.LogSourceExternal, s.handleWebhookCredentialRevoked))

	mux.HandleFunc("GET /api/logs", s.record(models.LogSourceInternal, s.handleListLogs))
	mux.HandleFunc("DELETE /api/logs", s.record(models.LogSourceInternal, s.handleClearLogs))

	return mux
}

// record wraps a handler so that every handled request, success or error, is
// written to the request log before the response is considered complete.
func (s *APIServer) record(source string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var reqBody []byte
		if r.Body != nil {
			reqBody, _ = io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		entry := models.APILogEntry{
			Timestamp:      start.UTC().Format(time.RFC3339),
			Endpoint:       r.URL.Path,
			Method:         r.Method,
			Source:         source,
			SourceIP:       clientIP(r),
			UserAgent:      r.UserAgent(),
			RequestHeaders: flattenHeaders(r.Header),
			RequestBody:    redactBody(reqBody),
			ResponseStatus: rec.status,
			ResponseBody:   parseJSONBody(rec.buf.Bytes()),
			Duration:       time.Since(start).Milliseconds(),
			Success:        rec.status < 400,
		}
		if !entry.Success {
			entry.Error = errorFromBody(rec.buf.Bytes(), rec.status)
		}
		s.Logs.Record(entry)

		s.Logger.Info("api request",
			logging.Endpoint(r.URL.Path),
			logging.Method(r.Method),
			logging.Source(source),
			logging.RemoteIP(entry.SourceIP),
			logging.Status(rec.status),
			logging.Duration(time.Since(start)))
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func corsPreflight(methods, headers string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
	}
}

// apiKeyFromRequest resolves the presented key from X-API-Key or a Bearer
// Authorization header, in that order.
func apiKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			return strings.TrimSpace(fwd[:idx])
		}
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

// redactBody parses a captured request body for logging, masking the apiKey
// field. Undecodable bodies are logged as a marker string.
func redactBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "invalid JSON"
	}
	if m, ok := parsed.(map[string]any); ok {
		if _, present := m["apiKey"]; present {
			m["apiKey"] = "***"
		}
	}
	return parsed
}

func parseJSONBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil
	}
	return parsed
}

func errorFromBody(raw []byte, status int) string {
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err == nil {
		if resp.Error != "" {
			return resp.Error
		}
		if resp.Message != "" {
			return resp.Message
		}
	}
	return http.StatusText(status)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   errMsg,
		"message": message,
	})
}
