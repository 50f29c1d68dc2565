package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/auth"
	"github.com/fujie/v0-vcm/internal/logging"
)

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if required, secret := s.healthGate(); required {
		if !auth.Validate(apiKeyFromRequest(r), secret) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"status":    "unauthorized",
				"service":   serviceName,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"message":   "Valid API key required",
			})
			return
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	dbCheck := map[string]any{"status": "ok"}
	typeCount, issuedCount, err := s.Registry.Counts()
	if err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
		dbCheck = map[string]any{"status": "error", "error": err.Error()}
	} else {
		dbCheck["credentialTypes"] = typeCount
		dbCheck["issuedCredentials"] = issuedCount
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, httpStatus, map[string]any{
		"status":      status,
		"service":     serviceName,
		"version":     serviceVersion,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(s.started).Seconds(),
		"environment": s.Config.Environment,
		"features": map[string]bool{
			"credentialIssuance":   true,
			"credentialRevocation": true,
			"credentialTypeSync":   true,
			"webhooks":             true,
			"requestLogging":       true,
		},
		"endpoints": map[string]string{
			"credentialTypes": "/api/credential-types",
			"sync":            "/api/vcm/sync",
			"issue":           "/api/credentials/issue",
			"revoke":          "/api/credentials/revoke",
			"logs":            "/api/logs",
		},
		"checks": map[string]any{
			"database": dbCheck,
			"memory": map[string]any{
				"alloc":      mem.Alloc,
				"totalAlloc": mem.TotalAlloc,
				"sys":        mem.Sys,
				"numGC":      mem.NumGC,
			},
		},
	})
}

// handleHealthPost echoes how the caller's credentials would be classified
// without gating anything. Remote sites use it to verify their key format.
func (s *APIServer) handleHealthPost(w http.ResponseWriter, r *http.Request) {
	authStatus := "none"
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := auth.BearerToken(header)
		switch {
		case !ok:
			authStatus = "invalid_format"
		case auth.ValidateSyncKey(token):
			authStatus = "valid"
		default:
			authStatus = "invalid"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"auth": map[string]any{
			"status": authStatus,
		},
		"client": map[string]any{
			"ip":        clientIP(r),
			"userAgent": r.UserAgent(),
		},
	})
}

func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	typeCount, issuedCount, err := s.Registry.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to read counts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":   serviceName,
		"version":   serviceVersion,
		"status":    "operational",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
		"counts": map[string]int{
			"credentialTypes":   typeCount,
			"issuedCredentials": issuedCount,
		},
		"runtime": map[string]any{
			"go":         runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	})
}

func (s *APIServer) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}

func (s *APIServer) handleGetHealthSettings(w http.ResponseWriter, r *http.Request) {
	s.settings.mu.RLock()
	requireAuth := s.settings.requireAuth
	hasKey := s.settings.apiKey != ""
	s.settings.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"settings": map[string]any{
			"requireAuth": requireAuth,
			"hasApiKey":   hasKey,
		},
		"endpoints": []string{"/api/health", "/api/status", "/api/ping"},
	})
}

func (s *APIServer) handleUpdateHealthSettings(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok || !auth.IsAdminToken(token) {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "admin token required")
		return
	}

	var req struct {
		Action      string  `json:"action"`
		RequireAuth *bool   `json:"requireAuth"`
		APIKey      *string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}

	switch req.Action {
	case "generate_key":
		key, err := auth.GenerateHealthKey()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error", "failed to generate key")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"apiKey":  key,
				"message": "generated key is not active until applied with update_settings",
			},
		})

	case "update_settings":
		s.settings.mu.Lock()
		if req.RequireAuth != nil {
			s.settings.requireAuth = *req.RequireAuth
		}
		if req.APIKey != nil {
			s.settings.apiKey = *req.APIKey
		}
		requireAuth := s.settings.requireAuth
		hasKey := s.settings.apiKey != ""
		s.settings.mu.Unlock()

		s.Logger.Info("health settings updated",
			logging.Component("server"),
			logging.Action(req.Action))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"settings": map[string]any{
				"requireAuth": requireAuth,
				"hasApiKey":   hasKey,
			},
			"message": "settings updated",
		})

	default:
		writeError(w, http.StatusBadRequest, "Invalid action", "action must be generate_key or update_settings")
	}
}

func (s *APIServer) handleListLogs(w http.ResponseWriter, r *http.Request) {
	logs := s.Logs.List()
	writeJSON(w, http.StatusOK, api.ListLogsResponse{
		Success: true,
		Logs:    logs,
		Count:   len(logs),
	})
}

func (s *APIServer) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	s.Logs.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "request log cleared",
	})
}
