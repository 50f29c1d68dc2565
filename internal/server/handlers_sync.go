package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/auth"
	"github.com/fujie/v0-vcm/internal/models"
	"github.com/fujie/v0-vcm/internal/syncer"
)

// isJSONArray reports whether raw is present and its first token opens an
// array. The sync endpoints reject objects and scalars before decoding.
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (s *APIServer) handleSync(w http.ResponseWriter, r *http.Request) {
	var raw struct {
		CredentialTypes json.RawMessage `json:"credentialTypes"`
		APIKey          string          `json:"apiKey"`
		Action          string          `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if !isJSONArray(raw.CredentialTypes) {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialTypes must be an array")
		return
	}

	var defs []models.CredentialTypeDefinition
	if err := json.Unmarshal(raw.CredentialTypes, &defs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialTypes entries are malformed")
		return
	}

	if !auth.ValidateSyncKey(raw.APIKey) {
		writeError(w, http.StatusUnauthorized, "Invalid API key", "API key must start with "+auth.SyncKeyPrefix)
		return
	}

	req := api.SyncRequest{
		CredentialTypes: defs,
		APIKey:          raw.APIKey,
		Action:          raw.Action,
	}
	result, err := s.Engine.Sync(r.Context(), req, s.Config.SyncCandidates(), s.Config.SyncTimeout)
	if err != nil {
		if errors.Is(err, syncer.ErrInvalidAPIKey) {
			writeError(w, http.StatusUnauthorized, "Invalid API key", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Sync failed", err.Error())
		return
	}

	data := map[string]any{
		"syncedCount": result.SyncedCount,
		"mode":        result.Mode,
		"timestamp":   result.Timestamp,
	}
	if result.Mode == api.ModeDelivered {
		data["endpoint"] = result.RespondingEndpoint
		data["studentLoginResponse"] = result.RemoteResponse
		data["message"] = fmt.Sprintf("Synced %d credential types to the student login site", result.SyncedCount)
	} else {
		data["note"] = "student login site unreachable; credential types remain available for pull-based sync"
		data["message"] = fmt.Sprintf("Stored %d credential types locally", result.SyncedCount)
		if result.LastError != "" {
			data["lastError"] = result.LastError
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func (s *APIServer) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"endpoint":         r.URL.Path,
			"status":           "ready",
			"supportedActions": []string{"sync", "update", "delete"},
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
			"version":          serviceVersion,
		},
	})
}

func (s *APIServer) handleSyncClientData(w http.ResponseWriter, r *http.Request) {
	var raw struct {
		CredentialTypes json.RawMessage `json:"credentialTypes"`
		APIKey          string          `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if !auth.Validate(raw.APIKey, s.healthSecret()) {
		writeError(w, http.StatusUnauthorized, "Invalid API key", "valid API key required")
		return
	}
	if !isJSONArray(raw.CredentialTypes) {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialTypes must be an array")
		return
	}

	var defs []models.CredentialTypeDefinition
	if err := json.Unmarshal(raw.CredentialTypes, &defs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialTypes entries are malformed")
		return
	}

	if err := s.Registry.ReplaceAll(defs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credential types", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"syncedCount": len(defs),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"message":     fmt.Sprintf("Stored %d credential types", len(defs)),
		},
	})
}

func (s *APIServer) handleConnectionTest(w http.ResponseWriter, r *http.Request) {
	var req api.ConnectionTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if req.StudentLoginURL == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "studentLoginUrl is required")
		return
	}

	result := s.Engine.TestConnection(r.Context(), req.StudentLoginURL, req.APIKey, s.Config.ConnectTimeout)
	if result.Status == "connected" {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    result,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": false,
		"error":   result.Message,
		"data":    result,
	})
}
