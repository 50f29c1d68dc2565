package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/auth"
	"github.com/fujie/v0-vcm/internal/models"
	"github.com/fujie/v0-vcm/internal/schema"
)

const issuedAtLayout = "2006-01-02"

func (s *APIServer) handleListCredentialTypes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	key := apiKeyFromRequest(r)
	if !auth.Validate(key, s.healthSecret()) {
		writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid API key"})
		return
	}

	defs, err := s.Registry.ListActive()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to load credential types")
		return
	}

	now := time.Now().UTC()
	formatted := make([]api.FormattedCredentialType, len(defs))
	for i, def := range defs {
		formatted[i] = schema.Format(def, now)
	}

	writeJSON(w, http.StatusOK, api.ListCredentialTypesResponse{
		Success:         true,
		CredentialTypes: formatted,
		Count:           len(formatted),
	})
}

func (s *APIServer) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	var req api.IssueCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if req.CredentialTypeID == "" || req.RecipientID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialTypeId and recipientId are required")
		return
	}

	def, err := s.Registry.Get(req.CredentialTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to load credential type")
		return
	}
	if def == nil {
		writeError(w, http.StatusNotFound, "Credential type not found", "no credential type with id "+req.CredentialTypeID)
		return
	}

	cred := models.IssuedCredential{
		ID:                 "cred-" + uuid.NewString(),
		CredentialTypeID:   def.ID,
		CredentialTypeName: def.Name,
		RecipientID:        req.RecipientID,
		RecipientName:      req.RecipientName,
		IssuedAt:           time.Now().UTC().Format(issuedAtLayout),
		Status:             models.CredentialStatusActive,
		Data:               req.Data,
	}
	if err := s.Registry.SaveIssued(cred); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to store credential")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"credentialId":     cred.ID,
			"credentialTypeId": cred.CredentialTypeID,
			"recipientId":      cred.RecipientID,
			"issuedAt":         cred.IssuedAt,
			"status":           cred.Status,
		},
		"message": "Credential issued",
	})
}

func (s *APIServer) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	var req api.RevokeCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if req.CredentialID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialId is required")
		return
	}

	revokedAt := time.Now().UTC()
	ok, err := s.Registry.RevokeIssued(req.CredentialID, req.Reason, revokedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to revoke credential")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Credential not found", "no issued credential with id "+req.CredentialID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"credentialId": req.CredentialID,
			"status":       models.CredentialStatusRevoked,
			"revokedAt":    revokedAt.Format(time.RFC3339),
		},
		"message": "Credential revoked",
	})
}

func (s *APIServer) handleWebhookCredentialIssued(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.BearerToken(r.Header.Get("Authorization")); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Bearer token required")
		return
	}

	var req api.WebhookCredentialIssued
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if req.CredentialTypeID == "" || req.RecipientID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialTypeId and recipientId are required")
		return
	}

	def, err := s.Registry.Get(req.CredentialTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to load credential type")
		return
	}
	if def == nil {
		writeError(w, http.StatusNotFound, "Credential type not found", "no credential type with id "+req.CredentialTypeID)
		return
	}

	id := req.CredentialID
	if id == "" {
		id = "cred-" + uuid.NewString()
	}
	cred := models.IssuedCredential{
		ID:                 id,
		CredentialTypeID:   def.ID,
		CredentialTypeName: def.Name,
		RecipientID:        req.RecipientID,
		RecipientName:      req.RecipientName,
		IssuedAt:           time.Now().UTC().Format(issuedAtLayout),
		Status:             models.CredentialStatusActive,
		Data:               req.Data,
	}
	if err := s.Registry.SaveIssued(cred); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to store credential")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"credentialId": cred.ID,
			"status":       cred.Status,
		},
	})
}

func (s *APIServer) handleWebhookCredentialRevoked(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.BearerToken(r.Header.Get("Authorization")); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Bearer token required")
		return
	}

	var req api.RevokeCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "request body must be JSON")
		return
	}
	if req.CredentialID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "credentialId is required")
		return
	}

	revokedAt := time.Now().UTC()
	ok, err := s.Registry.RevokeIssued(req.CredentialID, req.Reason, revokedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to revoke credential")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Credential not found", "no issued credential with id "+req.CredentialID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"credentialId": req.CredentialID,
			"status":       models.CredentialStatusRevoked,
			"revokedAt":    revokedAt.Format(time.RFC3339),
		},
	})
}
