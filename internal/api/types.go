// Package api defines the wire request and response types shared by the
// server handlers, the sync engine, and the CLI client.
package api

import (
	"encoding/json"

	"github.com/fujie/v0-vcm/internal/models"
)

// FormattedSchema is the JSON Schema block of the wire projection.
// AdditionalProperties is always emitted as false.
type FormattedSchema struct {
	Schema               string                     `json:"$schema"`
	Type                 string                     `json:"type"`
	Properties           map[string]models.Property `json:"properties"`
	Required             []string                   `json:"required"`
	AdditionalProperties bool                       `json:"additionalProperties"`
}

// Display carries the fixed branding block of the wire projection.
type Display struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Locale          string `json:"locale"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
}

// IssuanceConfig carries the issuance parameters of the wire projection.
type IssuanceConfig struct {
	ValidityPeriod int      `json:"validityPeriod"`
	Issuer         string   `json:"issuer"`
	Context        []string `json:"context"`
	Type           []string `json:"type"`
	Revocable      bool     `json:"revocable"`
	BatchIssuance  bool     `json:"batchIssuance"`
}

// FormattedCredentialType is the external wire projection of a credential
// type definition. It is derived on every read and never persisted.
type FormattedCredentialType struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Version        string          `json:"version"`
	Schema         FormattedSchema `json:"schema"`
	Display        Display         `json:"display"`
	IssuanceConfig IssuanceConfig  `json:"issuanceConfig"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Status         string          `json:"status"`
}

// SyncRequest is the body accepted by the sync endpoints.
type SyncRequest struct {
	CredentialTypes []models.CredentialTypeDefinition `json:"credentialTypes"`
	APIKey          string                            `json:"apiKey"`
	Action          string                            `json:"action,omitempty"`
}

// Sync result modes.
const (
	ModeDelivered     = "delivered"
	ModeLocalFallback = "local-fallback"
)

// SyncResult is the outcome of a single sync invocation. Remote failures do
// not produce Success == false; they downgrade Mode to local-fallback.
type SyncResult struct {
	Success            bool            `json:"success"`
	SyncedCount        int             `json:"syncedCount"`
	Mode               string          `json:"mode"`
	RespondingEndpoint string          `json:"respondingEndpoint,omitempty"`
	RemoteResponse     json.RawMessage `json:"studentLoginResponse,omitempty"`
	LastError          string          `json:"lastError,omitempty"`
	Timestamp          string          `json:"timestamp"`
}

// SyncPayload is the delivery body pushed to each sync candidate.
type SyncPayload struct {
	CredentialTypes []FormattedCredentialType `json:"credentialTypes"`
	Source          string                    `json:"source"`
	Action          string                    `json:"action"`
	Timestamp       string                    `json:"timestamp"`
	Version         string                    `json:"version"`
}

// ConnectionTestResult reports the outcome of probing a remote site.
type ConnectionTestResult struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Endpoint   string          `json:"endpoint,omitempty"`
	HealthData json.RawMessage `json:"healthData,omitempty"`
	HTTPStatus int             `json:"httpStatus,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

// ListCredentialTypesResponse is the body of GET /api/credential-types.
type ListCredentialTypesResponse struct {
	Success         bool                      `json:"success"`
	CredentialTypes []FormattedCredentialType `json:"credentialTypes"`
	Count           int                       `json:"count"`
}

// IssueCredentialRequest is the body of POST /api/credentials/issue.
type IssueCredentialRequest struct {
	CredentialTypeID string          `json:"credentialTypeId"`
	RecipientID      string          `json:"recipientId"`
	RecipientName    string          `json:"recipientName"`
	Data             json.RawMessage `json:"data,omitempty"`
}

// RevokeCredentialRequest is the body of POST /api/credentials/revoke.
type RevokeCredentialRequest struct {
	CredentialID string `json:"credentialId"`
	Reason       string `json:"reason,omitempty"`
}

// WebhookCredentialIssued is the body of the credential-issued webhook.
type WebhookCredentialIssued struct {
	CredentialID     string          `json:"credentialId,omitempty"`
	CredentialTypeID string          `json:"credentialTypeId"`
	RecipientID      string          `json:"recipientId"`
	RecipientName    string          `json:"recipientName"`
	Data             json.RawMessage `json:"data,omitempty"`
}

// ConnectionTestRequest is the body of POST /api/connection-test.
type ConnectionTestRequest struct {
	StudentLoginURL string `json:"studentLoginUrl"`
	APIKey          string `json:"apiKey,omitempty"`
}

// ListLogsResponse is the body of GET /api/logs.
type ListLogsResponse struct {
	Success bool                 `json:"success"`
	Logs    []models.APILogEntry `json:"logs"`
	Count   int                  `json:"count"`
}

// ErrorResponse is the stable error body shape shared by all endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
