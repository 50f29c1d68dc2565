// Package models defines the entity types stored by the registry and log store.
package models

import "encoding/json"

// Property describes a single field in a credential type schema.
type Property struct {
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
}

// CredentialSchema is the author-defined JSON-Schema-like shape of a
// credential type. Required entries must name keys of Properties.
type CredentialSchema struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// CredentialTypeDefinition is the canonical credential type record.
type CredentialTypeDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Version     string           `json:"version"`
	Schema      CredentialSchema `json:"schema"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   string           `json:"createdAt,omitempty"`
	UpdatedAt   string           `json:"updatedAt,omitempty"`
}

// IssuedCredential records a credential issued against a type, either via the
// issuance endpoint or a credential-issued webhook.
type IssuedCredential struct {
	ID                 string          `json:"id"`
	CredentialTypeID   string          `json:"credentialTypeId"`
	CredentialTypeName string          `json:"credentialTypeName"`
	RecipientID        string          `json:"recipientId"`
	RecipientName      string          `json:"recipientName"`
	IssuedAt           string          `json:"issuedAt"`
	Status             string          `json:"status"`
	RevokedAt          string          `json:"revokedAt,omitempty"`
	RevocationReason   string          `json:"revocationReason,omitempty"`
	Data               json.RawMessage `json:"data,omitempty"`
}

// Issued credential statuses.
const (
	CredentialStatusActive  = "active"
	CredentialStatusRevoked = "revoked"
)

// APILogEntry records a single handled API request.
type APILogEntry struct {
	ID             string            `json:"id"`
	Timestamp      string            `json:"timestamp"`
	Endpoint       string            `json:"endpoint"`
	Method         string            `json:"method"`
	Source         string            `json:"source"` // internal|external|client
	SourceIP       string            `json:"sourceIp,omitempty"`
	UserAgent      string            `json:"userAgent,omitempty"`
	RequestHeaders map[string]string `json:"requestHeaders,omitempty"`
	RequestBody    any               `json:"requestBody,omitempty"`
	ResponseStatus int               `json:"responseStatus"`
	ResponseBody   any               `json:"responseBody,omitempty"`
	Duration       int64             `json:"duration"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
}

// Log entry sources.
const (
	LogSourceInternal = "internal"
	LogSourceExternal = "external"
	LogSourceClient   = "client"
)
