// Package schema converts credential type definitions into the wire
// projection expected by the Student Login Site.
package schema

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/models"
)

const (
	schemaDraft       = "https://json-schema.org/draft/2020-12/schema"
	credentialContext = "https://www.w3.org/2018/credentials/v1"
	issuerURL         = "https://vcm.example.com"

	displayLocale     = "ja-JP"
	displayBackground = "#1e40af"
	displayText       = "#ffffff"

	validityPeriodDays = 365

	// DefaultVersion is used when a definition carries no version.
	DefaultVersion = "1.0.0"
)

// Format derives the wire projection of a definition. It is a pure transform:
// the source record is never mutated, and the output depends only on the
// definition and the supplied clock value (used when the source lacks
// timestamps).
func Format(def models.CredentialTypeDefinition, now time.Time) api.FormattedCredentialType {
	props := def.Schema.Properties
	if props == nil {
		props = map[string]models.Property{}
	}
	required := def.Schema.Required
	if required == nil {
		required = []string{}
	}

	version := def.Version
	if version == "" {
		version = DefaultVersion
	}

	fallback := now.UTC().Format(time.RFC3339)
	createdAt := def.CreatedAt
	if createdAt == "" {
		createdAt = fallback
	}
	updatedAt := def.UpdatedAt
	if updatedAt == "" {
		updatedAt = fallback
	}

	status := "inactive"
	if def.IsActive {
		status = "active"
	}

	return api.FormattedCredentialType{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Version:     version,
		Schema: api.FormattedSchema{
			Schema:               schemaDraft,
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: false,
		},
		Display: api.Display{
			Name:            def.Name,
			Description:     def.Description,
			Locale:          displayLocale,
			BackgroundColor: displayBackground,
			TextColor:       displayText,
		},
		IssuanceConfig: api.IssuanceConfig{
			ValidityPeriod: validityPeriodDays,
			Issuer:         issuerURL,
			Context:        []string{credentialContext},
			Type:           []string{"VerifiableCredential", CredentialTypeName(def.Name)},
			Revocable:      true,
			BatchIssuance:  false,
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Status:    status,
	}
}

// CredentialTypeName builds the synthetic VC type name: the definition name
// with all whitespace removed, suffixed with "Credential".
func CredentialTypeName(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return stripped + "Credential"
}

// ValidateDefinition checks the registry invariants of a single definition:
// a non-empty ID and every required field naming a schema property.
func ValidateDefinition(def models.CredentialTypeDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("credential type %q: missing id", def.Name)
	}
	for _, field := range def.Schema.Required {
		if _, ok := def.Schema.Properties[field]; !ok {
			return fmt.Errorf("credential type %s: required field %q is not a schema property", def.ID, field)
		}
	}
	return nil
}
