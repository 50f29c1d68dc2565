package schema

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/fujie/v0-vcm/internal/models"
)

func studentIDCard() models.CredentialTypeDefinition {
	return models.CredentialTypeDefinition{
		ID:          "1",
		Name:        "学生証",
		Description: "大学の学生証明書",
		Version:     "1.0",
		Schema: models.CredentialSchema{
			Type: "object",
			Properties: map[string]models.Property{
				"studentId": {Type: "string", Title: "学籍番号"},
				"name":      {Type: "string", Title: "氏名"},
			},
			Required: []string{"studentId", "name"},
		},
		IsActive:  true,
		CreatedAt: "2024-01-15",
		UpdatedAt: "2024-01-15",
	}
}

func TestFormat(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got := Format(studentIDCard(), now)

	if got.Schema.Schema != "https://json-schema.org/draft/2020-12/schema" {
		t.Errorf("schema draft = %q", got.Schema.Schema)
	}
	if got.Schema.AdditionalProperties {
		t.Error("additionalProperties must be false")
	}
	if !reflect.DeepEqual(got.Schema.Required, []string{"studentId", "name"}) {
		t.Errorf("required = %v", got.Schema.Required)
	}

	wantType := []string{"VerifiableCredential", "学生証Credential"}
	if !reflect.DeepEqual(got.IssuanceConfig.Type, wantType) {
		t.Errorf("issuanceConfig.type = %v, want %v", got.IssuanceConfig.Type, wantType)
	}
	if got.IssuanceConfig.ValidityPeriod != 365 {
		t.Errorf("validityPeriod = %d, want 365", got.IssuanceConfig.ValidityPeriod)
	}
	if !got.IssuanceConfig.Revocable || got.IssuanceConfig.BatchIssuance {
		t.Error("issuanceConfig flags: want revocable, no batch issuance")
	}

	if got.Display.Locale != "ja-JP" || got.Display.BackgroundColor != "#1e40af" || got.Display.TextColor != "#ffffff" {
		t.Errorf("display block = %+v", got.Display)
	}

	if got.Status != "active" {
		t.Errorf("status = %q, want active", got.Status)
	}
	if got.CreatedAt != "2024-01-15" {
		t.Errorf("createdAt = %q, source timestamps must pass through", got.CreatedAt)
	}
}

func TestFormatStatusInactive(t *testing.T) {
	def := studentIDCard()
	def.IsActive = false

	got := Format(def, time.Now())
	if got.Status != "inactive" {
		t.Errorf("status = %q, want inactive", got.Status)
	}
}

func TestFormatDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	def := models.CredentialTypeDefinition{ID: "x", Name: "Test Type"}

	got := Format(def, now)

	if got.Version != DefaultVersion {
		t.Errorf("version = %q, want %q", got.Version, DefaultVersion)
	}
	if got.Schema.Properties == nil || len(got.Schema.Properties) != 0 {
		t.Errorf("missing properties must format as an empty map, got %v", got.Schema.Properties)
	}
	if got.Schema.Required == nil || len(got.Schema.Required) != 0 {
		t.Errorf("missing required must format as an empty list, got %v", got.Schema.Required)
	}

	want := now.Format(time.RFC3339)
	if got.CreatedAt != want || got.UpdatedAt != want {
		t.Errorf("timestamps = %q/%q, want fallback %q", got.CreatedAt, got.UpdatedAt, want)
	}
}

func TestFormatDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	def := studentIDCard()

	first, err := json.Marshal(Format(def, now))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(Format(def, now))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Error("Format is not deterministic for identical input")
	}
}

func TestCredentialTypeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no whitespace", "学生証", "学生証Credential"},
		{"ascii spaces", "Student ID Card", "StudentIDCardCredential"},
		{"tabs and newlines", "a\tb\nc", "abcCredential"},
		{"ideographic space", "学生　証", "学生証Credential"},
		{"empty", "", "Credential"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CredentialTypeName(tt.in); got != tt.want {
				t.Errorf("CredentialTypeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateDefinition(t *testing.T) {
	def := studentIDCard()
	if err := ValidateDefinition(def); err != nil {
		t.Errorf("valid definition rejected: %v", err)
	}

	def.Schema.Required = append(def.Schema.Required, "department")
	if err := ValidateDefinition(def); err == nil {
		t.Error("required field without a matching property must be rejected")
	}

	if err := ValidateDefinition(models.CredentialTypeDefinition{Name: "no id"}); err == nil {
		t.Error("definition without an id must be rejected")
	}
}
