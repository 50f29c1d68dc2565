package auth

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		healthSecret string
		want         bool
	}{
		{
			name: "empty key",
			key:  "",
			want: false,
		},
		{
			name:         "empty key with secret configured",
			key:          "",
			healthSecret: "health_abc",
			want:         false,
		},
		{
			name: "sl prefix",
			key:  "sl_abc123",
			want: true,
		},
		{
			name: "wrong prefix",
			key:  "bad_key",
			want: false,
		},
		{
			name:         "matches health secret",
			key:          "health_xyz789",
			healthSecret: "health_xyz789",
			want:         true,
		},
		{
			name:         "health secret mismatch",
			key:          "health_other",
			healthSecret: "health_xyz789",
			want:         false,
		},
		{
			name:         "sl prefix wins regardless of secret",
			key:          "sl_abc123",
			healthSecret: "health_xyz789",
			want:         true,
		},
		{
			name: "prefix must be at the start",
			key:  "xsl_abc",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.key, tt.healthSecret); got != tt.want {
				t.Errorf("Validate(%q, %q) = %v, want %v", tt.key, tt.healthSecret, got, tt.want)
			}
		})
	}
}

func TestValidateSyncKey(t *testing.T) {
	if !ValidateSyncKey("sl_abc123") {
		t.Error("ValidateSyncKey should accept sl_ keys")
	}
	if ValidateSyncKey("health_xyz789") {
		t.Error("ValidateSyncKey should not accept the health secret domain")
	}
	if ValidateSyncKey("") {
		t.Error("ValidateSyncKey should reject an empty key")
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer sl_abc123")
	if !ok || token != "sl_abc123" {
		t.Errorf("BearerToken = %q, %v, want sl_abc123, true", token, ok)
	}

	if _, ok := BearerToken(""); ok {
		t.Error("BearerToken should reject an empty header")
	}
	if _, ok := BearerToken("Basic dXNlcjpwYXNz"); ok {
		t.Error("BearerToken should reject non-Bearer schemes")
	}
	if _, ok := BearerToken("bearer sl_abc"); ok {
		t.Error("BearerToken scheme check is case-sensitive")
	}
}

func TestIsAdminToken(t *testing.T) {
	if !IsAdminToken("admin_sync_token") {
		t.Error("IsAdminToken should accept admin_ tokens")
	}
	if IsAdminToken("sl_abc123") {
		t.Error("IsAdminToken should reject non-admin tokens")
	}
}

func TestGenerateHealthKey(t *testing.T) {
	key, err := GenerateHealthKey()
	if err != nil {
		t.Fatalf("GenerateHealthKey failed: %v", err)
	}

	if !strings.HasPrefix(key, "health_") {
		t.Errorf("key %q does not carry the health_ prefix", key)
	}

	suffix := strings.TrimPrefix(key, "health_")
	if len(suffix) != healthKeyLength {
		t.Errorf("suffix length = %d, want %d", len(suffix), healthKeyLength)
	}
	for _, c := range suffix {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			t.Errorf("suffix contains invalid character: %c", c)
		}
	}

	other, err := GenerateHealthKey()
	if err != nil {
		t.Fatalf("GenerateHealthKey failed: %v", err)
	}
	if key == other {
		t.Error("GenerateHealthKey should not repeat")
	}

	// A generated health secret must not leak into the sync domain.
	if ValidateSyncKey(key) {
		t.Error("generated health key should not validate as a sync key")
	}
}
