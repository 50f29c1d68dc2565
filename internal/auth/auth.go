// Package auth implements the API key and bearer token checks.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"strings"
)

// SyncKeyPrefix marks keys issued by the Student Login Site.
const SyncKeyPrefix = "sl_"

// AdminTokenPrefix marks operator tokens accepted by the settings endpoints.
const AdminTokenPrefix = "admin_"

const (
	healthKeyPrefix = "health_"
	healthKeyLength = 26
)

var keyCharset = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// Validate reports whether a presented key authorizes access to the read
// endpoints. A key is valid when it equals the configured health secret or
// carries the sl_ prefix. An empty key is never valid.
func Validate(key, healthSecret string) bool {
	if key == "" {
		return false
	}
	if healthSecret != "" && subtle.ConstantTimeCompare([]byte(key), []byte(healthSecret)) == 1 {
		return true
	}
	return strings.HasPrefix(key, SyncKeyPrefix)
}

// ValidateSyncKey reports whether a key authorizes synchronization. Sync is a
// distinct authorization domain: the health secret does not apply here.
func ValidateSyncKey(key string) bool {
	return strings.HasPrefix(key, SyncKeyPrefix)
}

// BearerToken extracts the token from an Authorization header value. This is
// a format check only; no signature verification takes place.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// IsAdminToken reports whether a bearer token carries the operator prefix.
func IsAdminToken(token string) bool {
	return strings.HasPrefix(token, AdminTokenPrefix)
}

// GenerateHealthKey creates a new random health check secret.
func GenerateHealthKey() (string, error) {
	randomBytes := make([]byte, healthKeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	b := make([]byte, healthKeyLength)
	for i := range b {
		b[i] = keyCharset[int(randomBytes[i])%len(keyCharset)]
	}
	return healthKeyPrefix + string(b), nil
}
