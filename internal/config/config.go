// Package config holds the server configuration loaded from flags and
// environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultStudentLoginURL is the consumer site schemas are pushed to.
const DefaultStudentLoginURL = "https://v0-student-login-site.vercel.app"

// syncEndpointPaths is the ordered candidate list probed by the sync engine.
// Earlier candidates are preferred; the order is load-bearing.
var syncEndpointPaths = []string{
	"/api/vcm/credential-types/sync",
	"/api/admin/credential-types/sync",
	"/api/sync/credential-types",
	"/api/credential-types/sync",
}

type Config struct {
	DBPath  string
	APIPort int

	Environment string

	// HealthAPIKey is the out-of-band health check secret; HealthRequireAuth
	// gates the health endpoint only when both are set.
	HealthAPIKey      string
	HealthRequireAuth bool

	// CredentialTypesData is an optional JSON seed for an empty registry.
	CredentialTypesData string

	StudentLoginURL string
	SyncTimeout     time.Duration
	ConnectTimeout  time.Duration

	LogCapacity int
}

// FromEnv builds a Config from VCM_* environment variables with built-in
// defaults. Flag bindings may override individual fields afterwards.
func FromEnv() *Config {
	return &Config{
		DBPath:              getEnv("VCM_DB", "vcm.db"),
		APIPort:             getEnvInt("VCM_API_PORT", 8080),
		Environment:         getEnv("VCM_ENV", "development"),
		HealthAPIKey:        os.Getenv("VCM_HEALTH_API_KEY"),
		HealthRequireAuth:   getEnvBool("VCM_HEALTH_REQUIRE_AUTH"),
		CredentialTypesData: os.Getenv("VCM_CREDENTIAL_TYPES_DATA"),
		StudentLoginURL:     getEnv("VCM_STUDENT_LOGIN_URL", DefaultStudentLoginURL),
		SyncTimeout:         getEnvDuration("VCM_SYNC_TIMEOUT", 20*time.Second),
		ConnectTimeout:      getEnvDuration("VCM_CONNECT_TIMEOUT", 5*time.Second),
		LogCapacity:         getEnvInt("VCM_LOG_CAPACITY", 200),
	}
}

// SyncCandidates resolves the ordered candidate paths against the configured
// Student Login Site URL.
func (c *Config) SyncCandidates() []string {
	base := strings.TrimSuffix(c.StudentLoginURL, "/")
	out := make([]string, 0, len(syncEndpointPaths))
	for _, path := range syncEndpointPaths {
		out = append(out, base+path)
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string) bool {
	return os.Getenv(key) == "true"
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
