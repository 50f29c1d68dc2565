package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "vcm.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, DefaultStudentLoginURL, cfg.StudentLoginURL)
	assert.Equal(t, 20*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 200, cfg.LogCapacity)
	assert.False(t, cfg.HealthRequireAuth)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VCM_API_PORT", "9090")
	t.Setenv("VCM_STUDENT_LOGIN_URL", "http://localhost:3000")
	t.Setenv("VCM_SYNC_TIMEOUT", "5s")
	t.Setenv("VCM_HEALTH_REQUIRE_AUTH", "true")

	cfg := FromEnv()

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "http://localhost:3000", cfg.StudentLoginURL)
	assert.Equal(t, 5*time.Second, cfg.SyncTimeout)
	assert.True(t, cfg.HealthRequireAuth)
}

func TestSyncCandidatesOrder(t *testing.T) {
	cfg := &Config{StudentLoginURL: "https://example.com/"}

	candidates := cfg.SyncCandidates()
	assert.Equal(t, []string{
		"https://example.com/api/vcm/credential-types/sync",
		"https://example.com/api/admin/credential-types/sync",
		"https://example.com/api/sync/credential-types",
		"https://example.com/api/credential-types/sync",
	}, candidates)
}
