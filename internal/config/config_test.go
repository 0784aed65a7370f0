package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VERIFICATION_TTL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("API_BASE_URL", "")

	cfg := Load()
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, StoreDynamo, cfg.StoreBackend)
	assert.Equal(t, IdentityJWT, cfg.IdentityProvider)
	assert.Equal(t, 15*time.Minute, cfg.VerificationTTL)
	assert.Equal(t, 8*time.Second, cfg.ExternalTimeout)
	assert.Equal(t, "pending_verifications", cfg.DynamoTables.PendingVerifications)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "http://localhost:3000", cfg.APIBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "BOLT")
	t.Setenv("VERIFICATION_TTL", "5m")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, StoreBolt, cfg.StoreBackend)
	assert.Equal(t, 5*time.Minute, cfg.VerificationTTL)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestGetEnvDuration_RejectsNonPositive(t *testing.T) {
	t.Setenv("EXTERNAL_TIMEOUT", "0s")
	assert.Equal(t, 8*time.Second, Load().ExternalTimeout)

	t.Setenv("EXTERNAL_TIMEOUT", "garbage")
	assert.Equal(t, 8*time.Second, Load().ExternalTimeout)
}
