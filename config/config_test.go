package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backoffice "github.com/sulpet/backoffice"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 20, cfg.BackupRetention)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("ALLOW_ALL_ORIGINS", "true")
	t.Setenv("SESSION_TTL_HOURS", "0.5")
	t.Setenv("AUTH_USERS", "a:1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.True(t, cfg.AllowAllOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, "a:1", cfg.AuthUsers)
}

func TestConfig_Origins(t *testing.T) {
	cfg := &Config{FrontendOrigins: " https://a.example ,, https://b.example "}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())

	cfg = &Config{FrontendOrigin: "https://only.example"}
	assert.Equal(t, []string{"https://only.example"}, cfg.Origins())

	cfg = &Config{FrontendOrigins: "https://plural.example", FrontendOrigin: "https://singular.example"}
	assert.Equal(t, []string{"https://plural.example"}, cfg.Origins(), "FRONTEND_ORIGINS wins")

	assert.Nil(t, (&Config{}).Origins())
}

func TestConfig_SessionTTLFloor(t *testing.T) {
	cfg := &Config{SessionTTLHours: 0}
	assert.Equal(t, backoffice.MinSessionTTL, cfg.SessionTTL())

	cfg = &Config{SessionTTLHours: -3}
	assert.Equal(t, backoffice.MinSessionTTL, cfg.SessionTTL())
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	assert.ErrorIs(t, cfg.Validate(), backoffice.ErrSecretRequired)

	cfg = &Config{Env: "production", SessionSecret: "real-secret"}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{Env: "development"}
	assert.NoError(t, cfg.Validate(), "development may run on the dev fallback")
}

func TestConfig_CredentialSourcePriority(t *testing.T) {
	cfg := &Config{AuthUsers: "a:1", UsersList: "b:2"}
	assert.Equal(t, "a:1", cfg.CredentialSource().UsersList, "AUTH_USERS wins over USERS_LIST")

	cfg = &Config{UsersList: "b:2"}
	assert.Equal(t, "b:2", cfg.CredentialSource().UsersList)
}
