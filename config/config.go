package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	backoffice "github.com/sulpet/backoffice"
)

// Config holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling; every key is also read
// from the environment via AutomaticEnv.
type Config struct {
	HTTPPort  string `mapstructure:"HTTP_PORT"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// CORS allow-list. FRONTEND_ORIGINS takes priority over the older
	// singular FRONTEND_ORIGIN; both are comma-separated origin patterns
	// (exact scheme+host, or globs like "https://app-*.vercel.app").
	FrontendOrigins string `mapstructure:"FRONTEND_ORIGINS"`
	FrontendOrigin  string `mapstructure:"FRONTEND_ORIGIN"`
	AllowAllOrigins bool   `mapstructure:"ALLOW_ALL_ORIGINS"`
	CORSDebug       bool   `mapstructure:"CORS_DEBUG"`

	SessionSecret   string  `mapstructure:"SESSION_SECRET"`
	SessionTTLHours float64 `mapstructure:"SESSION_TTL_HOURS"`

	// Credential sources, in resolution priority order (see
	// backoffice.ResolveCredentials). AUTH_USERS and USERS_LIST are the
	// same delimited format; AUTH_USERS wins when both are set.
	UsersJSON string `mapstructure:"USERS_JSON"`
	AuthUsers string `mapstructure:"AUTH_USERS"`
	UsersList string `mapstructure:"USERS_LIST"`
	AdminUser string `mapstructure:"ADMIN_USER"`
	AdminPass string `mapstructure:"ADMIN_PASS"`

	DataDir         string `mapstructure:"DATA_DIR"`
	BackupRetention int    `mapstructure:"BACKUP_RETENTION"`
}

// LoadConfig reads configuration from environment variables and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults double as key registrations so AutomaticEnv picks the
	// values up during Unmarshal.
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("FRONTEND_ORIGINS", "")
	v.SetDefault("FRONTEND_ORIGIN", "")
	v.SetDefault("ALLOW_ALL_ORIGINS", false)
	v.SetDefault("CORS_DEBUG", false)
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL_HOURS", 2.0)
	v.SetDefault("USERS_JSON", "")
	v.SetDefault("AUTH_USERS", "")
	v.SetDefault("USERS_LIST", "")
	v.SetDefault("ADMIN_USER", "")
	v.SetDefault("ADMIN_PASS", "")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("BACKUP_RETENTION", 20)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects configurations that must not reach production, namely
// running without an explicit session secret.
func (c *Config) Validate() error {
	if c.IsProduction() && c.SessionSecret == "" {
		return backoffice.ErrSecretRequired
	}
	return nil
}

// Origins returns the CORS allow-list: FRONTEND_ORIGINS split on commas,
// falling back to FRONTEND_ORIGIN, entries trimmed and empties dropped.
func (c *Config) Origins() []string {
	raw := c.FrontendOrigins
	if raw == "" {
		raw = c.FrontendOrigin
	}

	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// SessionTTL converts SESSION_TTL_HOURS to a duration, floored at one
// second. Fractional hours are allowed.
func (c *Config) SessionTTL() time.Duration {
	ttl := time.Duration(c.SessionTTLHours * float64(time.Hour))
	if ttl < backoffice.MinSessionTTL {
		return backoffice.MinSessionTTL
	}
	return ttl
}

// CredentialSource maps the configured credential values to the resolver's
// input. AUTH_USERS and USERS_LIST share the delimited slot.
func (c *Config) CredentialSource() backoffice.CredentialSource {
	list := c.AuthUsers
	if list == "" {
		list = c.UsersList
	}
	return backoffice.CredentialSource{
		UsersJSON: c.UsersJSON,
		UsersList: list,
		AdminUser: c.AdminUser,
		AdminPass: c.AdminPass,
	}
}
