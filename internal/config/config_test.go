package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8000), cfg.HTTP.Port)
	assert.Equal(t, []string{DefaultCORSOrigin}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, StorageNone, cfg.Storage.Driver)
	assert.Equal(t, "0 3 * * *", cfg.Tasks.TokenCleanupSchedule)
	assert.False(t, cfg.Demo.Enabled)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost/db")
	t.Setenv("AUTH_TOKEN_EXPIRY", "2h")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("DEMO_MODE", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSAllowOrigins)
	assert.True(t, cfg.Demo.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Global:   Global{LogMode: LogModeDevelopment},
			Database: Database{Driver: DriverSQLite, Path: ":memory:"},
			Storage:  Storage{Driver: StorageNone},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "sqlite without secret in development", mutate: func(c *Config) {}},
		{
			name:    "unknown database driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: ErrUnknownDriver,
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "ftp" },
			wantErr: ErrUnknownStorage,
		},
		{
			name:    "production requires a jwt secret",
			mutate:  func(c *Config) { c.Global.LogMode = LogModeProduction },
			wantErr: ErrMissingJWTSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("postgres requires a dsn", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = DriverPostgres
		assert.Error(t, cfg.Validate())
	})
}
