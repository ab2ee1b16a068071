package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "app-context", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, "en", cfg.App.Locale)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_AppContextDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	ac := cfg.AppContext
	assert.True(t, ac.Enabled)
	assert.Equal(t, DefaultProviders, ac.Providers)
	assert.True(t, ac.Cache.Enabled)
	assert.Zero(t, ac.Cache.TTL)
	assert.Empty(t, ac.Static)

	require.Contains(t, ac.Channels, "log")
	assert.True(t, ac.Channels["log"].Enabled)
}

func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Client.CircuitBreaker.Timeout)
}

func TestLoad_LogFileDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, "./logs/app.log", cfg.Log.File.Path)
	assert.Equal(t, DefaultLogFileMaxSizeMB, cfg.Log.File.MaxSizeMB)
	assert.Equal(t, DefaultLogFileMaxBackups, cfg.Log.File.MaxBackups)
	assert.Equal(t, DefaultLogFileMaxAgeDays, cfg.Log.File.MaxAgeDays)
	assert.True(t, cfg.Log.File.Compress)
}

func TestLoad_AuthHeaderDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "X-User-ID", cfg.Auth.SubjectHeader)
	assert.Equal(t, "X-User-Roles", cfg.Auth.RolesHeader)
	assert.Equal(t, "X-User-Scopes", cfg.Auth.ScopesHeader)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "simple keys",
			env:  map[string]string{"APP_SERVER_PORT": "9090", "APP_LOG_LEVEL": "warn"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Log.Level)
			},
		},
		{
			name: "keys containing underscores",
			env: map[string]string{
				"APP_SERVER_READ_TIMEOUT":   "45s",
				"APP_APP_CONTEXT_ENABLED":   "false",
				"APP_APP_CONTEXT_CACHE_TTL": "1m",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
				assert.False(t, cfg.AppContext.Enabled)
				assert.Equal(t, time.Minute, cfg.AppContext.Cache.TTL)
			},
		},
		{
			name: "booleans",
			env:  map[string]string{"APP_TELEMETRY_ENABLED": "true", "APP_APP_DEBUG": "true"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Telemetry.Enabled)
				assert.True(t, cfg.App.Debug)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadFrom(t.TempDir(), "")
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
app:
  name: billing
  environment: dev
app_context:
  providers: [timestamp, app, static]
  static:
    - name: region
      values:
        region: eu-west-1
    - name: beta
      when: app.env == "staging"
      values:
        features:
          beta: true
`)
	writeConfig(t, dir, "staging.yaml", `
app:
  environment: staging
app_context:
  channels:
    webhook:
      enabled: true
      url: https://hooks.example.com/context
      timeout: 2s
`)
	t.Setenv("APP_APP_NAME", "billing-api")

	cfg, err := LoadFrom(dir, "staging")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "billing-api", cfg.App.Name)
	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, []string{"timestamp", "app", "static"}, cfg.AppContext.Providers)

	require.Len(t, cfg.AppContext.Static, 2)
	assert.Equal(t, "region", cfg.AppContext.Static[0].Name)
	assert.Equal(t, "eu-west-1", cfg.AppContext.Static[0].Values["region"])
	assert.Equal(t, `app.env == "staging"`, cfg.AppContext.Static[1].When)

	webhook := cfg.AppContext.Channels["webhook"]
	assert.True(t, webhook.Enabled)
	assert.Equal(t, "https://hooks.example.com/context", webhook.URL)
	assert.Equal(t, 2*time.Second, webhook.Timeout)
	assert.True(t, cfg.AppContext.Channels["log"].Enabled)
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "app-context", cfg.App.Name)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "app: [unterminated")

	_, err := LoadFrom(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

func TestEnvKeyMapper(t *testing.T) {
	mapper := envKeyMapper([]string{"server.read_timeout", "app_context.cache.ttl", "log.level"})

	tests := []struct {
		env      string
		expected string
	}{
		{"APP_SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"APP_APP_CONTEXT_CACHE_TTL", "app_context.cache.ttl"},
		{"APP_LOG_LEVEL", "log.level"},
		{"APP_UNKNOWN_KEY", "unknown.key"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapper(tt.env))
		})
	}
}
