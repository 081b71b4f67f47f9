package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takmir/kas/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("API_BASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.EnvDevelopment, cfg.App.Env)
	assert.Equal(t, 8081, cfg.DevAPI.Port)

	base, err := cfg.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/api", base)
}

func TestConfig_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    string
		wantErr bool
	}{
		{
			name: "ProductionOrigin",
			env:  map[string]string{"APP_ENV": "production", "API_PROD_URL": "https://kas.example.org/api/"},
			want: "https://kas.example.org/api",
		},
		{
			name:    "ProductionMissingOrigin",
			env:     map[string]string{"APP_ENV": "production", "API_PROD_URL": ""},
			wantErr: true,
		},
		{
			name: "ExplicitOverride",
			env:  map[string]string{"APP_ENV": "production", "API_BASE_URL": "http://10.0.0.2:9000/api"},
			want: "http://10.0.0.2:9000/api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load()
			require.NoError(t, err)

			got, err := cfg.BaseURL()
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrMissingProdURL)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("APP_ENV", "staging")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConfig_LogLevel(t *testing.T) {
	var cfg config.Config

	cfg.Log.Level = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	cfg.Log.Level = "loud"
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}
