package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/accounting
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.85, cfg.Classifier.SimilarityThreshold)
	assert.Equal(t, 200, cfg.Classifier.CandidateLimit)
	assert.Equal(t, []int{3, 7, 14, 30}, cfg.Resend.IntervalDays)
	assert.Equal(t, 3, cfg.Resend.MaxResendCount)
	assert.Equal(t, 30, cfg.Resend.WindowDays)
	assert.Equal(t, 50, cfg.Resend.BatchLimit)
	assert.Equal(t, 1, cfg.Resend.DelaySeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://localhost/accounting
classifier:
  similarity_threshold: 0.9
resend:
  interval_days: [1, 2, 4]
  max_resend_count: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Classifier.SimilarityThreshold)
	assert.Equal(t, []int{1, 2, 4}, cfg.Resend.IntervalDays)
	assert.Equal(t, 2, cfg.Resend.MaxResendCount)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"threshold out of range", func(c *Config) { c.Classifier.SimilarityThreshold = 1.5 }},
		{"non-ascending intervals", func(c *Config) { c.Resend.IntervalDays = []int{7, 3} }},
		{"negative max resend", func(c *Config) { c.Resend.MaxResendCount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Database: DatabaseConfig{URL: "postgres://x"}}
			cfg.applyDefaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/accounting
`)
	t.Setenv("DATABASE_URL", "postgres://prod-host/accounting")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.jp, https://admin.example.jp")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://prod-host/accounting", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.Auth.CronSecret)
	assert.Equal(t, []string{"https://app.example.jp", "https://admin.example.jp"}, cfg.Server.AllowedOrigins)
}

func TestLoadFromEnv_RejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/accounting
resend:
  interval_days: [30, 14, 7, 3]
`)
	_, err := LoadFromEnv(path)
	assert.Error(t, err, "incoherent settings must not reach the composition roots")

	path = writeConfig(t, `
database:
  url: postgres://localhost/accounting
classifier:
  similarity_threshold: 1.5
`)
	_, err = LoadFromEnv(path)
	assert.Error(t, err)
}
