// Package config loads the service configuration from a YAML file with
// environment variable overrides (.env supported via godotenv).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	SES        SESConfig        `yaml:"ses"`
	Storage    StorageConfig    `yaml:"storage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Resend     ResendConfig     `yaml:"resend"`
	Auth       AuthConfig       `yaml:"auth"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds optional Redis settings. When Addr is empty the service
// falls back to Postgres advisory locks for scheduler coordination.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis endpoint is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// SESConfig holds AWS SES credentials for outbound mail.
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	ReplyTo   string `yaml:"reply_to"`
}

// StorageConfig holds S3 settings for the receipt image archive.
type StorageConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	AWSProfile string `yaml:"aws_profile"`
}

// ClassifierConfig holds the retrieval classifier knobs. The similarity
// threshold and candidate limit are product decisions carried over from the
// original system; treat changes as product calls, not tuning.
type ClassifierConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	CandidateLimit      int     `yaml:"candidate_limit"`
}

// ResendConfig holds the resend scheduler knobs.
type ResendConfig struct {
	Enabled        bool  `yaml:"enabled"`
	IntervalDays   []int `yaml:"interval_days"`
	MaxResendCount int   `yaml:"max_resend_count"`
	WindowDays     int   `yaml:"window_days"`
	BatchLimit     int   `yaml:"batch_limit"`
	DelaySeconds   int   `yaml:"delay_seconds"`
	TickHourUTC    int   `yaml:"tick_hour_utc"`
	LockTTLSeconds int   `yaml:"lock_ttl_seconds"`
}

// Delay returns the configured inter-record delay.
func (c ResendConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

// LockTTL returns the scheduler lock TTL.
func (c ResendConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// AuthConfig holds the shared secret protecting trigger endpoints.
type AuthConfig struct {
	CronSecret string `yaml:"cron_secret"`
}

// Load reads and parses the YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "ap-northeast-1"
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = cfg.SES.Region
	}
	if cfg.Classifier.SimilarityThreshold == 0 {
		cfg.Classifier.SimilarityThreshold = 0.85
	}
	if cfg.Classifier.CandidateLimit == 0 {
		cfg.Classifier.CandidateLimit = 200
	}
	if len(cfg.Resend.IntervalDays) == 0 {
		cfg.Resend.IntervalDays = []int{3, 7, 14, 30}
	}
	if cfg.Resend.MaxResendCount == 0 {
		cfg.Resend.MaxResendCount = 3
	}
	if cfg.Resend.WindowDays == 0 {
		cfg.Resend.WindowDays = 30
	}
	if cfg.Resend.BatchLimit == 0 {
		cfg.Resend.BatchLimit = 50
	}
	if cfg.Resend.DelaySeconds == 0 {
		cfg.Resend.DelaySeconds = 1
	}
	if cfg.Resend.TickHourUTC == 0 {
		cfg.Resend.TickHourUTC = 0 // midnight UTC = 09:00 JST
	}
	if cfg.Resend.LockTTLSeconds == 0 {
		cfg.Resend.LockTTLSeconds = 600
	}
}

// Validate checks that required settings are present and coherent.
func (cfg *Config) Validate() error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if cfg.Classifier.SimilarityThreshold <= 0 || cfg.Classifier.SimilarityThreshold >= 1 {
		return fmt.Errorf("classifier.similarity_threshold must be in (0,1), got %v", cfg.Classifier.SimilarityThreshold)
	}
	prev := 0
	for _, d := range cfg.Resend.IntervalDays {
		if d <= prev {
			return fmt.Errorf("resend.interval_days must be strictly ascending, got %v", cfg.Resend.IntervalDays)
		}
		prev = d
	}
	if cfg.Resend.MaxResendCount < 0 {
		return fmt.Errorf("resend.max_resend_count must be >= 0")
	}
	return nil
}

// LoadFromEnv loads the config file, then overrides settings from the
// environment. A .env file is honored if present.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SES_FROM_EMAIL"); v != "" {
		cfg.SES.FromEmail = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.Storage.S3Region = v
	}
	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Auth.CronSecret = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
