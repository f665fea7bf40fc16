package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds settings for both the insight server and the tracking agent.
// Values come from the YAML file and are overridden by environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Groq     GroqConfig     `yaml:"groq"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Auth     AuthConfig     `yaml:"auth"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Backend  BackendConfig  `yaml:"backend"`
	Tracking TrackingConfig `yaml:"tracking"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

type ServerConfig struct {
	Port               int           `yaml:"port" env:"PORT" env-default:"3001"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	TrackRateLimit     int           `yaml:"track_rate_limit" env:"TRACK_RATE_LIMIT" env-default:"600"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// IngestConfig tunes the /api/track pipeline
type IngestConfig struct {
	Concurrency         int           `yaml:"concurrency" env:"INGEST_CONCURRENCY" env-default:"4"`
	IntegrationCacheTTL time.Duration `yaml:"integration_cache_ttl" env:"INGEST_INTEGRATION_CACHE_TTL" env-default:"30s"`
	RequestTimeout      time.Duration `yaml:"request_timeout" env:"INGEST_REQUEST_TIMEOUT" env-default:"15s"`
	MaxBodyBytes        int64         `yaml:"max_body_bytes" env:"INGEST_MAX_BODY_BYTES" env-default:"1048576"`
}

type GroqConfig struct {
	APIKey           string        `yaml:"api_key" env:"GROQ_API_KEY"`
	BaseURL          string        `yaml:"base_url" env:"GROQ_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	Model            string        `yaml:"model" env:"GROQ_MODEL" env-default:"llama-3.3-70b-versatile"`
	Temperature      float64       `yaml:"temperature" env:"GROQ_TEMPERATURE" env-default:"0.3"`
	Timeout          time.Duration `yaml:"timeout" env:"GROQ_TIMEOUT" env-default:"60s"`
	FailureThreshold uint32        `yaml:"failure_threshold" env:"GROQ_FAILURE_THRESHOLD" env-default:"5"`
	OpenTimeout      time.Duration `yaml:"open_timeout" env:"GROQ_OPEN_TIMEOUT" env-default:"1m"`
}

// FirebaseConfig carries the service-account fields older deployments set.
// The document store is local SQLite, so they are only recognised and reported.
type FirebaseConfig struct {
	Type                    string `yaml:"type" env:"FIREBASE_TYPE"`
	ProjectID               string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	PrivateKeyID            string `yaml:"private_key_id" env:"FIREBASE_PRIVATE_KEY_ID"`
	PrivateKey              string `yaml:"private_key" env:"FIREBASE_PRIVATE_KEY"`
	ClientEmail             string `yaml:"client_email" env:"FIREBASE_CLIENT_EMAIL"`
	ClientID                string `yaml:"client_id" env:"FIREBASE_CLIENT_ID"`
	AuthURI                 string `yaml:"auth_uri" env:"FIREBASE_AUTH_URI"`
	TokenURI                string `yaml:"token_uri" env:"FIREBASE_TOKEN_URI"`
	AuthProviderX509CertURL string `yaml:"auth_provider_x509_cert_url" env:"FIREBASE_AUTH_PROVIDER_X509_CERT_URL"`
	ClientX509CertURL       string `yaml:"client_x509_cert_url" env:"FIREBASE_CLIENT_X509_CERT_URL"`
}

// Configured reports whether any service-account field is set
func (f FirebaseConfig) Configured() bool {
	return f.ProjectID != "" || f.ClientEmail != "" || f.PrivateKey != ""
}

// Key returns the private key with escaped newlines expanded
func (f FirebaseConfig) Key() string {
	return strings.ReplaceAll(f.PrivateKey, `\n`, "\n")
}

type AuthConfig struct {
	// JWTSecret enables bearer-token checks on dashboard endpoints when set
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"`
}

type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled" env:"MIRROR_ENABLED" env-default:"false"`
	Backend   string `yaml:"backend" env:"MIRROR_BACKEND" env-default:"file"`
	SaveEvery int    `yaml:"save_every" env:"MIRROR_SAVE_EVERY" env-default:"100"`
}

// BackendConfig is the agent's view of the ingestion server
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_URL" env-default:"http://localhost:3001"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"10s"`
}

type TrackingConfig struct {
	FlushInterval   time.Duration `yaml:"flush_interval" env:"TRACKING_FLUSH_INTERVAL" env-default:"5s"`
	BatchSize       int           `yaml:"batch_size" env:"TRACKING_BATCH_SIZE" env-default:"0"`
	ScrollThreshold float64       `yaml:"scroll_threshold" env:"TRACKING_SCROLL_THRESHOLD" env-default:"50"`
	SessionFile     string        `yaml:"session_file" env:"TRACKING_SESSION_FILE"`
	UnloadTimeout   time.Duration `yaml:"unload_timeout" env:"TRACKING_UNLOAD_TIMEOUT" env-default:"2s"`
}

// LoadConfig reads the YAML file at path (when it exists) and applies environment overrides
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		} else if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("ingest.concurrency must be at least 1, got %d", c.Ingest.Concurrency)
	}
	if c.Ingest.IntegrationCacheTTL < 0 {
		return errors.New("ingest.integration_cache_ttl must not be negative")
	}
	if c.Tracking.FlushInterval <= 0 {
		return errors.New("tracking.flush_interval must be positive")
	}
	if c.Tracking.BatchSize < 0 {
		return errors.New("tracking.batch_size must not be negative")
	}
	if c.Tracking.ScrollThreshold < 0 {
		return errors.New("tracking.scroll_threshold must not be negative")
	}
	switch c.Mirror.Backend {
	case "file", "sqlite", "badger":
	default:
		return fmt.Errorf("mirror.backend must be one of file, sqlite, badger, got %q", c.Mirror.Backend)
	}
	if c.Mirror.SaveEvery < 1 {
		return fmt.Errorf("mirror.save_every must be at least 1, got %d", c.Mirror.SaveEvery)
	}
	return nil
}

// DatabasePath is the SQLite file backing the document store
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "insights.db")
}

// MirrorPath is where the event mirror keeps its data for the configured backend
func (c *Config) MirrorPath() string {
	switch c.Mirror.Backend {
	case "badger":
		return filepath.Join(c.DataDir, "mirror")
	default:
		return filepath.Join(c.DataDir, "user-events.json")
	}
}

// SessionPath is where the agent persists its session identifier
func (c *Config) SessionPath() string {
	if c.Tracking.SessionFile != "" {
		return c.Tracking.SessionFile
	}
	return filepath.Join(c.DataDir, "session.json")
}
