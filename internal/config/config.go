// Package config provides configuration loading and validation for the CLI,
// the HTTP server and the queue worker.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-reviewer/internal/llm"
)

// R2Config locates resumes uploaded to Cloudflare R2 or any S3-compatible store.
type R2Config struct {
	AccountID string `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	// Endpoint overrides the account-derived R2 endpoint (MinIO, AWS S3)
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Enabled reports whether enough is configured to download objects.
func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != "" && (c.AccountID != "" || c.Endpoint != "")
}

// Config is the merged configuration of every command. It can be loaded
// from a JSON or YAML file; environment variables and flags take precedence.
type Config struct {
	// LLM
	APIKey      string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,oneof=gemini genai"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	Project     string   `json:"project,omitempty" yaml:"project,omitempty"`   // Vertex AI project (genai provider)
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"` // Vertex AI location

	// Retries: 0 keeps the default, -1 disables retries
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"gte=-1,lte=10"`
	RetryBackoffMs int `json:"retry_backoff_ms,omitempty" yaml:"retry_backoff_ms,omitempty" validate:"gte=0,lte=60000"`

	// Store is the checkpoint URL: memory://, bolt:///path or postgres://...
	Store string `json:"store,omitempty" yaml:"store,omitempty"`

	// Services
	Addr      string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	AMQPURL   string   `json:"amqp_url,omitempty" yaml:"amqp_url,omitempty" validate:"omitempty,url"`
	Queue     string   `json:"queue,omitempty" yaml:"queue,omitempty"`
	Workers   int      `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=0,lte=64"`
	R2        R2Config `json:"r2,omitempty" yaml:"r2,omitempty"`
	JWTSecret string   `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	// APIKeyHashes are bcrypt hashes of static keys the server accepts
	APIKeyHashes []string `json:"api_key_hashes,omitempty" yaml:"api_key_hashes,omitempty"`

	// Output
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=json console"`
	Verbose   bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the values used for anything left unset.
func Defaults() Config {
	temperature := llm.DefaultTemperature
	return Config{
		Provider:       string(llm.ProviderGemini),
		Model:          llm.DefaultModel,
		Temperature:    &temperature,
		RetryBackoffMs: int(llm.DefaultRetryBackoff / time.Millisecond),
		Store:          "memory://",
		Addr:           ":8080",
		Queue:          "sessions",
		Workers:        3,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension (.yaml and .yml are YAML, anything else JSON).
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// ApplyEnv overlays values set in the environment. getenv is usually
// os.Getenv; GEMINI_KEY is read when GEMINI_API_KEY is unset, and
// DATABASE_URL when RESUME_REVIEWER_STORE is unset.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.APIKey, "GEMINI_API_KEY", "GEMINI_KEY")
	set(&c.Provider, "LLM_PROVIDER")
	set(&c.Model, "GEMINI_MODEL")
	set(&c.Project, "GOOGLE_CLOUD_PROJECT")
	set(&c.Location, "GOOGLE_CLOUD_LOCATION")
	set(&c.Store, "RESUME_REVIEWER_STORE", "DATABASE_URL")
	set(&c.Addr, "ADDR")
	set(&c.AMQPURL, "AMQP_URL", "RABBITMQ_URL")
	set(&c.Queue, "AMQP_QUEUE")
	set(&c.R2.AccountID, "R2_ACCOUNT_ID")
	set(&c.R2.Bucket, "R2_BUCKET")
	set(&c.R2.AccessKey, "R2_ACCESS_KEY")
	set(&c.R2.SecretKey, "R2_SECRET_KEY")
	set(&c.R2.Endpoint, "R2_ENDPOINT")
	set(&c.JWTSecret, "JWT_SECRET")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.LogFormat, "LOG_FORMAT")

	if v := strings.TrimSpace(getenv("PORT")); v != "" && c.Addr == "" {
		c.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := strings.TrimSpace(getenv("WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(getenv("LLM_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
		}
		c.MaxRetries = n
	}
	if v := strings.TrimSpace(getenv("API_KEY_HASHES")); v != "" {
		c.APIKeyHashes = nil
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				c.APIKeyHashes = append(c.APIKeyHashes, h)
			}
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and enumerations.
// Required values are checked by the command that needs them.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config error: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("'%s' fails %s %s", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.Provider, defaults.Provider)
	fill(&result.Model, defaults.Model)
	fill(&result.Project, defaults.Project)
	fill(&result.Location, defaults.Location)
	fill(&result.Store, defaults.Store)
	fill(&result.Addr, defaults.Addr)
	fill(&result.AMQPURL, defaults.AMQPURL)
	fill(&result.Queue, defaults.Queue)
	fill(&result.JWTSecret, defaults.JWTSecret)
	fill(&result.LogLevel, defaults.LogLevel)
	fill(&result.LogFormat, defaults.LogFormat)
	if result.R2 == (R2Config{}) {
		result.R2 = defaults.R2
	}

	if result.Temperature == nil && defaults.Temperature != nil {
		t := *defaults.Temperature
		result.Temperature = &t
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.RetryBackoffMs == 0 {
		result.RetryBackoffMs = defaults.RetryBackoffMs
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if len(result.APIKeyHashes) == 0 {
		result.APIKeyHashes = append([]string(nil), defaults.APIKeyHashes...)
	}

	// Bools cannot distinguish unset from false, so flags always win

	return result
}

// LLMConfig converts the LLM settings for llm.NewClient.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if c.Provider != "" {
		cfg.Provider = llm.Provider(c.Provider)
	}
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.Temperature != nil {
		cfg.Temperature = *c.Temperature
	}
	cfg.Project = c.Project
	cfg.Location = c.Location
	return cfg
}

// RetryBackoff returns the configured base delay between retries.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}
