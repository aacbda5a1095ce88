package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/verdant/pkg/agent"
	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/database"
	"github.com/JaimeStill/verdant/pkg/envvar"
	"github.com/JaimeStill/verdant/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvVerdantEnv             = "VERDANT_ENV"
	EnvVerdantShutdownTimeout = "VERDANT_SHUTDOWN_TIMEOUT"
	EnvVerdantVersion         = "VERDANT_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "VERDANT_DB_URL",
	Host:            "VERDANT_DB_HOST",
	Port:            "VERDANT_DB_PORT",
	Name:            "VERDANT_DB_NAME",
	User:            "VERDANT_DB_USER",
	Password:        "VERDANT_DB_PASSWORD",
	SSLMode:         "VERDANT_DB_SSL_MODE",
	MaxOpenConns:    "VERDANT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERDANT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERDANT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERDANT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "VERDANT_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERDANT_STORAGE_CONNECTION_STRING",
	KeyPrefix:        "VERDANT_STORAGE_KEY_PREFIX",
}

var agentEnv = &agent.Env{
	APIKey:      "VERDANT_GEMINI_API_KEY",
	BaseURL:     "VERDANT_GEMINI_BASE_URL",
	ChatModel:   "VERDANT_GEMINI_CHAT_MODEL",
	VisionModel: "VERDANT_GEMINI_VISION_MODEL",
	Timeout:     "VERDANT_GEMINI_TIMEOUT",
}

var authEnv = &auth.Env{
	Enabled:   "VERDANT_AUTH_ENABLED",
	IssuerURL: "VERDANT_AUTH_ISSUER_URL",
	ClientID:  "VERDANT_AUTH_CLIENT_ID",
	JWKSURL:   "VERDANT_AUTH_JWKS_URL",
}

// Config is the root configuration for the Verdant service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Agent           agent.Config     `toml:"agent"`
	Classifier      ClassifierConfig `toml:"classifier"`
	Pipeline        PipelineConfig   `toml:"pipeline"`
	Auth            auth.Config      `toml:"auth"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the VERDANT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVerdantEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present) into the process environment, then the base
// config (if present), applies any environment overlay, and finalizes all
// values. Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Classifier.Merge(&overlay.Classifier)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Auth.Merge(&overlay.Auth)
}

// Finalize applies defaults, environment overrides, and validation to every
// section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Agent.Finalize(agentEnv); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Classifier.Finalize(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	envvar.String(&c.ShutdownTimeout, EnvVerdantShutdownTimeout)
	envvar.String(&c.Version, EnvVerdantVersion)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVerdantEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
