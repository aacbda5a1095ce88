package agent

import (
	"fmt"
	"time"

	"github.com/JaimeStill/verdant/pkg/envvar"
)

// Config holds Gemini connection and model settings.
type Config struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	ChatModel   string  `toml:"chat_model"`
	VisionModel string  `toml:"vision_model"`
	Temperature float64 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// Env maps config fields to environment variable names.
type Env struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
	Timeout     string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.ChatModel == "" {
		c.ChatModel = "gemini-2.5-flash-lite"
	}
	if c.VisionModel == "" {
		c.VisionModel = c.ChatModel
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if env != nil {
		envvar.String(&c.APIKey, env.APIKey)
		envvar.String(&c.BaseURL, env.BaseURL)
		envvar.String(&c.ChatModel, env.ChatModel)
		envvar.String(&c.VisionModel, env.VisionModel)
		envvar.String(&c.Timeout, env.Timeout)
	}

	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f outside [0, 2]", c.Temperature)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.ChatModel != "" {
		c.ChatModel = overlay.ChatModel
	}
	if overlay.VisionModel != "" {
		c.VisionModel = overlay.VisionModel
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}
