package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/JaimeStill/verdant/pkg/envvar"
)

// The defaults point at the public Teachable Machine leaf health export.
const (
	defaultModelURL    = "https://teachablemachine.withgoogle.com/models/e2cVE9iV7/model.json"
	defaultMetadataURL = "https://teachablemachine.withgoogle.com/models/e2cVE9iV7/metadata.json"
)

// ClassifierConfig locates the image model and bounds its download.
type ClassifierConfig struct {
	ModelURL     string `toml:"model_url"`
	MetadataURL  string `toml:"metadata_url"`
	FetchTimeout string `toml:"fetch_timeout"`
	ImageSize    int    `toml:"image_size"`
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *ClassifierConfig) FetchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.ModelURL != "" {
		c.ModelURL = overlay.ModelURL
	}
	if overlay.MetadataURL != "" {
		c.MetadataURL = overlay.MetadataURL
	}
	if overlay.FetchTimeout != "" {
		c.FetchTimeout = overlay.FetchTimeout
	}
	if overlay.ImageSize != 0 {
		c.ImageSize = overlay.ImageSize
	}
}

func (c *ClassifierConfig) loadDefaults() {
	if c.ModelURL == "" {
		c.ModelURL = defaultModelURL
	}
	if c.MetadataURL == "" {
		c.MetadataURL = defaultMetadataURL
	}
	if c.FetchTimeout == "" {
		c.FetchTimeout = "15s"
	}
	if c.ImageSize == 0 {
		c.ImageSize = 224
	}
}

func (c *ClassifierConfig) loadEnv() {
	envvar.String(&c.ModelURL, "VERDANT_CLASSIFIER_MODEL_URL")
	envvar.String(&c.MetadataURL, "VERDANT_CLASSIFIER_METADATA_URL")
	envvar.String(&c.FetchTimeout, "VERDANT_CLASSIFIER_FETCH_TIMEOUT")
	envvar.Int(&c.ImageSize, "VERDANT_CLASSIFIER_IMAGE_SIZE")
}

func (c *ClassifierConfig) validate() error {
	for name, raw := range map[string]string{"model_url": c.ModelURL, "metadata_url": c.MetadataURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}
	if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
		return fmt.Errorf("invalid fetch_timeout: %w", err)
	}
	if c.ImageSize < 1 {
		return fmt.Errorf("invalid image_size: %d", c.ImageSize)
	}
	return nil
}
