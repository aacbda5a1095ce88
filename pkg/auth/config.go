package auth

import (
	"fmt"

	"github.com/JaimeStill/verdant/pkg/envvar"
)

// Config controls bearer token verification. When JWKSURL is empty the
// key set is discovered from IssuerURL's OpenID configuration.
type Config struct {
	Enabled   bool   `toml:"enabled"`
	IssuerURL string `toml:"issuer_url"`
	ClientID  string `toml:"client_id"`
	JWKSURL   string `toml:"jwks_url"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Enabled   string
	IssuerURL string
	ClientID  string
	JWKSURL   string
}

// Finalize applies environment variable overrides and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		envvar.Bool(&c.Enabled, env.Enabled)
		envvar.String(&c.IssuerURL, env.IssuerURL)
		envvar.String(&c.ClientID, env.ClientID)
		envvar.String(&c.JWKSURL, env.JWKSURL)
	}

	if !c.Enabled {
		return nil
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url required when auth is enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth is enabled")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay. An overlay can enable
// auth but not disable it; the Enabled environment override can.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
}
