package config

import (
	"fmt"
	"strings"
)

// Config is the discogen-server configuration.
type Config struct {
	Listen         string           `json:"listen,omitempty" yaml:"listen,omitempty"`
	DirectoryURL   string           `json:"directory_url,omitempty" yaml:"directory_url,omitempty"`
	PublicURL      string           `json:"public_url,omitempty" yaml:"public_url,omitempty"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	VerifyOutput   bool             `json:"verify_output,omitempty" yaml:"verify_output,omitempty"`
	AuditDB        string           `json:"audit_db,omitempty" yaml:"audit_db,omitempty"`
	RateLimit      *RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Log            LogConfig        `json:"log,omitempty" yaml:"log,omitempty"`
}

// RateLimitConfig bounds generation requests per client address.
type RateLimitConfig struct {
	PerMinute int `json:"per_minute,omitempty" yaml:"per_minute,omitempty"`
	PerHour   int `json:"per_hour,omitempty" yaml:"per_hour,omitempty"`
}

type LogConfig struct {
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
}

const defaultDirectoryURL = "https://www.googleapis.com/discovery/v1/apis"

func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = "localhost:8080"
	}
	if c.DirectoryURL == "" {
		c.DirectoryURL = defaultDirectoryURL
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.DirectoryURL, "http://") && !strings.HasPrefix(c.DirectoryURL, "https://") {
		return fmt.Errorf("directory_url must be an absolute http(s) URL, got %q", c.DirectoryURL)
	}
	if c.PublicURL != "" && !strings.HasPrefix(c.PublicURL, "http://") && !strings.HasPrefix(c.PublicURL, "https://") {
		return fmt.Errorf("public_url must be an absolute http(s) URL, got %q", c.PublicURL)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be >= 0")
	}
	if c.RateLimit != nil {
		if c.RateLimit.PerMinute < 0 {
			return fmt.Errorf("rate_limit.per_minute must be >= 0")
		}
		if c.RateLimit.PerHour < 0 {
			return fmt.Errorf("rate_limit.per_hour must be >= 0")
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got %q", c.Log.Format)
	}
	return nil
}
