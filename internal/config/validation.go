package config

import (
	"fmt"
	"net/url"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url must be an absolute http(s) URL")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be > 0")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be > 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit rps must be > 0")
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	return nil
}
