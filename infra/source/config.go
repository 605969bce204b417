package source

import (
	"fmt"
	"net/url"
	"regexp"
)

var queuePattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ValidQueue reports whether q looks like "N" or "N.M".
func ValidQueue(q string) bool { return queuePattern.MatchString(q) }

// SetDefaults fills the optional fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(DefaultTimeout.Seconds())
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("source.region is required")
	}
	if !ValidQueue(c.Queue) {
		return fmt.Errorf("source.queue %q must be N or N.M", c.Queue)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.base_url %q is not an http(s) URL", c.BaseURL)
	}
	return nil
}
