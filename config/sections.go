package config

import (
	"fmt"
	"time"
)

// PollConfig sets the regular poll cadence.
type PollConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults polls every minute unless told otherwise.
func (c *PollConfig) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 60
	}
}

// Validate rejects negative intervals.
func (c PollConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("poll.interval_seconds must be positive")
	}
	return nil
}

// Interval returns the poll cadence as a duration.
func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// HTTPConfig configures the status API. An empty Listen disables it.
type HTTPConfig struct {
	Listen string `json:"listen"`
}
