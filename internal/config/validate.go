package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Validate ensures the configuration is usable. The socket path is checked
// separately by RequireSocket because a --socket flag may still supply it.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateHeartbeat(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireSocket reports an error when no daemon socket path could be resolved.
func (c *Config) RequireSocket() error {
	if strings.TrimSpace(c.Daemon.SocketPath) == "" {
		return errors.New("daemon.socket_path is not set and XDG_RUNTIME_DIR is empty; pass --socket")
	}
	return nil
}

func (c *Config) validateProvider() error {
	if c.Provider.Name == "" {
		return errors.New("provider.name must be set")
	}
	if c.Provider.Kind == "" {
		return errors.New("provider.kind must be set")
	}
	if c.Provider.Priority < minProviderPriority || c.Provider.Priority > maxProviderPriority {
		return fmt.Errorf("provider.priority must be within [%d, %d]", minProviderPriority, maxProviderPriority)
	}
	return nil
}

func (c *Config) validateHeartbeat() error {
	interval, err := heartbeatDuration("heartbeat.interval_seconds", c.Heartbeat.IntervalSeconds)
	if err != nil {
		return err
	}
	readTimeout, err := heartbeatDuration("heartbeat.read_timeout_seconds", c.Heartbeat.ReadTimeoutSeconds)
	if err != nil {
		return err
	}
	if readTimeout >= interval {
		return errors.New("heartbeat.read_timeout_seconds must be less than heartbeat.interval_seconds")
	}
	return nil
}

// maxDurationSeconds is the largest value secondsToDuration can represent.
const maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)

func heartbeatDuration(key string, seconds float64) (time.Duration, error) {
	switch {
	case math.IsNaN(seconds) || math.IsInf(seconds, 0):
		return 0, fmt.Errorf("%s must be a finite number", key)
	case seconds <= 0:
		return 0, fmt.Errorf("%s must be positive", key)
	case seconds >= maxDurationSeconds:
		return 0, fmt.Errorf("%s is too large", key)
	}
	d := secondsToDuration(seconds)
	if d <= 0 {
		return 0, fmt.Errorf("%s is below one nanosecond", key)
	}
	return d, nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
