package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

func (c *Config) normalize() error {
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeProvider()
	if err := c.normalizeInstance(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeDaemon() error {
	socket := strings.TrimSpace(c.Daemon.SocketPath)
	if socket == "" {
		socket = DefaultSocketPath()
	}
	expanded, err := expandPath(socket)
	if err != nil {
		return fmt.Errorf("daemon.socket_path: %w", err)
	}
	c.Daemon.SocketPath = expanded
	return nil
}

// Identity strings go over the wire as UTF-8; NFC keeps visually identical names equal
// for the daemon.
func (c *Config) normalizeProvider() {
	c.Provider.Name = norm.NFC.String(strings.TrimSpace(c.Provider.Name))
	c.Provider.Kind = norm.NFC.String(strings.TrimSpace(c.Provider.Kind))
}

func (c *Config) normalizeInstance() error {
	lockPath := strings.TrimSpace(c.Instance.LockPath)
	if lockPath == "" {
		c.Instance.LockPath = ""
		return nil
	}
	expanded, err := expandPath(lockPath)
	if err != nil {
		return fmt.Errorf("instance.lock_path: %w", err)
	}
	c.Instance.LockPath = expanded
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	outputs := make([]string, 0, len(c.Logging.Output))
	for _, output := range c.Logging.Output {
		output = strings.TrimSpace(output)
		switch output {
		case "":
			continue
		case "stdout", "stderr":
		default:
			expanded, err := expandPath(output)
			if err != nil {
				return fmt.Errorf("logging.output: %w", err)
			}
			output = expanded
		}
		outputs = append(outputs, output)
	}
	c.Logging.Output = outputs
	return nil
}

// SetSocketPath applies a socket override (typically the --socket flag).
func (c *Config) SetSocketPath(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return fmt.Errorf("socket path: %w", err)
	}
	c.Daemon.SocketPath = expanded
	return nil
}

// LockPath returns the single-instance lock file. Unless configured it lives next
// to the daemon socket and is keyed by provider name.
func (c *Config) LockPath() string {
	if c.Instance.LockPath != "" {
		return c.Instance.LockPath
	}
	if c.Daemon.SocketPath == "" {
		return ""
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, c.Provider.Name)
	return filepath.Join(filepath.Dir(c.Daemon.SocketPath), lockFilePrefix+name+".lock")
}
