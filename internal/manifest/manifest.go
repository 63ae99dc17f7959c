package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"bbprovider/internal/config"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Manifest mirrors one providers.d JSON file.
type Manifest struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	Priority     int               `json:"priority"`
	Exec         string            `json:"exec"`
	Args         []string          `json:"args,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Autostart    bool              `json:"autostart"`
}

// FromConfig describes the configured provider launched via exec. The socket is
// passed explicitly so the launched process does not depend on the daemon's
// environment.
func FromConfig(cfg *config.Config, exec string) Manifest {
	m := Manifest{
		ID:        IDFromName(cfg.Provider.Name),
		Name:      cfg.Provider.Name,
		Kind:      cfg.Provider.Kind,
		Priority:  cfg.Provider.Priority,
		Exec:      strings.TrimSpace(exec),
		Autostart: true,
	}
	if cfg.Daemon.SocketPath != "" {
		m.Args = []string{"--socket", cfg.Daemon.SocketPath}
	}
	return m
}

// IDFromName derives a manifest id: lower-cased, with characters outside
// [a-z0-9._-] replaced by '-' and leading separators removed.
func IDFromName(name string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
	return strings.TrimLeft(id, "._-")
}

// Validate applies the daemon's acceptance rules.
func (m Manifest) Validate() error {
	minPriority, maxPriority := config.PriorityRange()
	switch {
	case m.ID == "":
		return errors.New("id is required")
	case !idPattern.MatchString(m.ID):
		return fmt.Errorf("id %q must match %s", m.ID, idPattern)
	case m.Name == "":
		return errors.New("name is required")
	case m.Kind == "":
		return errors.New("kind is required")
	case m.Priority < minPriority || m.Priority > maxPriority:
		return fmt.Errorf("priority must be within [%d, %d]", minPriority, maxPriority)
	case m.Exec == "":
		return errors.New("exec is required")
	case strings.Contains(m.Exec, "/") && !filepath.IsAbs(m.Exec):
		return errors.New("exec must be an absolute path or a basename")
	}
	return nil
}

// Marshal validates m and renders it as indented JSON with a trailing newline.
func (m Manifest) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FileName is the providers.d file name for m.
func (m Manifest) FileName() string {
	return m.ID + ".json"
}
