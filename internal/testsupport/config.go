package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bbprovider/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. The socket
// path points inside that directory but nothing listens there unless a test
// starts a Daemon on it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := ShortTempDir(t)
	cfgVal := config.Default()
	cfgVal.Daemon.SocketPath = filepath.Join(base, "bb-auth.sock")
	cfgVal.Heartbeat.IntervalSeconds = 0.2
	cfgVal.Heartbeat.ReadTimeoutSeconds = 0.05
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSocket overrides the daemon socket path.
func WithSocket(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.SocketPath = path
	}
}

// WithProvider sets the registration identity.
func WithProvider(name, kind string, priority int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provider.Name = name
		b.cfg.Provider.Kind = kind
		b.cfg.Provider.Priority = priority
	}
}

// WithHeartbeat sets the heartbeat interval and read timeout in seconds.
func WithHeartbeat(interval, readTimeout float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Heartbeat.IntervalSeconds = interval
		b.cfg.Heartbeat.ReadTimeoutSeconds = readTimeout
	}
}

// WithSingleInstance enables the instance lock at a path under the base dir.
func WithSingleInstance() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Instance.SingleInstance = true
		b.cfg.Instance.LockPath = filepath.Join(b.baseDir, "provider.lock")
	}
}

// WithLogFile sends logs to stderr and to name under the base dir.
func WithLogFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Output = []string{"stderr", filepath.Join(b.baseDir, name)}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Daemon.SocketPath)
}

// ShortTempDir creates a temp directory with a short path. Unix socket paths
// are limited to about 108 bytes, which t.TempDir can exceed for long test
// names.
func ShortTempDir(t testing.TB) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "bbp-")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}
