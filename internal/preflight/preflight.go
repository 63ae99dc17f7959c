package preflight

import (
	"context"
	"path/filepath"

	"bbprovider/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Socket checks are skipped when the config itself is unusable.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckConfig(cfg)}
	if !results[0].Passed {
		return results
	}

	results = append(results, CheckDirectoryAccess("Socket directory", filepath.Dir(cfg.Daemon.SocketPath)))
	results = append(results, CheckSocket(ctx, cfg.Daemon.SocketPath))

	// Instance lock (when enabled)
	if cfg.Instance.SingleInstance {
		results = append(results, CheckInstanceLock(cfg.LockPath()))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
