package preflight

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"bbprovider/internal/config"
	"bbprovider/internal/instance"
)

const socketProbeTimeout = 2 * time.Second

// CheckConfig reports whether the configuration is complete and valid.
func CheckConfig(cfg *config.Config) Result {
	const name = "Configuration"

	if err := cfg.Validate(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := cfg.RequireSocket(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%s, priority %d)", cfg.Provider.Name, cfg.Provider.Kind, cfg.Provider.Priority),
	}
}

// CheckSocket verifies that path is a Unix socket the current user can use and
// that something accepts connections on it. The probe connection is closed
// without sending anything.
func CheckSocket(ctx context.Context, path string) Result {
	const name = "Daemon socket"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist, is bb-auth running?)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeSocket == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a socket)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}

	probeCtx, cancel := context.WithTimeout(ctx, socketProbeTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(probeCtx, "unix", path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: connect: %v)", path, err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (accepting connections)", path)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (access ok)", path)}
}

// CheckInstanceLock reports whether another provider holds the instance lock.
func CheckInstanceLock(path string) Result {
	const name = "Instance lock"

	held, err := instance.Held(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if held {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another provider)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", path)}
}
