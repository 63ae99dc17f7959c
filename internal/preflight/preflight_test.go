package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"bbprovider/internal/instance"
	"bbprovider/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSocket_OK(t *testing.T) {
	daemon := testsupport.NewDaemon(t)
	result := CheckSocket(t.Context(), daemon.Path)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if lines := daemon.Lines(); len(lines) != 0 {
		t.Fatalf("probe must not send anything, daemon got %q", lines)
	}
}

func TestCheckSocket_Missing(t *testing.T) {
	result := CheckSocket(t.Context(), filepath.Join(t.TempDir(), "absent.sock"))
	if result.Passed {
		t.Fatal("expected failure for missing socket")
	}
}

func TestCheckSocket_RegularFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "not.sock")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckSocket(t.Context(), f)
	if result.Passed {
		t.Fatal("expected failure for regular file")
	}
}

func TestCheckConfig_Invalid(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Provider.Priority = 5000
	if result := CheckConfig(cfg); result.Passed {
		t.Fatalf("expected failure for out-of-range priority, got: %s", result.Detail)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithSocket(""))
	if result := CheckConfig(cfg); result.Passed {
		t.Fatal("expected failure without socket path")
	}
}

func TestCheckInstanceLock_Held(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSingleInstance())
	if result := CheckInstanceLock(cfg.LockPath()); !result.Passed {
		t.Fatalf("expected free lock, got: %s", result.Detail)
	}

	lock, err := instance.Acquire(cfg.LockPath())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { _ = lock.Release() })

	if result := CheckInstanceLock(cfg.LockPath()); result.Passed {
		t.Fatal("expected failure while lock is held")
	}
}

func TestRunAll_AgainstDaemon(t *testing.T) {
	daemon := testsupport.NewDaemon(t)
	cfg := testsupport.NewConfig(t, testsupport.WithSocket(daemon.Path), testsupport.WithSingleInstance())

	results := RunAll(t.Context(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}

func TestRunAll_StopsOnBadConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Heartbeat.ReadTimeoutSeconds = cfg.Heartbeat.IntervalSeconds
	results := RunAll(t.Context(), cfg)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected a single failed config result, got %+v", results)
	}
	if RunAll(t.Context(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
