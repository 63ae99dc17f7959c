package testsupport

import (
	"bufio"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// Daemon is a stand-in for the bb-auth daemon. It accepts connections on a
// Unix socket, records every line received, and lets the test write to or
// close the most recent connection.
type Daemon struct {
	t    testing.TB
	Path string
	ln   net.Listener

	mu    sync.Mutex
	conns []net.Conn
	lines []string
	wg    sync.WaitGroup
}

// NewDaemon listens on a fresh socket in a short temp directory. Tests are
// skipped when the sandbox forbids Unix sockets.
func NewDaemon(t testing.TB) *Daemon {
	t.Helper()
	return NewDaemonAt(t, filepath.Join(ShortTempDir(t), "bb-auth.sock"))
}

// NewDaemonAt listens on path.
func NewDaemonAt(t testing.TB, path string) *Daemon {
	t.Helper()

	ln, err := net.Listen("unix", path)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping unix socket test: %v", err)
		}
		t.Fatalf("listen %s: %v", path, err)
	}
	d := &Daemon{t: t, Path: path, ln: ln}
	d.wg.Add(1)
	go d.acceptLoop()
	t.Cleanup(d.Close)
	return d
}

func (d *Daemon) acceptLoop() {
	defer d.wg.Done()
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.mu.Lock()
		d.conns = append(d.conns, conn)
		d.mu.Unlock()
		d.wg.Add(1)
		go d.readLoop(conn)
	}
}

func (d *Daemon) readLoop(conn net.Conn) {
	defer d.wg.Done()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		d.mu.Lock()
		d.lines = append(d.lines, scanner.Text())
		d.mu.Unlock()
	}
}

// Lines returns a snapshot of every line received so far.
func (d *Daemon) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

// WaitLines blocks until at least n lines arrived and returns them, failing the
// test after timeout.
func (d *Daemon) WaitLines(n int, timeout time.Duration) []string {
	d.t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		lines := d.Lines()
		if len(lines) >= n {
			return lines
		}
		if time.Now().After(deadline) {
			d.t.Fatalf("timed out waiting for %d lines, got %d: %q", n, len(lines), lines)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Send writes line and a newline to the most recent connection.
func (d *Daemon) Send(line string) {
	d.t.Helper()

	conn := d.current()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		d.t.Fatalf("daemon write: %v", err)
	}
}

// ClosePeer closes the most recent connection, which the client sees as EOF.
func (d *Daemon) ClosePeer() {
	d.t.Helper()
	_ = d.current().Close()
}

func (d *Daemon) current() net.Conn {
	d.t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		d.mu.Lock()
		var conn net.Conn
		if len(d.conns) > 0 {
			conn = d.conns[len(d.conns)-1]
		}
		d.mu.Unlock()
		if conn != nil {
			return conn
		}
		if time.Now().After(deadline) {
			d.t.Fatalf("no client connected to %s", d.Path)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Close stops listening and closes every accepted connection.
func (d *Daemon) Close() {
	_ = d.ln.Close()
	d.mu.Lock()
	for _, conn := range d.conns {
		_ = conn.Close()
	}
	d.mu.Unlock()
	d.wg.Wait()
}
