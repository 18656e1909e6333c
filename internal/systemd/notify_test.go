package systemd

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func testNotifier() *Notifier {
	return NewNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// listenNotify points NOTIFY_SOCKET at a fresh datagram socket.
func listenNotify(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func readMessage(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("no notify message: %v", err)
	}
	return string(buf[:n])
}

func TestNotifier_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	n := testNotifier()
	if n.Ready() || n.Stopping() || n.Status("idle") {
		t.Error("expected no message without NOTIFY_SOCKET")
	}
}

func TestNotifier_Messages(t *testing.T) {
	conn := listenNotify(t)
	n := testNotifier()

	tests := []struct {
		send func() bool
		want string
	}{
		{n.Ready, "READY=1"},
		{func() bool { return n.Status("mode sweep") }, "STATUS=mode sweep"},
		{n.Stopping, "STOPPING=1"},
	}
	for _, tt := range tests {
		if !tt.send() {
			t.Fatalf("%s not sent", tt.want)
		}
		if got := readMessage(t, conn); got != tt.want {
			t.Errorf("message = %q, want %q", got, tt.want)
		}
	}
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	done := make(chan struct{})
	go func() {
		testNotifier().Watchdog(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog should return when disabled")
	}
}

func TestNotifier_WatchdogPings(t *testing.T) {
	conn := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "40000")
	t.Setenv("WATCHDOG_PID", strconv.Itoa(os.Getpid()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go testNotifier().Watchdog(ctx)

	if got := readMessage(t, conn); got != "WATCHDOG=1" {
		t.Errorf("message = %q, want WATCHDOG=1", got)
	}
}
