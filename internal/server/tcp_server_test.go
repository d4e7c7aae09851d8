package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHandler struct {
	records chan string
}

func (h *captureHandler) ProcessIncoming(raw []byte, _ time.Time) error {
	h.records <- string(raw)
	if strings.Contains(string(raw), "bad") {
		return errors.New("malformed sentence")
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func startServer(t *testing.T, cfg Config, h Handler) net.Addr {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	srv := New(cfg, h, testLogger())
	go func() { _ = srv.Serve(l) }()
	return l.Addr()
}

func recv(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for record")
		return ""
	}
}

func TestConnectionSurvivesBadRecord(t *testing.T) {
	chdir(t, t.TempDir())

	h := &captureHandler{records: make(chan string, 8)}
	addr := startServer(t, Config{}, h)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("bad line\nGPRMC ok line\n"))
	require.NoError(t, err)

	assert.Equal(t, "bad line", recv(t, h.records))
	assert.Equal(t, "GPRMC ok line", recv(t, h.records))

	// Still reading after the decode failure.
	_, err = conn.Write([]byte("third\n"))
	require.NoError(t, err)
	assert.Equal(t, "third", recv(t, h.records))
}

func TestPartialTrailingRecordNeverDispatched(t *testing.T) {
	chdir(t, t.TempDir())

	h := &captureHandler{records: make(chan string, 8)}
	addr := startServer(t, Config{}, h)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)

	_, err = conn.Write([]byte("whole\nhalf a rec"))
	require.NoError(t, err)
	assert.Equal(t, "whole", recv(t, h.records))

	require.NoError(t, conn.Close())

	select {
	case rec := <-h.records:
		t.Fatalf("partial record dispatched: %q", rec)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestOversizedRecordSkippedConnectionKept(t *testing.T) {
	chdir(t, t.TempDir())

	h := &captureHandler{records: make(chan string, 8)}
	addr := startServer(t, Config{MaxRecordBytes: 64}, h)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(strings.Repeat("x", 300) + "\nafter\n"))
	require.NoError(t, err)

	assert.Equal(t, "after", recv(t, h.records))
}

func TestConnectionsAreIndependent(t *testing.T) {
	chdir(t, t.TempDir())

	h := &captureHandler{records: make(chan string, 8)}
	addr := startServer(t, Config{}, h)

	a, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	b, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Write([]byte("from a\n"))
	require.NoError(t, err)
	assert.Equal(t, "from a", recv(t, h.records))

	// Killing one device's stream leaves the other one reading.
	require.NoError(t, a.Close())
	time.Sleep(100 * time.Millisecond)

	_, err = b.Write([]byte("from b\n"))
	require.NoError(t, err)
	assert.Equal(t, "from b", recv(t, h.records))
}
