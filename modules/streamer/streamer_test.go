package streamer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() slog.Logger {
	return *slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRelay accepts one source connection, answers the handshake with 200,
// and collects the streamed payload until the client closes.
func stubRelay(t *testing.T) (host string, port int, payload <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan []byte, 1)
	go func() {
		sc, err := ln.Accept()
		if err != nil {
			return
		}
		defer sc.Close()

		r := bufio.NewReader(sc)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if strings.TrimRight(line, "\r\n") == "" {
				break
			}
		}
		_, _ = sc.Write([]byte("HTTP/1.0 200 OK\r\n\r\n"))

		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		out <- buf.Bytes()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func TestStreamOnce(t *testing.T) {
	host, port, payload := stubRelay(t)

	data := bytes.Repeat([]byte("abcdefgh"), 1024)
	input := filepath.Join(t.TempDir(), "input.mp3")
	require.NoError(t, os.WriteFile(input, data, 0o644))

	cfg := Config{
		Host:        host,
		Port:        port,
		Mount:       "/live",
		Protocol:    "http",
		ContentType: "audio/mpeg",
		Path:        input,
		ChunkSize:   512,
	}

	s, err := New(cfg, discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.starting(ctx))
	require.NoError(t, s.streamOnce(ctx))

	select {
	case got := <-payload:
		assert.Equal(t, data, got)
	case <-time.After(5 * time.Second):
		t.Fatal("relay never observed the payload")
	}
}

func TestStartingRequiresPath(t *testing.T) {
	s, err := New(Config{}, discardLogger())
	require.NoError(t, err)
	require.Error(t, s.starting(context.Background()))
}

func TestStartingRejectsUnknownProtocol(t *testing.T) {
	s, err := New(Config{Path: "/dev/null", Protocol: "rtmp"}, discardLogger())
	require.NoError(t, err)
	require.Error(t, s.starting(context.Background()))
}

func TestPacer(t *testing.T) {
	assert.Nil(t, newPacer(&Config{Pace: true}), "pacing needs a bitrate")
	assert.Nil(t, newPacer(&Config{Bitrate: 128}), "pacing is opt-in")

	p := newPacer(&Config{Pace: true, Bitrate: 128})
	require.NotNil(t, p)
	assert.Equal(t, float64(128*1000/8), p.bytesPerSec)

	// 16000 bytes at 128 kbit/s is one second of audio
	start := time.Now()
	p.wait(1600) // 100ms
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}
