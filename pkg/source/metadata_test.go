package source

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u := rawURL[len("http://"):]
	host, portStr, err := net.SplitHostPort(u)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestUpdateMetadataManual(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	host, port := hostPort(t, ts.URL)

	err := UpdateMetadataManual(MetadataRequest{
		Host:     host,
		Port:     port,
		Mount:    "/stream",
		User:     "admin",
		Password: "secret",
	}, Metadata{"song": "Artist - Title", "url": "http://example.com"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/admin/metadata", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "updinfo", q.Get("mode"))
	assert.Equal(t, "/stream", q.Get("mount"))
	assert.Equal(t, "Artist - Title", q.Get("song"))
	assert.Equal(t, "http://example.com", q.Get("url"))

	user, pass, ok := got.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, DefaultUserAgent, got.UserAgent())
}

func TestUpdateMetadataManualICY(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	host, port := hostPort(t, ts.URL)

	err := UpdateMetadataManual(MetadataRequest{
		Host:     host,
		Port:     port,
		Password: "hackme2",
		Protocol: ICY,
	}, Metadata{"song": "Title"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/admin.cgi", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "updinfo", q.Get("mode"))
	assert.Equal(t, "hackme2", q.Get("pass"))
	assert.Equal(t, "Title", q.Get("song"))

	_, _, ok := got.BasicAuth()
	assert.False(t, ok, "the icy form authenticates via the pass parameter")
}

func TestUpdateMetadataCharset(t *testing.T) {
	songs := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		songs <- r.URL.Query().Get("song")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	host, port := hostPort(t, ts.URL)

	req := MetadataRequest{Host: host, Port: port, Mount: "/stream"}

	// default charset is ISO 8859-1: é travels as the single byte 0xE9
	require.NoError(t, UpdateMetadataManual(req, Metadata{"song": "café"}))
	assert.Equal(t, "caf\xe9", <-songs)

	req.Charset = unicode.UTF8
	require.NoError(t, UpdateMetadataManual(req, Metadata{"song": "café"}))
	assert.Equal(t, "café", <-songs)
}

func TestUpdateMetadataCharsetUnrepresentable(t *testing.T) {
	err := UpdateMetadataManual(MetadataRequest{Mount: "/s"}, Metadata{"song": "日本語"})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidUsage, kind)
}

func TestUpdateMetadataManualRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer ts.Close()
	host, port := hostPort(t, ts.URL)

	err := UpdateMetadataManual(MetadataRequest{Host: host, Port: port, Mount: "/stream"}, Metadata{"song": "x"})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindHTTPAnswer, se.Kind)
	assert.Equal(t, 401, se.Code)
}

func TestUpdateMetadataManualMissingMount(t *testing.T) {
	err := UpdateMetadataManual(MetadataRequest{}, Metadata{"song": "x"})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidUsage, kind)
}

// TestUpdateMetadataBound exercises the form that reuses a live session's
// credentials: the update travels over its own socket while the streaming
// session stays connected.
func TestUpdateMetadataBound(t *testing.T) {
	ln, host, port := listenLocal(t)

	requests := make(chan string, 1)
	go func() {
		// first connection: source handshake, held open for streaming
		sc, err := ln.Accept()
		if err != nil {
			return
		}
		readHead(bufio.NewReader(sc))
		_, _ = sc.Write([]byte("HTTP/1.0 200 OK\r\n\r\n"))

		// second connection: the admin request
		ac, err := ln.Accept()
		if err != nil {
			return
		}
		head := readHead(bufio.NewReader(ac))
		if len(head) > 0 {
			requests <- head[0]
		}
		_, _ = ac.Write([]byte("HTTP/1.0 200 OK\r\n\r\n"))
		_ = ac.Close()
	}()

	c := testConn()
	require.NoError(t, c.Connect(ConnectionConfig{
		Host:        host,
		Port:        port,
		Mount:       "/stream",
		User:        "admin",
		Password:    "secret",
		ContentType: Mpeg,
	}))

	require.NoError(t, c.UpdateMetadata(Metadata{"song": "Now Playing"}, nil))

	select {
	case line := <-requests:
		assert.Equal(t, "GET /admin/metadata?mode=updinfo&mount=%2Fstream&song=Now+Playing HTTP/1.0", line)
	case <-time.After(2 * time.Second):
		t.Fatal("no admin request observed")
	}

	assert.Equal(t, Connected, c.Status(), "the streaming session is untouched")
	require.NoError(t, c.Close())
}
