package source

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Request methods accepted by Icecast2 for the source handshake. SOURCE is
// the historical convention; PUT is what current servers document.
const (
	MethodSource = "SOURCE"
	MethodPut    = "PUT"
)

// ICY accept tokens. Shoutcast v1 answers OK2 when the server supports
// in-stream metadata updates; older servers answer a bare OK variant. The
// exact token set is server folklore, so these are constants rather than
// assumptions baked into the parser.
const (
	icyAcceptToken       = "OK2"
	icyLegacyAcceptToken = "OK"
)

const answerBodyLimit = 8 << 10

// capabilities is the negotiated result of a successful handshake.
type capabilities struct {
	// icy reports whether the server accepts in-stream metadata updates.
	icy bool
}

// handshake negotiates the session on a freshly dialed socket. On any failure
// path the socket is closed before returning, so callers never hold a
// half-open handle.
func handshake(nc *netConn, cfg ConnectionConfig, method string) (capabilities, error) {
	if cfg.Protocol == ICY {
		return icyHandshake(nc, cfg)
	}
	return httpHandshake(nc, cfg, method)
}

// httpHandshake performs the Icecast2 exchange: request line, Basic auth,
// Content-Type, the configured headers, then a status line back.
func httpHandshake(nc *netConn, cfg ConnectionConfig, method string) (capabilities, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s HTTP/1.0\r\n", method, cfg.Mount)
	fmt.Fprintf(&b, "Authorization: Basic %s\r\n", basicAuth(cfg.User, cfg.Password))
	fmt.Fprintf(&b, "Content-Type: %s\r\n", cfg.ContentType)
	for _, k := range cfg.Headers.Keys() {
		v, _ := cfg.Headers.Get(k)
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")

	if err := nc.send(b.Bytes()); err != nil {
		_ = nc.close()
		return capabilities{}, err
	}

	line, err := nc.readLine()
	if err != nil {
		_ = nc.close()
		return capabilities{}, err
	}

	code, reason, ok := parseStatusLine(line)
	if !ok {
		_ = nc.close()
		return capabilities{}, &Error{Kind: KindBadAnswer, Answer: line}
	}
	if code < 200 || code > 299 {
		body := nc.readRemainder(answerBodyLimit)
		_ = nc.close()
		return capabilities{}, &Error{Kind: KindHTTPAnswer, Code: code, Reason: reason, Body: body}
	}

	// The HTTP source protocol always carries metadata updates.
	return capabilities{icy: true}, nil
}

// icyHandshake performs the legacy Shoutcast exchange: the bare password
// first, the server's verdict line back, then the icy-* header block.
func icyHandshake(nc *netConn, cfg ConnectionConfig) (caps capabilities, err error) {
	if err = nc.send([]byte(cfg.Password + "\r\n")); err != nil {
		_ = nc.close()
		return caps, err
	}

	line, err := nc.readLine()
	if err != nil {
		_ = nc.close()
		return caps, err
	}

	switch {
	case strings.HasPrefix(line, icyAcceptToken):
		caps.icy = true
	case strings.HasPrefix(line, icyLegacyAcceptToken):
		caps.icy = false
	default:
		_ = nc.close()
		return caps, &Error{Kind: KindBadAnswer, Answer: line}
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "content-type:%s\r\n", cfg.ContentType)
	for _, k := range cfg.Headers.Keys() {
		v, _ := cfg.Headers.Get(k)
		fmt.Fprintf(&b, "%s:%s\r\n", k, v)
	}
	b.WriteString("\r\n")

	if err = nc.send(b.Bytes()); err != nil {
		_ = nc.close()
		return capabilities{}, err
	}

	return caps, nil
}

func basicAuth(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}

// parseStatusLine splits "HTTP/1.0 403 Forbidden" into code and reason. The
// protocol token is not checked; some servers answer "ICY 200 OK".
func parseStatusLine(line string) (code int, reason string, ok bool) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return 0, "", false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", false
	}
	if len(fields) == 3 {
		reason = fields[2]
	}
	return code, reason, true
}
