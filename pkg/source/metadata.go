package source

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Metadata is the set of key/value pairs sent in a metadata update. For ICY
// servers only song/url style keys are meaningful, but no restriction is
// imposed here.
type Metadata map[string]string

// MetadataOptions tunes a metadata update issued over an existing Conn.
type MetadataOptions struct {
	// Charset encodes metadata values before percent-encoding. Legacy
	// servers expect an 8-bit encoding, so the default is ISO 8859-1, not
	// UTF-8; callers sending non-ASCII text in another encoding must set
	// this (e.g. unicode.UTF8).
	Charset encoding.Encoding

	// UserAgent for the admin request; DefaultUserAgent when empty.
	UserAgent string

	// Headers are extra header lines appended to the admin request.
	Headers *Headers
}

// MetadataRequest fully names a one-shot metadata update target, independent
// of any Conn.
type MetadataRequest struct {
	Host     string
	Port     int
	User     string
	Password string
	Mount    string
	Protocol Protocol

	ConnectTimeout time.Duration
	Timeout        time.Duration
	IPv6           bool
	BindAddress    string

	UserAgent string
	Charset   encoding.Encoding
	Headers   *Headers
}

// UpdateMetadata pushes a metadata update using the live session's
// credentials, host and mount. The update travels over an ephemeral admin
// connection of its own; the streaming socket is untouched. Disconnected
// Conns fail with ErrNotConnected.
func (c *Conn) UpdateMetadata(m Metadata, opts *MetadataOptions) error {
	if c.status != Connected {
		return ErrNotConnected
	}
	if opts == nil {
		opts = &MetadataOptions{}
	}

	cfg := c.session.cfg
	return UpdateMetadataManual(MetadataRequest{
		Host:           cfg.Host,
		Port:           cfg.Port,
		User:           cfg.User,
		Password:       cfg.Password,
		Mount:          cfg.Mount,
		Protocol:       cfg.Protocol,
		ConnectTimeout: c.ConnectTimeout,
		Timeout:        c.Timeout,
		IPv6:           c.IPv6,
		BindAddress:    c.BindAddress,
		UserAgent:      opts.UserAgent,
		Charset:        opts.Charset,
		Headers:        opts.Headers,
	}, m)
}

// UpdateMetadataManual performs a one-shot metadata update on its own socket,
// regardless of any existing session. Success is any 2xx answer; rejections
// surface as KindHTTPAnswer.
func UpdateMetadataManual(req MetadataRequest, m Metadata) error {
	if req.Host == "" {
		req.Host = DefaultHost
	}
	if req.Port == 0 {
		req.Port = DefaultPort
	}
	if req.User == "" {
		req.User = DefaultUser
	}
	if req.Password == "" {
		req.Password = DefaultPassword
	}
	if req.ConnectTimeout == 0 {
		req.ConnectTimeout = DefaultConnectTimeout
	}
	if req.Timeout == 0 {
		req.Timeout = DefaultTimeout
	}
	if req.UserAgent == "" {
		req.UserAgent = DefaultUserAgent
	}
	if req.Protocol == HTTP && req.Mount == "" {
		return newError(KindInvalidUsage, "mount is required", nil)
	}
	if req.Mount != "" && !strings.HasPrefix(req.Mount, "/") {
		req.Mount = "/" + req.Mount
	}

	path, err := metadataPath(req, m)
	if err != nil {
		return err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "GET %s HTTP/1.0\r\n", path)
	if req.Protocol == HTTP {
		fmt.Fprintf(&b, "Authorization: Basic %s\r\n", basicAuth(req.User, req.Password))
	}
	fmt.Fprintf(&b, "User-Agent: %s\r\n", req.UserAgent)
	if req.Headers != nil {
		for _, k := range req.Headers.Keys() {
			v, _ := req.Headers.Get(k)
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")

	nc, err := dial(req.Host, req.Port, req.IPv6, req.BindAddress, req.ConnectTimeout, req.Timeout)
	if err != nil {
		return err
	}
	defer nc.close()

	if err := nc.send(b.Bytes()); err != nil {
		return err
	}
	line, err := nc.readLine()
	if err != nil {
		return err
	}
	code, reason, ok := parseStatusLine(line)
	if !ok {
		return &Error{Kind: KindBadAnswer, Answer: line}
	}
	if code < 200 || code > 299 {
		return &Error{Kind: KindHTTPAnswer, Code: code, Reason: reason, Body: nc.readRemainder(answerBodyLimit)}
	}
	return nil
}

// metadataPath renders the update endpoint: Icecast's /admin/metadata with
// the mount parameter, or Shoutcast's /admin.cgi with the password inline.
func metadataPath(req MetadataRequest, m Metadata) (string, error) {
	enc := req.Charset
	if enc == nil {
		enc = charmap.ISO8859_1
	}
	pairs, err := encodeMetadata(m, enc)
	if err != nil {
		return "", err
	}

	if req.Protocol == ICY {
		path := "/admin.cgi?mode=updinfo&pass=" + url.QueryEscape(req.Password)
		if pairs != "" {
			path += "&" + pairs
		}
		return path, nil
	}

	path := "/admin/metadata?mode=updinfo&mount=" + url.QueryEscape(req.Mount)
	if pairs != "" {
		path += "&" + pairs
	}
	return path, nil
}

// encodeMetadata renders percent-encoded key=value pairs, keys sorted so the
// request is deterministic. Keys and values are recoded into the target
// charset first; runes the charset cannot represent fail as KindInvalidUsage.
func encodeMetadata(m Metadata, enc encoding.Encoding) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		ek, err := recode(k, enc)
		if err != nil {
			return "", err
		}
		ev, err := recode(m[k], enc)
		if err != nil {
			return "", err
		}
		parts = append(parts, url.QueryEscape(ek)+"="+url.QueryEscape(ev))
	}
	return strings.Join(parts, "&"), nil
}

func recode(s string, enc encoding.Encoding) (string, error) {
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", newError(KindInvalidUsage, fmt.Sprintf("metadata %q not representable in target charset", s), err)
	}
	return out, nil
}
