package source

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Protocol selects the handshake dialect and the default header vocabulary.
type Protocol int

const (
	// HTTP is the Icecast2 source protocol: an HTTP-style request/response
	// exchange with Basic authentication.
	HTTP Protocol = iota
	// ICY is the legacy Shoutcast source protocol: the password is sent as a
	// bare first line and the server answers with an accept token.
	ICY
)

func (p Protocol) String() string {
	if p == ICY {
		return "icy"
	}
	return "http"
}

// Defaults applied by ConnectionConfig and NewConn for fields left zero.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 8000
	DefaultUser     = "source"
	DefaultPassword = "hackme"

	DefaultUserAgent = "sourcecast/1.0"

	DefaultConnectTimeout = 30 * time.Second
	DefaultTimeout        = 30 * time.Second
)

// AudioInfo describes the encoded stream for the ice-audio-info header. Only
// fields set to a non-zero value are rendered.
type AudioInfo struct {
	SampleRate int
	Channels   int
	Quality    float64
	Bitrate    int // kbit/s
}

// String renders the header value, e.g. "samplerate=44100;channels=2;bitrate=128".
func (ai AudioInfo) String() string {
	var parts []string
	if ai.SampleRate > 0 {
		parts = append(parts, "samplerate="+strconv.Itoa(ai.SampleRate))
	}
	if ai.Channels > 0 {
		parts = append(parts, "channels="+strconv.Itoa(ai.Channels))
	}
	if ai.Quality > 0 {
		parts = append(parts, "quality="+strconv.FormatFloat(ai.Quality, 'g', -1, 64))
	}
	if ai.Bitrate > 0 {
		parts = append(parts, "bitrate="+strconv.Itoa(ai.Bitrate))
	}
	return strings.Join(parts, ";")
}

// StreamDescription collects the optional descriptive fields a source
// announces to the server. Headers renders them into the preset vocabulary of
// the chosen protocol.
type StreamDescription struct {
	UserAgent   string
	Name        string
	Genre       string
	URL         string
	Public      bool
	Description string
	AudioInfo   *AudioInfo
}

// Headers renders the description using the ice-* vocabulary for HTTP or the
// icy-* vocabulary for ICY. Callers may Set additional headers (icy-irc,
// icy-icq, ...) on the result.
func (d StreamDescription) Headers(p Protocol) *Headers {
	h := NewHeaders()

	ua := d.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	h.Set("User-Agent", ua)

	public := "0"
	if d.Public {
		public = "1"
	}

	switch p {
	case ICY:
		if d.Name != "" {
			h.Set("icy-name", d.Name)
		}
		if d.URL != "" {
			h.Set("icy-url", d.URL)
		}
		h.Set("icy-pub", public)
		if d.Genre != "" {
			h.Set("icy-genre", d.Genre)
		}
		if d.AudioInfo != nil && d.AudioInfo.Bitrate > 0 {
			h.Set("icy-br", strconv.Itoa(d.AudioInfo.Bitrate))
		}
	default:
		if d.Name != "" {
			h.Set("ice-name", d.Name)
		}
		if d.Genre != "" {
			h.Set("ice-genre", d.Genre)
		}
		if d.URL != "" {
			h.Set("ice-url", d.URL)
		}
		h.Set("ice-public", public)
		if d.AudioInfo != nil {
			if s := d.AudioInfo.String(); s != "" {
				h.Set("ice-audio-info", s)
			}
		}
		if d.Description != "" {
			h.Set("ice-description", d.Description)
		}
	}

	return h
}

// ConnectionConfig names the target of a source connection. It is treated as
// immutable once passed to Connect. Zero fields other than Mount and
// ContentType are filled from the package defaults.
type ConnectionConfig struct {
	Mount       string
	User        string
	Password    string
	Host        string
	Port        int
	ContentType ContentType
	Protocol    Protocol
	Headers     *Headers
}

func (c *ConnectionConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.User == "" {
		c.User = DefaultUser
	}
	if c.Password == "" {
		c.Password = DefaultPassword
	}
	if c.Headers == nil {
		c.Headers = StreamDescription{}.Headers(c.Protocol)
	}
	if c.Mount != "" && !strings.HasPrefix(c.Mount, "/") {
		c.Mount = "/" + c.Mount
	}
}

// Validate checks the mandatory fields. Failures are KindInvalidUsage.
func (c ConnectionConfig) Validate() error {
	if c.Mount == "" {
		return newError(KindInvalidUsage, "mount is required", nil)
	}
	if c.ContentType == "" {
		return newError(KindInvalidUsage, "content type is required", nil)
	}
	if c.Port < 0 || c.Port > 65535 {
		return newError(KindInvalidUsage, fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	return nil
}

func (c ConnectionConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
