package source

import "time"

// Status is the lifecycle state of a Conn.
type Status int

const (
	Disconnected Status = iota
	Connected
)

func (s Status) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// session is the live socket plus the configuration that produced it. It
// exists only while the Conn is Connected and is owned exclusively by it.
type session struct {
	cfg ConnectionConfig
	nc  *netConn
	icy bool
}

// Conn is a source-client connection handler. It holds at most one live
// session and moves between Disconnected and Connected; any transport error
// during Write tears the session down before the error is returned, so the
// caller always observes a consistent Disconnected state afterwards.
//
// A Conn never reconnects on its own and is not safe for concurrent use: run
// one logical writer per Conn.
type Conn struct {
	// ConnectTimeout bounds the TCP connect; Timeout bounds each subsequent
	// read and write.
	ConnectTimeout time.Duration
	Timeout        time.Duration

	// BindAddress, when non-empty, is the local address to bind before
	// connecting. IPv6 forces an AF_INET6 socket.
	BindAddress string
	IPv6        bool

	// Method is the HTTP handshake method, MethodSource unless set.
	Method string

	status  Status
	session *session
}

// NewConn returns a disconnected Conn with the default timeouts.
func NewConn() *Conn {
	return &Conn{
		ConnectTimeout: DefaultConnectTimeout,
		Timeout:        DefaultTimeout,
		Method:         MethodSource,
	}
}

// Connect establishes a session for cfg. It fails with ErrBusy when already
// connected; on any other failure the Conn stays Disconnected with the socket
// released, and the handshake or transport error is returned unchanged.
func (c *Conn) Connect(cfg ConnectionConfig) error {
	if c.status == Connected {
		return ErrBusy
	}

	cfg.applyDefaults()
	cfg.Headers = cfg.Headers.clone()
	if err := cfg.Validate(); err != nil {
		return err
	}

	nc, err := dial(cfg.Host, cfg.Port, c.IPv6, c.BindAddress, c.ConnectTimeout, c.Timeout)
	if err != nil {
		return err
	}

	method := c.Method
	if method == "" {
		method = MethodSource
	}

	// handshake closes nc on its own failure paths.
	caps, err := handshake(nc, cfg, method)
	if err != nil {
		return err
	}

	c.session = &session{cfg: cfg, nc: nc, icy: caps.icy}
	c.status = Connected
	return nil
}

// Write sends raw encoded bytes over the live session, implementing
// io.Writer. It fails with ErrNotConnected when disconnected. A transport
// error closes the socket and transitions to Disconnected before returning.
func (c *Conn) Write(p []byte) (int, error) {
	if c.status != Connected {
		return 0, ErrNotConnected
	}
	if err := c.session.nc.send(p); err != nil {
		_ = c.session.nc.close()
		c.session = nil
		c.status = Disconnected
		return 0, err
	}
	return len(p), nil
}

// Close releases the session. Closing a disconnected Conn is an error, not a
// no-op; callers track state or ask Status first.
func (c *Conn) Close() error {
	if c.status != Connected {
		return ErrNotConnected
	}
	err := c.session.nc.close()
	c.session = nil
	c.status = Disconnected
	return err
}

func (c *Conn) Status() Status {
	return c.status
}

// ICYCapable reports whether the connected server accepts in-stream metadata
// updates. It is meaningful only while Connected; for the HTTP protocol it is
// true by definition, for ICY it reflects the server's handshake verdict.
func (c *Conn) ICYCapable() bool {
	return c.status == Connected && c.session.icy
}
