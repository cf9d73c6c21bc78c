package source

import (
	"bufio"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"time"
)

// netConn wraps the raw socket with per-operation deadlines and buffered
// line-oriented reads for handshake responses. The buffered reader is only
// ever used before streaming starts, so no payload bytes are lost to it.
type netConn struct {
	sock    net.Conn
	br      *bufio.Reader
	tr      *textproto.Reader
	timeout time.Duration
}

// dial opens the TCP connection. ipv6 forces an AF_INET6 socket; bind, when
// non-empty, is the local address to bind before connecting.
func dial(host string, port int, ipv6 bool, bind string, connectTimeout, timeout time.Duration) (*netConn, error) {
	network := "tcp4"
	if ipv6 {
		network = "tcp6"
	}

	d := net.Dialer{Timeout: connectTimeout}
	if bind != "" {
		local, err := net.ResolveTCPAddr(network, net.JoinHostPort(bind, "0"))
		if err != nil {
			return nil, newError(KindCreate, "resolve bind address "+bind, err)
		}
		d.LocalAddr = local
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	sock, err := d.Dial(network, addr)
	if err != nil {
		return nil, newError(KindConnect, "connect "+addr, err)
	}

	br := bufio.NewReader(sock)
	return &netConn{
		sock:    sock,
		br:      br,
		tr:      textproto.NewReader(br),
		timeout: timeout,
	}, nil
}

func (nc *netConn) send(p []byte) error {
	if nc.timeout > 0 {
		_ = nc.sock.SetWriteDeadline(time.Now().Add(nc.timeout))
	}
	if _, err := nc.sock.Write(p); err != nil {
		return newError(KindWrite, "write", err)
	}
	return nil
}

// readLine reads one CRLF- or LF-terminated line, bounded by the rw timeout.
func (nc *netConn) readLine() (string, error) {
	if nc.timeout > 0 {
		_ = nc.sock.SetReadDeadline(time.Now().Add(nc.timeout))
	}
	line, err := nc.tr.ReadLine()
	if err != nil {
		return "", newError(KindRead, "read line", err)
	}
	return line, nil
}

// readRemainder drains up to limit bytes of whatever else the server sent,
// for inclusion in a structured rejection. Read errors are ignored; the
// remainder is best-effort.
func (nc *netConn) readRemainder(limit int64) string {
	if nc.timeout > 0 {
		_ = nc.sock.SetReadDeadline(time.Now().Add(nc.timeout))
	}
	b, _ := io.ReadAll(io.LimitReader(nc.br, limit))
	return string(b)
}

func (nc *netConn) close() error {
	if err := nc.sock.Close(); err != nil {
		return newError(KindClose, "close", err)
	}
	return nil
}
