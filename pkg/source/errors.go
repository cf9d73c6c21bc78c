package source

import (
	"fmt"
	"strconv"
)

// Kind classifies an Error.
type Kind int

const (
	// KindCreate indicates a local resource setup failure, such as an
	// unresolvable bind address.
	KindCreate Kind = iota
	// KindConnect indicates a TCP-level connect failure, including timeout.
	KindConnect
	// KindClose indicates an error while closing the socket.
	KindClose
	// KindWrite and KindRead indicate mid-session I/O failures.
	KindWrite
	KindRead
	// KindBusy is returned by Connect on an already-connected Conn.
	KindBusy
	// KindNotConnected is returned by operations that need a live session.
	KindNotConnected
	// KindInvalidUsage indicates malformed configuration.
	KindInvalidUsage
	// KindBadAnswer indicates a handshake response that did not match the
	// expected accept token.
	KindBadAnswer
	// KindHTTPAnswer indicates a structured HTTP rejection; Code, Reason and
	// Body carry the server's response.
	KindHTTPAnswer
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindConnect:
		return "connect"
	case KindClose:
		return "close"
	case KindWrite:
		return "write"
	case KindRead:
		return "read"
	case KindBusy:
		return "busy"
	case KindNotConnected:
		return "not connected"
	case KindInvalidUsage:
		return "invalid usage"
	case KindBadAnswer:
		return "bad answer"
	case KindHTTPAnswer:
		return "http answer"
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// Error is the discriminated error value returned by every operation in this
// package. Kind selects the variant; the remaining fields are populated per
// kind. Cause carries the underlying failure where one exists.
type Error struct {
	Kind    Kind
	Message string

	// Answer is the offending response line for KindBadAnswer.
	Answer string

	// Code, Reason and Body describe the server response for KindHTTPAnswer.
	Code   int
	Reason string
	Body   string

	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadAnswer:
		if e.Answer != "" {
			return fmt.Sprintf("bad answer: %q", e.Answer)
		}
		return "bad answer"
	case KindHTTPAnswer:
		return fmt.Sprintf("server answered %d %s", e.Code, e.Reason)
	}
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes sentinel comparisons with errors.Is match on Kind, so
// errors.Is(err, ErrNotConnected) holds for any not-connected error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	// ErrBusy is returned by Connect when a session is already live.
	ErrBusy = &Error{Kind: KindBusy, Message: "already connected"}

	// ErrNotConnected is returned by operations requiring a live session.
	ErrNotConnected = &Error{Kind: KindNotConnected, Message: "not connected"}
)

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf reports the Kind of err if it is an Error from this package.
func KindOf(err error) (Kind, bool) {
	e, ok := err.(*Error)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}
