package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusLine(t *testing.T) {
	code, reason, ok := parseStatusLine("HTTP/1.0 200 OK")
	require.True(t, ok)
	assert.Equal(t, 200, code)
	assert.Equal(t, "OK", reason)

	code, reason, ok = parseStatusLine("HTTP/1.1 403 Forbidden")
	require.True(t, ok)
	assert.Equal(t, 403, code)
	assert.Equal(t, "Forbidden", reason)

	// some servers answer with the ICY token instead of a HTTP version
	code, _, ok = parseStatusLine("ICY 200 OK")
	require.True(t, ok)
	assert.Equal(t, 200, code)

	// reason phrase is optional
	code, reason, ok = parseStatusLine("HTTP/1.0 401")
	require.True(t, ok)
	assert.Equal(t, 401, code)
	assert.Equal(t, "", reason)

	_, _, ok = parseStatusLine("definitely not a status line")
	assert.False(t, ok)

	_, _, ok = parseStatusLine("garbage")
	assert.False(t, ok)
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Kind: KindHTTPAnswer, Code: 403, Reason: "Forbidden", Body: "denied"}
	assert.Equal(t, "server answered 403 Forbidden", err.Error())

	err = &Error{Kind: KindBadAnswer, Answer: "INVALID"}
	assert.Equal(t, `bad answer: "INVALID"`, err.Error())

	cause := errors.New("connection refused")
	err = newError(KindConnect, "connect localhost:8000", cause)
	assert.Equal(t, "connect: connect localhost:8000: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorKindMatching(t *testing.T) {
	assert.ErrorIs(t, &Error{Kind: KindBusy}, ErrBusy)
	assert.ErrorIs(t, &Error{Kind: KindNotConnected, Message: "x"}, ErrNotConnected)
	assert.NotErrorIs(t, &Error{Kind: KindWrite}, ErrNotConnected)

	kind, ok := KindOf(&Error{Kind: KindRead})
	require.True(t, ok)
	assert.Equal(t, KindRead, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
