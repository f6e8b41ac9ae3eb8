// internal/transport/transport.go
package transport

import (
	"bytes"
	"context"
	"errors"
)

var (
	// ErrReadTimeout means nothing complete arrived within the read timeout.
	ErrReadTimeout = errors.New("transport: read timeout")
	ErrClosed      = errors.New("transport: closed")
)

// Transport is the byte link between one simulated instrument and its
// control software.
type Transport interface {
	// ReadLine blocks for at most the read timeout and returns one framed
	// line including its terminator.
	ReadLine(ctx context.Context) ([]byte, error)

	// Write buffers p. Bytes leave the host on Flush.
	Write(p []byte) error
	Flush() error

	Baud() int
	SetBaud(baud int) error

	Close() error
}

// splitLine extracts the first framed line from buf.
//
// A line ends at '\r'. A NUL seen where a line starts is a line on its own
// (re.rtn reset). LF is ordinary data: "\n\r" is one line.
func splitLine(buf []byte) (line, rest []byte, ok bool) {
	if len(buf) == 0 {
		return nil, buf, false
	}
	if buf[0] == 0x00 {
		return buf[:1:1], buf[1:], true
	}
	i := bytes.IndexByte(buf, '\r')
	if i < 0 {
		return nil, buf, false
	}
	return buf[: i+1 : i+1], buf[i+1:], true
}
