// internal/status/code.go
package status

import (
	"errors"

	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// CodeFor maps a session error onto the status block error code.
// Unknown errors report as unrecognized.
func CodeFor(err error) uint16 {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, protocol.ErrMalformedArgument):
		return CodeMalformed
	case errors.Is(err, protocol.ErrUnsupportedAddress):
		return CodeUnsupportedAddr
	case errors.Is(err, protocol.ErrUnrecognizedCommand):
		return CodeUnrecognized
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeUnrecognized
}

// TransportError tags a playback failure so CodeFor reports it as a write
// error.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Code() uint16  { return CodeTransportWrite }
