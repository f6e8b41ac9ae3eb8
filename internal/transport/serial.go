// internal/transport/serial.go
package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goburrow/serial"
	"github.com/sirupsen/logrus"
)

// maxLineLen bounds an unterminated line. Past it the buffered bytes are
// dropped and input is skipped up to the next '\r'.
const maxLineLen = 4096

// Opener opens a port for the given configuration. Tests substitute it.
type Opener func(cfg *serial.Config) (io.ReadWriteCloser, error)

func openPort(cfg *serial.Config) (io.ReadWriteCloser, error) {
	return serial.Open(cfg)
}

// Serial is a Transport over a local serial device.
type Serial struct {
	mu   sync.Mutex
	cfg  serial.Config
	open Opener

	port io.ReadWriteCloser
	w    *bufio.Writer

	pending  []byte
	chunk    [256]byte
	skipping bool
	closed   bool

	log *logrus.Entry
}

// DefaultConfig returns 8N1 settings for addr.
func DefaultConfig(addr string, baud int) serial.Config {
	return serial.Config{
		Address:  addr,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	}
}

// OpenSerial opens the device described by cfg.
func OpenSerial(cfg serial.Config) (*Serial, error) {
	return NewSerial(cfg, openPort)
}

// NewSerial opens a port through open.
func NewSerial(cfg serial.Config, open Opener) (*Serial, error) {
	s := &Serial{cfg: cfg, open: open, log: logrus.NewEntry(logrus.StandardLogger())}
	if err := s.reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Serial) reopen() error {
	c := s.cfg
	port, err := s.open(&c)
	if err != nil {
		return fmt.Errorf("open %s at %d bps: %w", s.cfg.Address, s.cfg.BaudRate, err)
	}
	s.port = port
	s.w = bufio.NewWriter(port)
	return nil
}

// SetLogger replaces the logger used for line overflow warnings.
func (s *Serial) SetLogger(log *logrus.Entry) {
	if log != nil {
		s.log = log
	}
}

// ReadLine implements Transport. Bytes of an unfinished line are kept for
// the next call.
func (s *Serial) ReadLine(ctx context.Context) ([]byte, error) {
	for {
		if line, rest, ok := splitLine(s.pending); ok {
			s.pending = append(s.pending[:0:0], rest...)
			return line, nil
		}
		if len(s.pending) > maxLineLen {
			s.log.WithField("dropped", len(s.pending)).Warnf("line longer than %d bytes without CR, discarding", maxLineLen)
			s.pending = s.pending[:0]
			s.skipping = true
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		port := s.port
		s.mu.Unlock()

		n, err := port.Read(s.chunk[:])
		if n > 0 {
			s.accept(s.chunk[:n])
			continue
		}
		switch {
		case err == nil:
			return nil, ErrReadTimeout
		case errors.Is(err, serial.ErrTimeout):
			return nil, ErrReadTimeout
		case errors.Is(err, io.EOF):
			return nil, ErrClosed
		default:
			return nil, fmt.Errorf("read %s: %w", s.cfg.Address, err)
		}
	}
}

// accept buffers freshly read bytes, honouring an overflow skip.
func (s *Serial) accept(b []byte) {
	if s.skipping {
		i := bytes.IndexByte(b, '\r')
		if i < 0 {
			return
		}
		s.skipping = false
		b = b[i+1:]
	}
	s.pending = append(s.pending, b...)
}

// Write implements Transport.
func (s *Serial) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.w.Write(p); err != nil {
		return fmt.Errorf("write %s: %w", s.cfg.Address, err)
	}
	return nil
}

// Flush implements Transport.
func (s *Serial) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.cfg.Address, err)
	}
	return nil
}

// Baud implements Transport.
func (s *Serial) Baud() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.BaudRate
}

// SetBaud drains pending output and reopens the device at the new rate.
func (s *Serial) SetBaud(baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if baud == s.cfg.BaudRate {
		return nil
	}

	_ = s.w.Flush()
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.cfg.Address, err)
	}

	prev := s.cfg.BaudRate
	s.cfg.BaudRate = baud
	if err := s.reopen(); err != nil {
		s.cfg.BaudRate = prev
		if rerr := s.reopen(); rerr != nil {
			s.closed = true
		}
		return err
	}
	return nil
}

// Close implements Transport.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.w.Flush()
	return s.port.Close()
}
