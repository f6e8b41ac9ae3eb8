// internal/session/session_test.go
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/brewer-simulator/internal/config"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
	"github.com/tamzrod/brewer-simulator/internal/status"
	"github.com/tamzrod/brewer-simulator/internal/transcript"
	"github.com/tamzrod/brewer-simulator/internal/transport"
)

// scriptedTransport replays lines, then reports the link closed.
type scriptedTransport struct {
	mu sync.Mutex

	lines    []string
	timeouts int // timeouts reported before the first line

	baud     int
	bauds    []int
	buffered bytes.Buffer
	flushed  []string

	failWrites bool
}

func (f *scriptedTransport) ReadLine(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.timeouts > 0 {
		f.timeouts--
		return nil, transport.ErrReadTimeout
	}
	if len(f.lines) == 0 {
		return nil, transport.ErrClosed
	}
	l := f.lines[0]
	f.lines = f.lines[1:]
	return []byte(l), nil
}

func (f *scriptedTransport) Write(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("port unplugged")
	}
	f.buffered.Write(p)
	return nil
}

func (f *scriptedTransport) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buffered.Len() > 0 {
		f.flushed = append(f.flushed, f.buffered.String())
		f.buffered.Reset()
	}
	return nil
}

func (f *scriptedTransport) Baud() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baud
}

func (f *scriptedTransport) SetBaud(b int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baud = b
	f.bauds = append(f.bauds, b)
	return nil
}

func (f *scriptedTransport) Close() error { return nil }

func (f *scriptedTransport) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.flushed, "")
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newSession(t *testing.T, tr *scriptedTransport, opts Options) *Session {
	t.Helper()
	if opts.Sleep == nil {
		opts.Sleep = noSleep
	}
	log, _ := logtest.NewNullLogger()
	in := config.InstrumentConfig{ID: "brw072", Model: "mkii", Baud: 1200, SerialNumber: 72}
	s, err := Assemble(in, tr, logrus.NewEntry(log), opts)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s *Session) ([]LineResult, error) {
	t.Helper()
	out := make(chan LineResult, 64)
	err := s.Run(context.Background(), out)
	close(out)

	var got []LineResult
	for r := range out {
		got = append(got, r)
	}
	return got, err
}

// ---- tests ----

func TestSession_QuickScanEndToEnd(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, lines: []string{"B,1\r", "R,0,7,1\r", "O\r"}}
	s := newSession(t, tr, Options{})

	results, err := collect(t, s)

	require.ErrorIs(t, err, transport.ErrClosed)
	require.Len(t, results, 3)

	want := []int{1068, 0, 38, 73, 17035, 51, 22, 115}
	vals := make([]string, len(want))
	for i, v := range want {
		vals[i] = fmt.Sprintf("%9d", v)
	}
	assert.Contains(t, tr.output(), strings.Join(vals, ",")+"\r\n\x00\x00\x00\x00\x00\x00\r\n")
	assert.Empty(t, tr.bauds)
}

func TestSession_HandshakeBaudSequence(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, lines: []string{"\x00", "\x00"}}
	s := newSession(t, tr, Options{})

	results, _ := collect(t, s)

	require.Len(t, results, 2)
	assert.Equal(t, []int{300, 1200}, tr.bauds)
	assert.Equal(t, 300, results[0].Response.Baud)
	assert.Equal(t, 1200, results[1].Response.Baud)

	out := tr.output()
	assert.Contains(t, out, "BREWER OZONE SPECTROPHOTOMETER")
	assert.Equal(t, 1, strings.Count(out, "BREWER OZONE SPECTROPHOTOMETER"))
	assert.Equal(t, 2, strings.Count(out, "VERSION 39.5"))
}

func TestSession_UnknownCommandSendsNothing(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, lines: []string{"Q,9\r"}}
	s := newSession(t, tr, Options{})

	results, _ := collect(t, s)

	require.Len(t, results, 1)
	assert.Empty(t, tr.output())
	assert.ErrorIs(t, results[0].Err, protocol.ErrUnrecognizedCommand)
}

func TestSession_TimeoutsKeepLooping(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, timeouts: 3, lines: []string{"\r"}}
	s := newSession(t, tr, Options{})

	results, err := collect(t, s)

	require.ErrorIs(t, err, transport.ErrClosed)
	require.Len(t, results, 1)
	assert.Equal(t, "\r\n\x00\x00\x00\x00\x00\x00-> ", tr.output())
}

func TestSession_LineFeedKeepAliveAnsweredOnce(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, lines: []string{"\n\r"}}
	s := newSession(t, tr, Options{})

	results, _ := collect(t, s)

	require.Len(t, results, 1)
	assert.Equal(t, protocol.KindLineFeed, results[0].Response.Commands[0].Kind)
	assert.Equal(t, 1, strings.Count(tr.output(), "-> "))
}

func TestSession_WriteFailureIsTransportError(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, lines: []string{"E,1\r"}, failWrites: true}
	s := newSession(t, tr, Options{})

	results, _ := collect(t, s)

	require.Len(t, results, 1)
	assert.Equal(t, status.CodeTransportWrite, status.CodeFor(results[0].Err))
	assert.Equal(t, 2, results[0].Playback.WriteErrors)
}

func TestSession_CancelledStops(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, timeouts: 1 << 30}
	s := newSession(t, tr, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, nil) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not stop")
	}
}

type recordingPublisher struct {
	entries []transcript.Entry
}

func (r *recordingPublisher) Publish(e transcript.Entry) { r.entries = append(r.entries, e) }

func TestSession_PublishesTranscript(t *testing.T) {
	tr := &scriptedTransport{baud: 1200, lines: []string{"D,2955\r"}}
	pub := &recordingPublisher{}
	s := newSession(t, tr, Options{Transcript: pub})

	_, _ = collect(t, s)

	require.Len(t, pub.entries, 1)
	assert.Equal(t, "brw072", pub.entries[0].Instrument)
	assert.Equal(t, []string{"dump"}, pub.entries[0].Kinds)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", nil, nil, nil, Options{})
	assert.Error(t, err)
}
