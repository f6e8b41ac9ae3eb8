// internal/session/session.go
package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/engine"
	"github.com/tamzrod/brewer-simulator/internal/player"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
	"github.com/tamzrod/brewer-simulator/internal/status"
	"github.com/tamzrod/brewer-simulator/internal/transcript"
	"github.com/tamzrod/brewer-simulator/internal/transport"
)

// Session is one simulated instrument: it owns the engine, the transport
// and the player. Nothing in it is shared with other sessions.
type Session struct {
	id  string
	eng *engine.Engine
	tr  transport.Transport
	pl  *player.Player
	log *logrus.Entry

	observer   Observer
	transcript transcript.Publisher
	now        func() time.Time
}

// Options are the optional collaborators of a session.
type Options struct {
	Observer   Observer
	Transcript transcript.Publisher
	Sleep      player.SleepFunc
	Now        func() time.Time
}

// New creates a session. The engine must not be used by anything else.
func New(id string, eng *engine.Engine, tr transport.Transport, log *logrus.Entry, opts Options) (*Session, error) {
	if id == "" {
		return nil, errors.New("session: instrument id required")
	}
	if eng == nil || tr == nil {
		return nil, errors.New("session: engine and transport required")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Session{
		id:         id,
		eng:        eng,
		tr:         tr,
		pl:         player.New(tr, opts.Sleep, log),
		log:        log,
		observer:   opts.Observer,
		transcript: opts.Transcript,
		now:        opts.Now,
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.transcript == nil {
		s.transcript = transcript.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// ID returns the instrument id.
func (s *Session) ID() string { return s.id }

// HandleOnce reads at most one line and answers it.
// ok is false when nothing was handled (read timeout or read failure).
func (s *Session) HandleOnce(ctx context.Context) (res LineResult, ok bool, err error) {
	line, err := s.tr.ReadLine(ctx)
	switch {
	case err == nil:
	case errors.Is(err, transport.ErrReadTimeout):
		return LineResult{}, false, nil
	default:
		return LineResult{}, false, err
	}

	at := s.now()
	s.log.WithField("line", protocol.Escape(string(line))).Info("received line")

	resp := s.eng.HandleLine(line)
	s.log.Debugf("reply %s", protocol.Render(resp.Tokens))

	pb := s.pl.Play(ctx, resp.Tokens, resp.Baud)
	took := s.now().Sub(at)

	res = LineResult{
		InstrumentID: s.id,
		At:           at,
		Received:     line,
		Response:     resp,
		Playback:     pb,
		Took:         took,
		Err:          resp.Err(),
	}
	if res.Err == nil && pb.FirstErr != nil {
		res.Err = &status.TransportError{Err: pb.FirstErr}
	}

	s.observer.ObserveLine(resp, pb, took)
	s.transcript.Publish(transcript.NewEntry(s.id, at, line, resp))

	return res, true, nil
}
