// internal/engine/engine.go
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// Outcome records how one atomic command was handled.
type Outcome struct {
	Kind protocol.Kind
	Text string // escaped for logs
	Err  error  // nil when recognized
}

// Response is the single reply chosen for one received line, plus what the
// player needs to deliver it.
type Response struct {
	Tokens []protocol.Token

	// Baud is the link rate the reply must be played at.
	Baud    int
	Routine device.RoutineState

	Commands []Outcome

	// Matched is true when the reply was picked by the extended-sentinel rule.
	Matched bool
}

// Err returns the first command error on the line, if any.
func (r Response) Err() error {
	for _, c := range r.Commands {
		if c.Err != nil {
			return c.Err
		}
	}
	return nil
}

// Engine is the command dispatcher. It is the only writer of its State and
// must be driven from a single goroutine.
type Engine struct {
	state *device.State
	log   *logrus.Entry
}

// New creates an engine owning st.
func New(st *device.State, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{state: st, log: log}
}

// Baud returns the link rate currently required by the instrument.
func (e *Engine) Baud() int { return e.state.Baud }

// dispatch handles one atomic command. It never panics and never returns
// an error to the caller: failures yield an empty fragment.
func (e *Engine) dispatch(a protocol.Atom) (tokens []protocol.Token, out Outcome) {
	out.Text = protocol.Escape(a.Text)

	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("command", out.Text).Errorf("handler panic: %v", r)
			tokens = nil
			out.Err = fmt.Errorf("%s: handler panic: %v: %w", out.Text, r, protocol.ErrUnrecognizedCommand)
		}
	}()

	cmd, err := protocol.Parse(a)
	if err != nil {
		out.Err = err
		e.unmatched(out.Text, err)
		return nil, out
	}
	out.Kind = cmd.Kind

	tokens, err = e.run(cmd)
	if err != nil {
		out.Err = err
		e.unmatched(out.Text, err)
		return nil, out
	}
	return tokens, out
}

func (e *Engine) run(cmd protocol.Command) ([]protocol.Token, error) {
	h := handlers[cmd.Kind]
	if h == nil {
		return nil, fmt.Errorf("%s: no handler for %s: %w", protocol.Escape(cmd.Text), cmd.Kind, protocol.ErrUnrecognizedCommand)
	}
	return h(e, cmd)
}

func (e *Engine) unmatched(text string, err error) {
	e.log.WithField("command", text).Warnf("unknown command, no answer configured: %v", err)
}
