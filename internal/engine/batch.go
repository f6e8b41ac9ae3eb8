// internal/engine/batch.go
package engine

import (
	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// HandleLine processes one received line: every command on it is dispatched
// left to right against the shared state, then a single reply is chosen.
func (e *Engine) HandleLine(raw []byte) Response {
	atoms := protocol.Normalize(raw)

	frags := make([][]protocol.Token, len(atoms))
	outcomes := make([]Outcome, len(atoms))
	for i, a := range atoms {
		frags[i], outcomes[i] = e.dispatch(a)
	}

	chosen, matched := resolve(frags)

	// ------------------------------------------------------------
	// LAST ANSWER (replayed by T)
	// ------------------------------------------------------------
	// Multi-command lines update it only through the extended rule.
	// Single commands update it unless the reply is empty or a bare ack.
	if matched || (len(frags) == 1 && len(chosen) > 0 && !protocol.IsIdleOnly(chosen)) {
		e.state.LastAnswer = chosen
	}

	return Response{
		Tokens:   chosen,
		Baud:     e.state.Baud,
		Routine:  e.state.Routine,
		Commands: outcomes,
		Matched:  matched,
	}
}

// resolve picks the first fragment closed by the extended sentinel,
// otherwise the last fragment. Control software depends on this order.
func resolve(frags [][]protocol.Token) ([]protocol.Token, bool) {
	for _, f := range frags {
		if protocol.EndsExtended(f) {
			return f, true
		}
	}
	if len(frags) == 0 {
		return nil, false
	}
	return frags[len(frags)-1], false
}
