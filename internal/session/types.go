// internal/session/types.go
package session

import (
	"time"

	"github.com/tamzrod/brewer-simulator/internal/engine"
	"github.com/tamzrod/brewer-simulator/internal/player"
)

// LineResult is what one handled line produced.
type LineResult struct {
	InstrumentID string
	At           time.Time

	Received []byte
	Response engine.Response
	Playback player.Result
	Took     time.Duration

	// Err is the first command or transport failure of the line.
	Err error
}

// Observer receives every handled line, for metrics.
type Observer interface {
	ObserveLine(resp engine.Response, res player.Result, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveLine(engine.Response, player.Result, time.Duration) {}
