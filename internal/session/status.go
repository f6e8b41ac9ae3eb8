// internal/session/status.go
package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/status"
	"github.com/tamzrod/brewer-simulator/internal/writer"
)

// StatusTracker folds line results into the status snapshot of one
// instrument. It owns the snapshot; the writer only delivers it.
type StatusTracker struct {
	snap status.Snapshot
}

// NewStatusTracker starts in the boot state at the nominal rate.
func NewStatusTracker(baud int) *StatusTracker {
	return &StatusTracker{snap: status.Snapshot{
		Health:    status.HealthUnknown,
		BaudDiv10: uint16(baud / 10),
	}}
}

// Snapshot returns the current snapshot.
func (t *StatusTracker) Snapshot() status.Snapshot { return t.snap }

// Apply records one handled line and reports whether the snapshot changed.
func (t *StatusTracker) Apply(res LineResult) bool {
	prev := t.snap
	s := &t.snap

	s.LinesHandled++ // wraps at 65535
	for _, c := range res.Response.Commands {
		if c.Err != nil {
			s.Unrecognized++
		}
	}

	s.BaudDiv10 = uint16(res.Response.Baud / 10)
	s.Routine = 0
	if res.Response.Routine == device.RoutineActive {
		s.Routine = 1
	}

	if res.Err == nil {
		// Recovery / OK
		s.Health = status.HealthOK
		s.LastErrorCode = status.CodeNone
		s.SecondsInError = 0
	} else {
		s.Health = status.HealthError
		s.LastErrorCode = status.CodeFor(res.Err)
		// NOTE: seconds_in_error increments on the 1Hz ticker only.
	}

	return *s != prev
}

// Tick advances seconds_in_error while not OK. It never wraps.
func (t *StatusTracker) Tick() bool {
	if t.snap.Health == status.HealthOK || t.snap.SecondsInError == 65535 {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// RunStatus consumes line results until ctx is done, delivering status
// changes through sw. A nil sw only drains the channel.
func RunStatus(ctx context.Context, in <-chan LineResult, tracker *StatusTracker, sw writer.StatusWriter, log *logrus.Entry) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	write := func(what string) {
		if sw == nil {
			return
		}
		if err := sw.WriteStatus(tracker.Snapshot()); err != nil {
			log.WithError(err).Warnf("status write failed (%s)", what)
		}
	}

	// Full block write on start (identity re-assert) if enabled.
	write("start")

	for {
		select {
		case <-ctx.Done():
			return

		case res, ok := <-in:
			if !ok {
				return
			}
			if tracker.Apply(res) {
				write("line")
			}

		case <-secTicker.C:
			if tracker.Tick() {
				write("seconds tick")
			}
		}
	}
}
