// internal/session/runner.go
package session

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/brewer-simulator/internal/player"
	"github.com/tamzrod/brewer-simulator/internal/transport"
)

// readBackoff spaces retries after a failed read.
const readBackoff = time.Second

// Run serves lines until ctx is done or the transport is closed, emitting
// one LineResult per handled line on out. One goroutine per instrument.
func (s *Session) Run(ctx context.Context, out chan<- LineResult) error {
	s.log.WithField("baud", s.tr.Baud()).Info("session started")
	defer s.log.Info("session stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		res, ok, err := s.HandleOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, transport.ErrClosed) {
				return err
			}
			s.log.WithError(err).Error("read failed")
			_ = player.Sleep(ctx, readBackoff)
			continue
		}
		if !ok {
			continue
		}

		if out == nil {
			continue
		}
		select {
		case out <- res:
		case <-ctx.Done():
			return nil
		}
	}
}
