// internal/player/player.go
package player

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/protocol"
	"github.com/tamzrod/brewer-simulator/internal/transport"
)

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Result summarizes one playback.
type Result struct {
	Bytes       int
	WriteErrors int
	BaudChanges int
	Aborted     bool

	// FirstErr is the first transport failure, nil on a clean run.
	FirstErr error
}

// Player executes response tokens against a transport, in order.
type Player struct {
	tr    transport.Transport
	sleep SleepFunc
	log   *logrus.Entry
}

// New creates a player writing to tr. A nil sleep uses real time.
func New(tr transport.Transport, sleep SleepFunc, log *logrus.Entry) *Player {
	if sleep == nil {
		sleep = Sleep
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Player{tr: tr, sleep: sleep, log: log}
}

// Play sends tokens at the required baud. Transport failures never stop
// playback; cancellation stops it between tokens after draining what was
// already written.
func (p *Player) Play(ctx context.Context, tokens []protocol.Token, baud int) Result {
	var res Result

	for _, tok := range tokens {
		if ctx.Err() != nil {
			res.Aborted = true
			break
		}

		if baud > 0 && p.tr.Baud() != baud {
			if err := p.tr.SetBaud(baud); err != nil {
				p.fail(&res, "set baud", err)
			} else {
				res.BaudChanges++
				p.log.Infof("serial port baudrate set to %d", baud)
			}
		}

		switch tok.Kind {
		case protocol.TokenWait:
			p.log.Debugf("wait %s", tok.Wait)
			if err := p.sleep(ctx, tok.Wait); err != nil {
				res.Aborted = true
			}

		case protocol.TokenBytes:
			p.log.Debugf("write %q", protocol.Escape(tok.Data))
			if err := p.tr.Write([]byte(tok.Data)); err != nil {
				p.fail(&res, "write", err)
				continue
			}
			res.Bytes += len(tok.Data)

		case protocol.TokenFlush:
			if err := p.tr.Flush(); err != nil {
				p.fail(&res, "flush", err)
			}
		}

		if res.Aborted {
			break
		}
	}

	if res.Aborted {
		if err := p.tr.Flush(); err != nil {
			p.fail(&res, "flush", err)
		}
		p.log.Info("playback aborted")
	}
	return res
}

func (p *Player) fail(res *Result, op string, err error) {
	res.WriteErrors++
	if res.FirstErr == nil {
		res.FirstErr = err
	}
	p.log.WithError(err).Errorf("transport %s failed", op)
}
