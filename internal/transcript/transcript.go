// internal/transcript/transcript.go
package transcript

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/engine"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// Entry is one request/reply exchange as seen on the line.
type Entry struct {
	Instrument string    `json:"instrument"`
	Time       time.Time `json:"time"`
	Received   string    `json:"received"`
	Reply      string    `json:"reply"`
	Kinds      []string  `json:"kinds"`
	Matched    bool      `json:"matched_extended"`
	Baud       int       `json:"baud"`
	WaitMs     int64     `json:"wait_ms"`
}

// NewEntry describes one handled line. Control bytes are escaped.
func NewEntry(instrument string, at time.Time, raw []byte, resp engine.Response) Entry {
	kinds := make([]string, len(resp.Commands))
	for i, c := range resp.Commands {
		kinds[i] = c.Kind.String()
	}
	return Entry{
		Instrument: instrument,
		Time:       at,
		Received:   protocol.Escape(string(raw)),
		Reply:      protocol.Escape(string(protocol.Payload(resp.Tokens))),
		Kinds:      kinds,
		Matched:    resp.Matched,
		Baud:       resp.Baud,
		WaitMs:     protocol.TotalWait(resp.Tokens).Milliseconds(),
	}
}

// Publisher accepts entries without blocking the session.
type Publisher interface {
	Publish(e Entry)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Publish(Entry) {}

// ------------------------------------------------------------
// BOUNDED QUEUE
// ------------------------------------------------------------

// SendFunc delivers one entry to the backing store.
type SendFunc func(ctx context.Context, e Entry) error

// Queue decouples sessions from a slow sink. When full, new entries are
// dropped and counted.
type Queue struct {
	ch      chan Entry
	send    SendFunc
	log     *logrus.Entry
	dropped atomic.Uint64
	sent    atomic.Uint64
}

// NewQueue creates a queue holding up to size entries.
func NewQueue(size int, send SendFunc, log *logrus.Entry) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan Entry, size), send: send, log: log}
}

// Publish implements Publisher.
func (q *Queue) Publish(e Entry) {
	select {
	case q.ch <- e:
	default:
		if q.dropped.Add(1) == 1 {
			q.log.Warn("transcript queue full, dropping entries")
		}
	}
}

// Run drains the queue until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-q.ch:
			if err := q.send(ctx, e); err != nil {
				q.log.WithError(err).Warn("transcript publish failed")
				continue
			}
			q.sent.Add(1)
		}
	}
}

// Dropped returns how many entries were discarded.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Sent returns how many entries reached the sink.
func (q *Queue) Sent() uint64 { return q.sent.Load() }
