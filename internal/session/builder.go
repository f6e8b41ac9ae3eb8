// internal/session/builder.go
package session

import (
	"time"

	"github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/brewer-simulator/internal/config"
	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/engine"
	"github.com/tamzrod/brewer-simulator/internal/transport"
)

// Build opens the instrument's serial port and wires a session around it.
// The returned closer releases the port.
func Build(in cfg.InstrumentConfig, log *logrus.Entry, opts Options) (*Session, func() error, error) {
	sc := transport.DefaultConfig(in.Port, in.Baud)
	sc.Timeout = time.Duration(in.ReadTimeoutMs) * time.Millisecond

	// fail fast at startup
	tr, err := transport.OpenSerial(sc)
	if err != nil {
		return nil, nil, err
	}
	tr.SetLogger(log)

	s, err := Assemble(in, tr, log, opts)
	if err != nil {
		_ = tr.Close()
		return nil, nil, err
	}
	return s, tr.Close, nil
}

// Assemble wires a session around an already open transport.
func Assemble(in cfg.InstrumentConfig, tr transport.Transport, log *logrus.Entry, opts Options) (*Session, error) {
	st := device.New(in.Settings())
	return New(in.ID, engine.New(st, log), tr, log, opts)
}
