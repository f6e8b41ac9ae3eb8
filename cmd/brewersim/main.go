// cmd/brewersim/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/config"
	"github.com/tamzrod/brewer-simulator/internal/monitor"
	"github.com/tamzrod/brewer-simulator/internal/session"
	"github.com/tamzrod/brewer-simulator/internal/transcript"
	"github.com/tamzrod/brewer-simulator/internal/writer"
	wmodbus "github.com/tamzrod/brewer-simulator/internal/writer/modbus"
)

var version = "dev"

const transcriptQueueSize = 256

func main() {
	cfgPath := flag.String("config", "brewersim.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("brewersim", version)
		return
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	sim := cfg.Simulator
	log := setupLogger(sim.Log)
	log.WithField("version", version).Infof("starting with %d instrument(s)", len(sim.Instruments))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Shared services
	// --------------------

	if sim.Metrics.Enabled {
		mon := monitor.NewMonitor(logrus.NewEntry(log).WithField("component", "metrics"), nil)
		mon.StartMetricsServer(ctx, sim.Metrics.Listen)
		mon.StartRuntimeMonitor(ctx, 10*time.Second)
	}

	var wg sync.WaitGroup

	// log.Fatal skips defers, so startup failures go through fatal.
	var closers closerStack
	fatal := func(format string, args ...any) {
		closers.closeAll(log)
		log.Fatalf(format, args...)
	}

	var pub transcript.Publisher = transcript.Nop{}
	if sim.Transcript.Enabled {
		tlog := logrus.NewEntry(log).WithField("component", "transcript")
		sink, err := transcript.NewRedisSink(ctx, transcript.RedisOptions{
			Addr:     sim.Transcript.Addr,
			Password: sim.Transcript.Password,
			DB:       sim.Transcript.DB,
			Channel:  sim.Transcript.Channel,
			History:  sim.Transcript.History,
		}, tlog)
		if err != nil {
			// the simulator keeps serving without a transcript
			tlog.WithError(err).Error("transcript disabled")
		} else {
			closers.push(sink.Close)
			q := transcript.NewQueue(transcriptQueueSize, sink.Send, tlog)
			pub = q
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.Run(ctx)
			}()
		}
	}

	var statusClient *wmodbus.EndpointClient
	if anyStatus(sim.Instruments) {
		cli, closeCli, err := writer.BuildEndpointClient(sim.StatusMemory)
		if err != nil {
			fatal("status memory connect failed (%s): %v", sim.StatusMemory.Endpoint, err)
		}
		closers.push(closeCli)
		statusClient = cli
	}

	// --------------------
	// Build every session before starting any
	// --------------------

	type instrument struct {
		cfg config.InstrumentConfig
		s   *session.Session
		sw  writer.StatusWriter
		log *logrus.Entry
	}
	built := make([]instrument, 0, len(sim.Instruments))

	for _, in := range sim.Instruments {
		ilog := logrus.NewEntry(log).WithField("instrument", in.ID)
		rec := monitor.NewRecorder(in.ID)

		s, closePort, err := session.Build(in, ilog, session.Options{
			Observer:   rec,
			Transcript: pub,
		})
		if err != nil {
			fatal("session build failed (instrument=%s): %v", in.ID, err)
		}
		closers.push(closePort)
		rec.ObserveBaud(in.Baud)

		// Status writer (optional per instrument)
		var sw writer.StatusWriter
		if plan, ok := writer.BuildStatusPlan(in, sim.StatusMemory); ok && statusClient != nil {
			if dsw, enabled := writer.NewDeviceStatusWriter(plan, statusClient); enabled {
				sw = dsw
			}
		}

		built = append(built, instrument{cfg: in, s: s, sw: sw, log: ilog})
	}
	defer closers.closeAll(log)

	// --------------------
	// Run
	// --------------------

	for _, b := range built {
		out := make(chan session.LineResult, 16)

		wg.Add(2)
		go func() {
			defer wg.Done()
			session.RunStatus(ctx, out, session.NewStatusTracker(b.cfg.Baud), b.sw, b.log)
		}()
		go func() {
			defer wg.Done()
			if err := b.s.Run(ctx, out); err != nil {
				b.log.WithError(err).Error("session ended")
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutting down")
	wg.Wait()
}

// closerStack releases opened ports and connections in reverse order.
type closerStack []func() error

func (c *closerStack) push(f func() error) { *c = append(*c, f) }

func (c *closerStack) closeAll(log logrus.FieldLogger) {
	for i := len(*c) - 1; i >= 0; i-- {
		if err := (*c)[i](); err != nil {
			log.Warnf("close failed: %v", err)
		}
	}
	*c = nil
}

func anyStatus(ins []config.InstrumentConfig) bool {
	for _, in := range ins {
		if in.StatusSlot != nil && in.StatusUnitID != nil {
			return true
		}
	}
	return false
}

// setupLogger builds the process logger from the log section.
func setupLogger(c config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if c.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if c.Output == "file" && c.FilePath != "" {
		f, err := os.OpenFile(c.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warnf("cannot open log file %s, using stdout: %v", c.FilePath, err)
		} else {
			log.SetOutput(f)
		}
	}

	return log
}
