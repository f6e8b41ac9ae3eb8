// internal/monitor/metrics.go
package monitor

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/engine"
	"github.com/tamzrod/brewer-simulator/internal/player"
)

var (
	// line metrics
	LinesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewersim_lines_received_total",
			Help: "Lines received from the control software",
		},
		[]string{"instrument"},
	)

	CommandsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewersim_commands_total",
			Help: "Atomic commands dispatched, by kind",
		},
		[]string{"instrument", "kind"},
	)

	CommandsUnrecognized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewersim_commands_unrecognized_total",
			Help: "Commands answered with nothing",
		},
		[]string{"instrument"},
	)

	// playback metrics
	BytesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewersim_bytes_written_total",
			Help: "Reply bytes handed to the transport",
		},
		[]string{"instrument"},
	)

	WriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewersim_write_errors_total",
			Help: "Transport write, flush and baud change failures",
		},
		[]string{"instrument"},
	)

	ReplyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brewersim_reply_duration_seconds",
			Help:    "Time spent playing one reply, waits included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"instrument"},
	)

	// link state
	BaudRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brewersim_baud_rate",
			Help: "Current link rate",
		},
		[]string{"instrument"},
	)

	RoutineActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brewersim_reroutine_active",
			Help: "1 while the re.rtn handshake is running",
		},
		[]string{"instrument"},
	)

	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "brewersim_goroutines",
		Help: "Current goroutine count",
	})
)

// Monitor owns metric registration and the metrics HTTP endpoint.
type Monitor struct {
	log      *logrus.Entry
	gatherer prometheus.Gatherer
}

// NewMonitor registers every metric on reg. A nil reg uses the default
// registry.
func NewMonitor(log *logrus.Entry, reg *prometheus.Registry) *Monitor {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	registerer.MustRegister(
		LinesReceived,
		CommandsHandled,
		CommandsUnrecognized,
		BytesWritten,
		WriteErrors,
		ReplyDuration,
		BaudRate,
		RoutineActive,
		GoroutineCount,
	)

	return &Monitor{log: log, gatherer: gatherer}
}

// Handler serves /metrics and /health.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// StartMetricsServer serves Handler on listen until ctx is done.
func (m *Monitor) StartMetricsServer(ctx context.Context, listen string) {
	srv := &http.Server{
		Addr:              listen,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	m.log.Infof("metrics server listening on %s", listen)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Errorf("metrics server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// StartRuntimeMonitor samples runtime gauges every interval.
func (m *Monitor) StartRuntimeMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				GoroutineCount.Set(float64(runtime.NumGoroutine()))
			}
		}
	}()
}

// ------------------------------------------------------------
// SESSION RECORDER
// ------------------------------------------------------------

// Recorder feeds one instrument's lines into the metrics.
type Recorder struct {
	instrument string
}

// NewRecorder returns a recorder labelled with the instrument id.
func NewRecorder(instrument string) *Recorder {
	return &Recorder{instrument: instrument}
}

// ObserveLine records one handled line and its playback.
func (r *Recorder) ObserveLine(resp engine.Response, res player.Result, took time.Duration) {
	id := r.instrument

	LinesReceived.WithLabelValues(id).Inc()
	for _, c := range resp.Commands {
		if c.Err != nil {
			CommandsUnrecognized.WithLabelValues(id).Inc()
			continue
		}
		CommandsHandled.WithLabelValues(id, c.Kind.String()).Inc()
	}

	BytesWritten.WithLabelValues(id).Add(float64(res.Bytes))
	WriteErrors.WithLabelValues(id).Add(float64(res.WriteErrors))
	ReplyDuration.WithLabelValues(id).Observe(took.Seconds())

	BaudRate.WithLabelValues(id).Set(float64(resp.Baud))
	routine := 0.0
	if resp.Routine == device.RoutineActive {
		routine = 1
	}
	RoutineActive.WithLabelValues(id).Set(routine)
}

// ObserveBaud records the link rate outside of line handling.
func (r *Recorder) ObserveBaud(baud int) {
	BaudRate.WithLabelValues(r.instrument).Set(float64(baud))
}
