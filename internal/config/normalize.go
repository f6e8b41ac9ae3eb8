// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/status"
)

// Defaults applied by Normalize.
const (
	DefaultBaud          = 1200
	DefaultReadTimeoutMs = 200
	DefaultMetricsListen = ":9108"
	DefaultChannel       = "brewer_exchanges"
	DefaultHistory       = 1000
	DefaultStatusTimeout = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	sim := &cfg.Simulator

	// ------------------------------------------------------------
	// AMBIENT DEFAULTS
	// ------------------------------------------------------------

	if sim.Log.Level == "" {
		sim.Log.Level = "info"
	}
	sim.Log.Format = strings.ToLower(sim.Log.Format)
	if sim.Log.Format == "" {
		sim.Log.Format = "text"
	}
	if sim.Log.Output == "" {
		sim.Log.Output = "stdout"
	}

	if sim.Metrics.Listen == "" {
		sim.Metrics.Listen = DefaultMetricsListen
	}
	if sim.Transcript.Channel == "" {
		sim.Transcript.Channel = DefaultChannel
	}
	if sim.Transcript.History == 0 {
		sim.Transcript.History = DefaultHistory
	}
	if sim.StatusMemory.TimeoutMs == 0 {
		sim.StatusMemory.TimeoutMs = DefaultStatusTimeout
	}

	for i := range sim.Instruments {
		in := &sim.Instruments[i]

		// ------------------------------------------------------------
		// INSTRUMENT DEFAULTS
		// ------------------------------------------------------------

		in.Model = strings.ToLower(in.Model)
		if in.Model == "" {
			in.Model = string(device.ModelMkII)
		}
		if in.Baud == 0 {
			in.Baud = DefaultBaud
		}
		if in.ReadTimeoutMs == 0 {
			in.ReadTimeoutMs = DefaultReadTimeoutMs
		}
		if in.AzimuthStepsPerRev == 0 {
			in.AzimuthStepsPerRev = device.DefaultAzimuthStepsPerRev
		}

		// ------------------------------------------------------------
		// DEVICE STATUS BLOCK NORMALIZATION (OPT-IN)
		// ------------------------------------------------------------

		// Skip instruments that did not opt in
		if in.StatusSlot == nil {
			continue
		}

		if in.DeviceName == "" {
			in.DeviceName = in.ID
		}

		// Normalize device_name:
		// - ASCII already validated
		// - Truncate to max 16 characters
		if len(in.DeviceName) > status.DeviceNameMaxChars {
			in.DeviceName = in.DeviceName[:status.DeviceNameMaxChars]
		}
	}
}
