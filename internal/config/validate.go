// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/status"
)

// Baud rates the instrument boards accept.
var supportedBauds = map[int]bool{
	300: true, 600: true, 1200: true, 2400: true, 4800: true, 9600: true, 19200: true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	sim := cfg.Simulator

	// ------------------------------------------------------------
	// AMBIENT SECTIONS
	// ------------------------------------------------------------

	switch strings.ToLower(sim.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", sim.Log.Format)
	}
	if sim.Log.Output == "file" && sim.Log.FilePath == "" {
		return fmt.Errorf("log.output is file but log.file_path is empty")
	}

	if sim.Transcript.Enabled && sim.Transcript.Addr == "" {
		return fmt.Errorf("transcript is enabled but transcript.addr is empty")
	}
	if sim.Transcript.History < 0 {
		return fmt.Errorf("transcript.history must not be negative")
	}
	if sim.StatusMemory.TimeoutMs < 0 {
		return fmt.Errorf("status_memory.timeout_ms must not be negative")
	}

	// ------------------------------------------------------------
	// INSTRUMENTS
	// ------------------------------------------------------------

	if len(sim.Instruments) == 0 {
		return fmt.Errorf("no instruments configured")
	}

	ids := make(map[string]bool)
	ports := make(map[string]string)

	for _, in := range sim.Instruments {
		if in.ID == "" {
			return fmt.Errorf("instrument on port %q: id is required", in.Port)
		}
		if ids[in.ID] {
			return fmt.Errorf("instrument %q: duplicate id", in.ID)
		}
		ids[in.ID] = true

		if in.Port == "" {
			return fmt.Errorf("instrument %q: port is required", in.ID)
		}
		if prev, exists := ports[in.Port]; exists {
			return fmt.Errorf(
				"port collision: %s used by instruments %q and %q",
				in.Port,
				prev,
				in.ID,
			)
		}
		ports[in.Port] = in.ID

		switch device.Model(strings.ToLower(in.Model)) {
		case "", device.ModelMkII, device.ModelMkIII:
		default:
			return fmt.Errorf("instrument %q: unknown model %q", in.ID, in.Model)
		}

		if in.Baud != 0 && !supportedBauds[in.Baud] {
			return fmt.Errorf("instrument %q: unsupported baud %d", in.ID, in.Baud)
		}
		if in.ReadTimeoutMs < 0 {
			return fmt.Errorf("instrument %q: read_timeout_ms must not be negative", in.ID)
		}
		if in.AzimuthStepsPerRev < 0 {
			return fmt.Errorf("instrument %q: azimuth_steps_per_rev must be positive", in.ID)
		}
		if in.SerialNumber < 0 || in.SerialNumber > 999 {
			return fmt.Errorf("instrument %q: serial_number must be 0..999", in.ID)
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(in.DeviceName); i++ {
			if in.DeviceName[i] > 0x7F {
				return fmt.Errorf(
					"instrument %q: device_name must contain ASCII characters only",
					in.ID,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	type span struct {
		start uint32
		end   uint32
		owner string
	}

	// key = status_unit_id
	spans := make(map[uint8][]span)

	for _, in := range sim.Instruments {
		// status is opt-in
		if in.StatusSlot == nil {
			continue
		}

		if sim.StatusMemory.Endpoint == "" {
			return fmt.Errorf(
				"instrument %q: status_slot is set but status_memory.endpoint is empty",
				in.ID,
			)
		}
		if in.StatusUnitID == nil {
			return fmt.Errorf(
				"instrument %q: status_slot is set but status_unit_id is missing",
				in.ID,
			)
		}

		unitID := *in.StatusUnitID
		start := uint32(*in.StatusSlot) * status.SlotsPerDevice
		end := start + status.SlotsPerDevice - 1
		if end > 0xFFFF {
			return fmt.Errorf(
				"instrument %q: status_slot %d is beyond the register space",
				in.ID,
				*in.StatusSlot,
			)
		}

		for _, s := range spans[unitID] {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by instruments %q and %q",
					sim.StatusMemory.Endpoint,
					unitID,
					*in.StatusSlot,
					s.owner,
					in.ID,
				)
			}
		}

		spans[unitID] = append(spans[unitID], span{
			start: start,
			end:   end,
			owner: in.ID,
		})
	}

	return nil
}
