// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helper to build an instrument quickly
func instrument(id, port string, slot *uint16, unitID *uint8) InstrumentConfig {
	return InstrumentConfig{
		ID:           id,
		Port:         port,
		StatusSlot:   slot,
		StatusUnitID: unitID,
	}
}

func u16(v uint16) *uint16 { return &v }
func u8(v uint8) *uint8    { return &v }

func withInstruments(ins ...InstrumentConfig) *Config {
	return &Config{
		Simulator: SimulatorConfig{
			StatusMemory: StatusMemoryConfig{Endpoint: "127.0.0.1:502"},
			Instruments:  ins,
		},
	}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	cfg := withInstruments(instrument("brw072", "/dev/ttyS1", nil, nil))

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoInstruments(t *testing.T) {
	if err := Validate(withInstruments()); err == nil {
		t.Fatalf("expected error for empty instrument list")
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	cfg := withInstruments(
		instrument("brw072", "/dev/ttyS1", nil, nil),
		instrument("brw072", "/dev/ttyS2", nil, nil),
	)

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidate_PortCollision(t *testing.T) {
	cfg := withInstruments(
		instrument("brw072", "/dev/ttyS1", nil, nil),
		instrument("brw185", "/dev/ttyS1", nil, nil),
	)

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "port collision") {
		t.Fatalf("expected port collision, got %v", err)
	}
}

func TestValidate_ModelAndBaud(t *testing.T) {
	in := instrument("brw072", "/dev/ttyS1", nil, nil)
	in.Model = "MKIII"
	in.Baud = 9600
	if err := Validate(withInstruments(in)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.Model = "mkiv"
	if err := Validate(withInstruments(in)); err == nil {
		t.Fatalf("expected unknown model error")
	}

	in.Model = "mkii"
	in.Baud = 1234
	if err := Validate(withInstruments(in)); err == nil {
		t.Fatalf("expected unsupported baud error")
	}
}

func TestValidate_DeviceNameASCII(t *testing.T) {
	in := instrument("brw072", "/dev/ttyS1", nil, nil)
	in.DeviceName = "BREWER-µ"

	if err := Validate(withInstruments(in)); err == nil {
		t.Fatalf("expected non-ASCII device name error")
	}
}

func TestValidate_StatusNoOverlapDifferentUnit(t *testing.T) {
	cfg := withInstruments(
		instrument("brw072", "/dev/ttyS1", u16(0), u8(1)),
		instrument("brw185", "/dev/ttyS2", u16(0), u8(2)),
	)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StatusNoOverlapDifferentSlot(t *testing.T) {
	cfg := withInstruments(
		instrument("brw072", "/dev/ttyS1", u16(0), u8(1)),
		instrument("brw185", "/dev/ttyS2", u16(1), u8(1)),
	)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StatusSlotCollision(t *testing.T) {
	cfg := withInstruments(
		instrument("brw072", "/dev/ttyS1", u16(3), u8(1)),
		instrument("brw185", "/dev/ttyS2", u16(3), u8(1)),
	)

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "status_slot collision") {
		t.Fatalf("expected status_slot collision, got %v", err)
	}
}

func TestValidate_StatusRequiresEndpoint(t *testing.T) {
	cfg := withInstruments(instrument("brw072", "/dev/ttyS1", u16(0), u8(1)))
	cfg.Simulator.StatusMemory.Endpoint = ""

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing endpoint error")
	}
}

func TestValidate_StatusRequiresUnitID(t *testing.T) {
	cfg := withInstruments(instrument("brw072", "/dev/ttyS1", u16(0), nil))

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing status_unit_id error")
	}
}

func TestValidate_TranscriptNeedsAddr(t *testing.T) {
	cfg := withInstruments(instrument("brw072", "/dev/ttyS1", nil, nil))
	cfg.Simulator.Transcript.Enabled = true

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected transcript addr error")
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	in := instrument("brw072", "/dev/ttyS1", u16(0), u8(1))
	in.Model = "MKII"
	cfg := withInstruments(in)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulator.Instruments[0].Model != "MKII" || cfg.Simulator.Instruments[0].Baud != 0 {
		t.Fatalf("Validate mutated the config: %+v", cfg.Simulator.Instruments[0])
	}
}

// ---- normalize ----

func TestNormalize_Defaults(t *testing.T) {
	in := instrument("brewer-072-observatory", "/dev/ttyS1", u16(0), u8(1))
	in.Model = "MKIII"
	cfg := withInstruments(in)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Normalize(cfg)

	got := cfg.Simulator.Instruments[0]
	if got.Model != "mkiii" {
		t.Fatalf("model: got=%q", got.Model)
	}
	if got.Baud != DefaultBaud || got.ReadTimeoutMs != DefaultReadTimeoutMs {
		t.Fatalf("baud/timeout defaults missing: %+v", got)
	}
	if got.AzimuthStepsPerRev != 14500 {
		t.Fatalf("steps/rev default missing: %d", got.AzimuthStepsPerRev)
	}
	if got.DeviceName != "brewer-072-obser" {
		t.Fatalf("device name: got=%q", got.DeviceName)
	}
	if cfg.Simulator.Log.Level != "info" || cfg.Simulator.Log.Format != "text" {
		t.Fatalf("log defaults missing: %+v", cfg.Simulator.Log)
	}

	s := got.Settings()
	if s.ReadTimeout.Milliseconds() != DefaultReadTimeoutMs || s.NominalBaud != DefaultBaud {
		t.Fatalf("settings: %+v", s)
	}
}

// ---- load ----

func TestLoad(t *testing.T) {
	const doc = `
simulator:
  log: {level: debug, format: json}
  status_memory: {endpoint: "127.0.0.1:502"}
  instruments:
    - id: brw072
      port: /dev/ttyS1
      model: mkii
      baud: 1200
      serial_number: 72
      status_slot: 0
      status_unit_id: 1
`
	path := filepath.Join(t.TempDir(), "brewersim.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	in := cfg.Simulator.Instruments[0]
	if in.SerialNumber != 72 || in.StatusSlot == nil || *in.StatusSlot != 0 {
		t.Fatalf("decoded instrument: %+v", in)
	}
	if cfg.Simulator.Log.Format != "json" {
		t.Fatalf("log format: %q", cfg.Simulator.Log.Format)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
