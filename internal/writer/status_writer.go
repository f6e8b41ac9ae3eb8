// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/brewer-simulator/internal/status"
)

// deviceStatusWriter is the concrete implementation used by the simulator.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
	nameRegs []uint16
}

// live slots compared on incremental writes
var liveSlots = []struct {
	slot int
	name string
}{
	{status.SlotHealthCode, "health"},
	{status.SlotLastErrorCode, "last_error"},
	{status.SlotSecondsInError, "seconds"},
	{status.SlotRoutineState, "routine"},
	{status.SlotBaudDiv10, "baud"},
	{status.SlotLinesHandled, "lines"},
	{status.SlotUnrecognized, "unrecognized"},
}

// NewDeviceStatusWriter builds a status writer if status is enabled for the
// instrument. A nil plan disables status.
func NewDeviceStatusWriter(plan *StatusPlan, cli endpointClient) (*deviceStatusWriter, bool) {
	if plan == nil || cli == nil {
		return nil, false
	}

	return &deviceStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
		nameRegs: status.EncodeDeviceName(sanitizeName(plan.DeviceName)),
	}, true
}

// WriteStatus delivers a session status snapshot into status memory.
// On any write failure, the next call re-asserts the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, baseAddr, sw.fullBlockRegs(s)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: changed live slots only
	// ------------------------------------------------------------
	prev := status.Encode(sw.last)
	next := status.Encode(s)

	var errs []string
	for _, ls := range liveSlots {
		if prev[ls.slot] == next[ls.slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+uint16(ls.slot), []uint16{next[ls.slot]}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", ls.slot, ls.name, err))
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	sw.last = s
	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each instrument owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

func (sw *deviceStatusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)

	// Reserved slots stay zero. Device name always lives at the end.
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], sw.nameRegs)
	return regs
}

// sanitizeName maps non-printable bytes to '?'.
func sanitizeName(name string) string {
	b := []byte(name)
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}
	return string(b)
}
