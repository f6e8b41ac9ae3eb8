// internal/status/encode.go
package status

// Encode converts a Snapshot into a full device status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotRoutineState] = s.Routine
	regs[SlotBaudDiv10] = s.BaudDiv10
	regs[SlotLinesHandled] = s.LinesHandled
	regs[SlotUnrecognized] = s.Unrecognized

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters, two per register, high
// byte first, zero padded.
func EncodeDeviceName(name string) []uint16 {
	regs := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}
	for i := 0; i < len(b); i += 2 {
		hi := uint16(b[i])
		lo := uint16(0)
		if i+1 < len(b) {
			lo = uint16(b[i+1])
		}
		regs[i/2] = hi<<8 | lo
	}
	return regs
}
