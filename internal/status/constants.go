// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per instrument.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the session health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (see Code* below).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the session has been in error.
const SlotSecondsInError = 2

// SlotRoutineState holds 0 (idle) or 1 (inside re.rtn).
const SlotRoutineState = 3

// SlotBaudDiv10 holds the current link rate divided by ten.
const SlotBaudDiv10 = 4

// SlotLinesHandled counts received lines, wrapping at 65535.
const SlotLinesHandled = 5

// SlotUnrecognized counts commands answered with nothing, wrapping at 65535.
const SlotUnrecognized = 6

// ---- RESERVED RANGE ----

// Slots 7-10 are reserved for future use.
const SlotReservedStart = 7
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy session.
const HealthOK uint16 = 1

// HealthError represents a session error state.
const HealthError uint16 = 2

// ---- ERROR CODES ----

const (
	CodeNone            uint16 = 0
	CodeUnrecognized    uint16 = 1
	CodeMalformed       uint16 = 2
	CodeUnsupportedAddr uint16 = 3
	CodeTransportWrite  uint16 = 4
)
