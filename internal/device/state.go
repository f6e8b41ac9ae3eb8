// internal/device/state.go
package device

import (
	"time"

	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// Model identifies the instrument board generation.
type Model string

const (
	ModelMkII  Model = "mkii"
	ModelMkIII Model = "mkiii"
)

// ---- GEOMETRY ----

const (
	NumMotors    = 16
	NumSensors   = 24
	NumPositions = 8 // wavelength positions 0..7
	MaxParams    = 10

	// ReRoutineBaud is the link rate used while re.rtn runs without an IOS board.
	ReRoutineBaud = 300

	// DefaultAzimuthStepsPerRev applies when the session does not set one.
	DefaultAzimuthStepsPerRev = 14500
)

// ---- MOTOR INDICES ----

const (
	MotorZenithPrism   = 1
	MotorAzimuth       = 2
	MotorIris          = 3
	MotorMicrometer2   = 9
	MotorMicrometer1   = 10
	MotorZenithTracker = 13
)

// Settings is the immutable per-session configuration.
type Settings struct {
	Model              Model
	NominalBaud        int
	ReadTimeout        time.Duration
	IOSBoard           bool
	AzimuthStepsPerRev int
	SerialNumber       int
	Seed               uint64
}

// RoutineState tracks the re.rtn handshake.
type RoutineState int

const (
	RoutineIdle RoutineState = iota
	RoutineActive
)

func (r RoutineState) String() string {
	if r == RoutineActive {
		return "in_routine"
	}
	return "idle"
}

// Lamps holds the internal lamp switches. Both may be on.
type Lamps struct {
	FEL bool // quartz-halogen
	HG  bool // mercury
}

// Measurement is the context left by the last R,p1,p2,p3 command.
type Measurement struct {
	P1, P2, P3 int

	Signals   [NumPositions]int
	HasSignal [NumPositions]bool
}

// Positions returns the measured wavelength positions [P1..P2].
func (m Measurement) Positions() []int {
	if m.P2 < m.P1 {
		return nil
	}
	out := make([]int, 0, m.P2-m.P1+1)
	for p := m.P1; p <= m.P2; p++ {
		out = append(out, p)
	}
	return out
}

// ParamVector is the last generic L,... parameter list.
type ParamVector struct {
	Values [MaxParams]int
	Len    int
}

// Slice returns the stored parameters.
func (p ParamVector) Slice() []int {
	return append([]int(nil), p.Values[:p.Len]...)
}

// Equal reports whether the vector holds exactly vals.
func (p ParamVector) Equal(vals ...int) bool {
	if len(vals) != p.Len {
		return false
	}
	for i, v := range vals {
		if p.Values[i] != v {
			return false
		}
	}
	return true
}

// State is the canonical mutable model of one simulated instrument.
// It is owned by exactly one engine and holds no references shared with
// other sessions, so a plain copy is a full snapshot.
type State struct {
	Settings Settings

	Motors  [NumMotors]Motor
	Sensors [NumSensors]AnalogSensor
	Lamps   Lamps

	Measurement Measurement
	Params      ParamVector
	GStatus     [NumStatusAddresses]StatusWord

	Routine RoutineState
	Baud    int
	Echo    bool

	// LastAnswer is replayed by the T command. Never mutated in place.
	LastAnswer []protocol.Token
}

// New builds the power-on state for the given settings.
func New(s Settings) *State {
	if s.AzimuthStepsPerRev <= 0 {
		s.AzimuthStepsPerRev = DefaultAzimuthStepsPerRev
	}

	st := &State{
		Settings:   s,
		Baud:       s.NominalBaud,
		LastAnswer: protocol.Idle(),
	}
	st.Measurement.P3 = 1

	for i := range st.Motors {
		st.Motors[i] = Motor{ID: motorNames[i]}
	}
	st.Motors[MotorAzimuth].StepsPerDegree = float64(s.AzimuthStepsPerRev) / 360

	st.ResetSensors()
	st.initStatus()
	return st
}

// ValidMotor reports whether i addresses a motor slot.
func ValidMotor(i int) bool { return i >= 0 && i < NumMotors }

// ValidSensor reports whether i addresses an analog sensor slot.
func ValidSensor(i int) bool { return i >= 0 && i < NumSensors }

// ValidPosition reports whether p is a wavelength position.
func ValidPosition(p int) bool { return p >= 0 && p < NumPositions }

// SetParams stores a generic parameter vector. Caller validates the length.
func (s *State) SetParams(vals []int) {
	var p ParamVector
	p.Len = copy(p.Values[:], vals)
	s.Params = p
}
