// internal/device/gstatus.go
package device

// ------------------------------------------------------------
// GSTATUS BIT TABLE
// ------------------------------------------------------------
//
// G,addr reads one 8-bit status word. Each bit mirrors a physical opto or
// limit switch. Status is the logical state ("limit reached"); the wire
// bit is Status XOR ActiveLow.

const (
	AddrMicrometer = 544
	AddrTracker    = 800
	AddrZenith     = 1056

	NumStatusAddresses = 3
)

// StatusAddresses lists the readable addresses in table order.
var StatusAddresses = [NumStatusAddresses]int{AddrMicrometer, AddrTracker, AddrZenith}

// StatusBit is one entry of the table.
type StatusBit struct {
	Description string
	Status      bool
	ActiveLow   bool
}

// Physical returns the level seen on the wire.
func (b StatusBit) Physical() bool { return b.Status != b.ActiveLow }

// StatusWord is the 8-bit word behind one address.
type StatusWord struct {
	Address int
	Bits    [8]StatusBit
}

// Packed returns the word as read by G,addr.
func (w StatusWord) Packed() int {
	v := 0
	for i, b := range w.Bits {
		if b.Physical() {
			v |= 1 << i
		}
	}
	return v
}

// ---- POSITION CONSTANTS ----

const (
	micrometerMaxSteps = 7500
	irisOpenSteps      = 250
	azimuthOptoWindow  = 50
)

// Micrometer 1 steps at which the wavelength reference opto is lit.
var micrometerReferenceSteps = []int{51, 67, 501}

type statusRule struct {
	description string
	activeLow   bool
	motor       int // -1: not position dependent
	eval        func(s *State) bool
}

var spare = statusRule{description: "spare", motor: -1}

var statusRules = [NumStatusAddresses][8]statusRule{
	// 544: micrometer board
	{
		{"Micrometer 1 lower wavelength limit", false, MotorMicrometer1, lowerLimit(MotorMicrometer1)},
		{"Micrometer 1 upper wavelength limit", false, MotorMicrometer1, upperLimit(MotorMicrometer1)},
		{"Micrometer 1 wavelength reference", false, MotorMicrometer1, micrometerReference},
		{"Micrometer 2 lower wavelength limit", false, MotorMicrometer2, lowerLimit(MotorMicrometer2)},
		{"Micrometer 2 upper wavelength limit", false, MotorMicrometer2, upperLimit(MotorMicrometer2)},
		spare, spare, spare,
	},
	// 800: tracker board
	{
		{"Azimuth CW opto", true, MotorAzimuth, azimuthCW},
		{"Azimuth CCW opto", true, MotorAzimuth, azimuthCCW},
		{"Iris open", false, MotorIris, func(s *State) bool { return s.Motors[MotorIris].StepsFromZero >= irisOpenSteps }},
		{"Iris closed", false, MotorIris, func(s *State) bool { return s.Motors[MotorIris].StepsFromZero <= 0 }},
		spare, spare, spare, spare,
	},
	// 1056: zenith board
	{
		{"Zenith prism home opto", true, MotorZenithPrism, atHome(MotorZenithPrism)},
		{"Zenith tracker home opto", true, MotorZenithTracker, atHome(MotorZenithTracker)},
		spare, spare, spare, spare, spare, spare,
	},
}

func lowerLimit(m int) func(*State) bool {
	return func(s *State) bool { return s.Motors[m].StepsFromZero < 0 }
}

func upperLimit(m int) func(*State) bool {
	return func(s *State) bool { return s.Motors[m].StepsFromZero > micrometerMaxSteps }
}

func atHome(m int) func(*State) bool {
	return func(s *State) bool { return s.Motors[m].StepsFromZero == 0 }
}

func micrometerReference(s *State) bool {
	steps := s.Motors[MotorMicrometer1].StepsFromLED
	for _, r := range micrometerReferenceSteps {
		if steps == r {
			return true
		}
	}
	return false
}

// azimuthPhase reduces the azimuth position into one revolution.
func azimuthPhase(s *State) (phase, rev int) {
	rev = s.Settings.AzimuthStepsPerRev
	p := s.Motors[MotorAzimuth].StepsFromZero % rev
	if p < 0 {
		p += rev
	}
	return p, rev
}

// CW opto sees the flag just before a full clockwise revolution.
func azimuthCW(s *State) bool {
	p, rev := azimuthPhase(s)
	return p != 0 && p >= rev-azimuthOptoWindow
}

// CCW opto sees the flag just past the zero mark.
func azimuthCCW(s *State) bool {
	p, _ := azimuthPhase(s)
	return p > 0 && p <= azimuthOptoWindow
}

func (s *State) initStatus() {
	for ai, addr := range StatusAddresses {
		s.GStatus[ai].Address = addr
		for bi, r := range statusRules[ai] {
			s.GStatus[ai].Bits[bi] = StatusBit{
				Description: r.description,
				ActiveLow:   r.activeLow,
			}
		}
	}
	for m := 0; m < NumMotors; m++ {
		s.refreshStatus(m)
	}
}

// refreshStatus re-evaluates every bit that depends on motor m.
func (s *State) refreshStatus(m int) {
	for ai := range statusRules {
		for bi, r := range statusRules[ai] {
			if r.motor != m || r.eval == nil {
				continue
			}
			s.GStatus[ai].Bits[bi].Status = r.eval(s)
		}
	}
}

// StatusWordAt returns the word behind addr.
func (s *State) StatusWordAt(addr int) (StatusWord, bool) {
	for i, a := range StatusAddresses {
		if a == addr {
			return s.GStatus[i], true
		}
	}
	return StatusWord{}, false
}

// KnownStatusAddress reports whether G can read addr.
func KnownStatusAddress(addr int) bool {
	for _, a := range StatusAddresses {
		if a == addr {
			return true
		}
	}
	return false
}
