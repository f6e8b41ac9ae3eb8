// internal/device/motor.go
package device

// Motor is one stepper channel.
//
// StepsFromLED counts steps since the LED detector last zeroed the motor.
// ZeroStepNow moves whenever a negative (backward) move ends against the
// end stop; StepsFromZero is always StepsFromLED - ZeroStepNow.
type Motor struct {
	ID             string
	StepsFromLED   int
	ZeroStepIni    int
	ZeroStepNow    int
	StepsFromZero  int
	StepsPerDegree float64 // 0 when not applicable
}

func (m *Motor) recompute() {
	m.StepsFromZero = m.StepsFromLED - m.ZeroStepNow
}

var motorNames = [NumMotors]string{
	1:  "Zenith prism",
	2:  "Azimuth tracker",
	3:  "Iris",
	4:  "Filterwheel 1",
	5:  "Filterwheel 2",
	6:  "Filterwheel 3",
	9:  "Micrometer 2",
	10: "Micrometer 1",
	11: "Slitmask 1",
	12: "Slitmask 2",
	13: "Zenith tracker",
}

// MoveMotor applies M,m,p.
// A non-negative p is an absolute step target. A negative p moves backward
// by |p| and the end position becomes the new zero.
func (s *State) MoveMotor(i, p int) {
	m := &s.Motors[i]
	if p < 0 {
		m.StepsFromLED += p
		m.ZeroStepNow = m.StepsFromLED
	} else {
		m.StepsFromLED = p
	}
	m.recompute()
	s.refreshStatus(i)
}

// ZeroMotor applies I,m: the step counter returns to the current zero.
func (s *State) ZeroMotor(i int) {
	m := &s.Motors[i]
	m.StepsFromLED = m.ZeroStepNow
	m.recompute()
	s.refreshStatus(i)
}
