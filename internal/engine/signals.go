// internal/engine/signals.go
package engine

import (
	"math"
	"math/rand/v2"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// ------------------------------------------------------------
// MERCURY LAMP
// ------------------------------------------------------------

// hgQuickScan is the full R,0,7,1 scan with the mercury lamp on.
var hgQuickScan = [device.NumPositions]int{1068, 0, 38, 73, 17035, 51, 22, 115}

// Mercury line as seen by micrometer 1 at wavelength position 0.
const (
	hgPeakStep  = 148
	hgPeakLevel = 8466
)

func hgWidth(m device.Model) float64 {
	if m == device.ModelMkIII {
		return 40
	}
	return 50
}

// ------------------------------------------------------------
// QUARTZ-HALOGEN LAMP
// ------------------------------------------------------------

var felFixed = map[string][device.NumPositions]int{
	"R,0,7,1": {0, 0, 151872, 264519, 358127, 402655, 431086, 12},
	"R,2,6,1": {0, 0, 151910, 264377, 358301, 402581, 431190, 0},
}

// felScanStep is the micrometer 2 spacing of felScan.
const felScanStep = 10

// felScan is the recorded position 6 signal against micrometer 2 steps
// 0, 10, ... 180 during the HP routine.
var felScan = []int{
	48873, 68117, 91218, 117360, 145079, 172307, 196622, 215568, 227074, 229816,
	223470, 208780, 187402, 161623, 133924, 106626, 81558, 59938, 42315,
}

const felScanPosition = 6

// felLookup interpolates felScan linearly, clamping outside the table.
func felLookup(step int) int {
	if step <= 0 {
		return felScan[0]
	}
	i := step / felScanStep
	if i >= len(felScan)-1 {
		return felScan[len(felScan)-1]
	}
	frac := float64(step%felScanStep) / felScanStep
	lo, hi := float64(felScan[i]), float64(felScan[i+1])
	return int(math.Round(lo + (hi-lo)*frac))
}

// ------------------------------------------------------------
// NO LAMP
// ------------------------------------------------------------

var baseline = [device.NumPositions]int{0, 0, 19, 84, 307, 581, 2, 10}

const jitterSpan = 5 // 0..4

// ------------------------------------------------------------
// MEASUREMENT
// ------------------------------------------------------------

// measure applies R,p1,p2,p3: it records the measurement context and
// synthesizes the signals delivered later by O.
func (e *Engine) measure(cmd protocol.Command) ([]protocol.Token, error) {
	st := e.state
	p1, p2, p3 := cmd.Args[0], cmd.Args[1], cmd.Args[2]

	m := st.Measurement
	m.P1, m.P2, m.P3 = p1, p2, p3
	rng := e.jitter(p1, p2, p3)

	switch {
	case st.Lamps.HG:
		e.hgSignals(&m, cmd.Text, rng)
	case st.Lamps.FEL:
		e.felSignals(&m, cmd.Text)
	default:
		resetSignals(&m)
		for _, p := range m.Positions() {
			m.Signals[p] = baseline[p] + rng.IntN(jitterSpan)
			m.HasSignal[p] = true
		}
	}

	st.Measurement = m

	n := len(m.Positions())
	e.log.Infof("got keyword %q: measure %d positions, signals %v", cmd.Text, n, m.Signals)
	return protocol.WithIdle(protocol.WaitSeconds(0.5 * float64(n))), nil
}

func (e *Engine) hgSignals(m *device.Measurement, text string, rng *rand.Rand) {
	st := e.state

	switch {
	case text == "R,0,7,1":
		fill(m, hgQuickScan)

	case m.P1 == 1 && m.P2 == 1:
		// dark count
		resetSignals(m)
		m.Signals[1] = rng.IntN(jitterSpan)
		m.HasSignal[1] = true

	default:
		step := st.Motors[device.MotorMicrometer1].StepsFromLED
		if step < 0 {
			e.log.Warnf("micrometer 1 at negative step %d, keeping previous signals", step)
			return
		}
		resetSignals(m)
		level := gaussian(float64(step), hgPeakStep, hgWidth(st.Settings.Model)) * hgPeakLevel
		for _, p := range m.Positions() {
			if p == 0 {
				m.Signals[p] = int(level)
			}
			m.HasSignal[p] = true
		}
	}
}

func (e *Engine) felSignals(m *device.Measurement, text string) {
	if v, ok := felFixed[text]; ok {
		fill(m, v)
		return
	}

	step := e.state.Motors[device.MotorMicrometer2].StepsFromLED
	if step < 0 {
		e.log.Warnf("micrometer 2 at negative step %d, keeping previous signals", step)
		return
	}

	resetSignals(m)
	for _, p := range m.Positions() {
		if p == felScanPosition {
			m.Signals[p] = felLookup(step)
		}
		m.HasSignal[p] = true
	}
}

// jitter returns a generator that depends only on the session seed and the
// measurement triple, so repeating a triple repeats its signals.
func (e *Engine) jitter(p1, p2, p3 int) *rand.Rand {
	key := uint64(p1)<<32 ^ uint64(p2)<<16 ^ uint64(p3)
	return rand.New(rand.NewPCG(e.state.Settings.Seed, key))
}

// ---- helpers ----

func gaussian(x, mu, sigma float64) float64 {
	d := x - mu
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

func fill(m *device.Measurement, v [device.NumPositions]int) {
	resetSignals(m)
	for _, p := range m.Positions() {
		m.Signals[p] = v[p]
		m.HasSignal[p] = true
	}
}

func resetSignals(m *device.Measurement) {
	m.Signals = [device.NumPositions]int{}
	m.HasSignal = [device.NumPositions]bool{}
}
