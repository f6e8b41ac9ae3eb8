// internal/engine/handlers.go
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

type handler func(e *Engine, cmd protocol.Command) ([]protocol.Token, error)

// handlers is indexed by command kind. TestEveryKindHasHandler keeps it
// complete.
var handlers [protocol.NumKinds]handler

func init() {
	handlers = [protocol.NumKinds]handler{
		protocol.KindLineFeed:       (*Engine).keepAliveLF,
		protocol.KindCarriageReturn: (*Engine).keepAliveCR,
		protocol.KindReRoutine:      (*Engine).reRoutine,
		protocol.KindOutput:         (*Engine).output,
		protocol.KindReadParams:     (*Engine).readParams,
		protocol.KindRetransmit:     (*Engine).retransmit,
		protocol.KindRepeatMeasure:  (*Engine).repeatMeasure,
		protocol.KindQuery:          (*Engine).query,
		protocol.KindDiagnostic:     (*Engine).diagnostic,
		protocol.KindLamp:           (*Engine).lamp,
		protocol.KindStatusRead:     (*Engine).statusRead,
		protocol.KindZeroMotor:      (*Engine).zeroMotor,
		protocol.KindEngineering:    (*Engine).engineering,
		protocol.KindMove:           (*Engine).move,
		protocol.KindFill:           (*Engine).fill,
		protocol.KindBaud:           (*Engine).baud,
		protocol.KindDump:           (*Engine).dump,
		protocol.KindMeasure:        (*Engine).measure,
		protocol.KindParams:         (*Engine).params,
		protocol.KindTimeSet:        (*Engine).timeSet,
	}
}

// ------------------------------------------------------------
// ARITY 0
// ------------------------------------------------------------

func (e *Engine) keepAliveLF(protocol.Command) ([]protocol.Token, error) {
	e.log.Info(`got keyword "\n"`)
	return protocol.WithIdle(protocol.WaitSeconds(0.1)), nil
}

func (e *Engine) keepAliveCR(protocol.Command) ([]protocol.Token, error) {
	e.log.Info(`got keyword "\r"`)
	return protocol.Idle(), nil
}

// reRoutine toggles the re.rtn handshake. Without an IOS board the tracker
// link drops to 300 bps for the duration of the routine.
func (e *Engine) reRoutine(protocol.Command) ([]protocol.Token, error) {
	st := e.state

	if st.Routine == device.RoutineIdle {
		st.Routine = device.RoutineActive
		if !st.Settings.IOSBoard {
			st.Baud = device.ReRoutineBaud
		}
		e.log.WithField("baud", st.Baud).Info("got null byte: re.rtn started")
		return protocol.Banner(st.Settings.SerialNumber), nil
	}

	st.Routine = device.RoutineIdle
	if !st.Settings.IOSBoard {
		st.Baud = st.Settings.NominalBaud
	}
	e.log.WithField("baud", st.Baud).Info("got null byte: re.rtn finished")
	return protocol.ResumeBanner(), nil
}

// output delivers the signals synthesized by the last measurement.
func (e *Engine) output(protocol.Command) ([]protocol.Token, error) {
	m := e.state.Measurement

	var vals []string
	for _, p := range m.Positions() {
		if !m.HasSignal[p] {
			continue
		}
		vals = append(vals, fmt.Sprintf("%9d", m.Signals[p]))
	}

	e.log.Infof("got keyword \"O\": last measurement data %v", vals)
	return protocol.WithExtended(protocol.WaitSeconds(1.0), protocol.Bytes(strings.Join(vals, ","))), nil
}

// Known L,... vectors answered by Z.
var (
	paramsAnalogFirst  = 20248
	paramsAnalogSecond = 20249
	paramsAnalogTail   = 255

	paramsADBoardTest = []int{16811, 5, 16812, 79, 16813, 3, 16814, 255}
	paramsTrackerBaud = []int{16905, 90, 18041, 14, 16953, 110, 18057, 64, 16977, 90}
	adBoardTestReply  = "49"
)

// readParams interprets the stored parameter vector.
func (e *Engine) readParams(cmd protocol.Command) ([]protocol.Token, error) {
	st := e.state
	p := st.Params

	switch p.Len {
	case 2:
		e.log.Infof("got keyword \"Z\": move acknowledgement for %v", p.Slice())
		return protocol.Idle(), nil

	case 4:
		v := p.Values
		if v[0] == paramsAnalogFirst && v[2] == paramsAnalogSecond && v[3] == paramsAnalogTail {
			idx := v[1]
			if !device.ValidSensor(idx) {
				return nil, fmt.Errorf("Z: sensor %d: %w", idx, protocol.ErrMalformedArgument)
			}
			s := st.Sensors[idx]
			val := formatReading(s.Value(st.Settings.Model))
			e.log.Infof("got keyword \"Z\": %s, value: %s", s.Name, val)
			return protocol.WithExtended(protocol.Bytes(fmt.Sprintf("%4s", val))), nil
		}

	case 8:
		if p.Equal(paramsADBoardTest...) {
			e.log.Infof("got keyword \"Z\": communication test with AD board, value: %s", adBoardTestReply)
			return protocol.WithExtended(protocol.Bytes(fmt.Sprintf("%4s", adBoardTestReply))), nil
		}

	case 10:
		if p.Equal(paramsTrackerBaud...) {
			e.log.Info("got keyword \"Z\": change tracker baudrate")
			return protocol.Idle(), nil
		}
	}

	return nil, fmt.Errorf("Z after L%v: %w", p.Slice(), protocol.ErrUnrecognizedCommand)
}

// retransmit replays the last non-idle reply.
func (e *Engine) retransmit(protocol.Command) ([]protocol.Token, error) {
	e.log.Info("got keyword \"T\": retransmit")
	return append([]protocol.Token(nil), e.state.LastAnswer...), nil
}

// repeatMeasure re-runs the last R,p1,p2,p3.
func (e *Engine) repeatMeasure(protocol.Command) ([]protocol.Token, error) {
	m := e.state.Measurement
	text := protocol.MeasureText(m.P1, m.P2, m.P3)
	e.log.Infof("got keyword \"R\", replaced by %q", text)

	cmd, err := protocol.Parse(protocol.NewAtom(text))
	if err != nil {
		return nil, err
	}
	return e.measure(cmd)
}

func (e *Engine) diagnostic(cmd protocol.Command) ([]protocol.Token, error) {
	reply := protocol.DiagnosticReplies[cmd.Text]
	e.log.Infof("got keyword %q", cmd.Text)
	return protocol.WithExtended(protocol.Bytes(reply)), nil
}

// ------------------------------------------------------------
// ARITY 1
// ------------------------------------------------------------

// lamp applies B,n: 0 off, 1 mercury, 2 quartz-halogen, 3 both.
func (e *Engine) lamp(cmd protocol.Command) ([]protocol.Token, error) {
	n := cmd.Args[0]
	hg := n == 1 || n == 3
	fel := n == 2 || n == 3

	e.state.SetLamps(hg, fel)
	e.log.WithFields(logrus.Fields{"hg": hg, "fel": fel}).Infof("got keyword \"B,%d\": lamps set", n)
	return protocol.WithIdle(protocol.WaitSeconds(0.2)), nil
}

// Micrometer reference search latency of G,544.
const (
	micrometerFoundWait  = 2.0
	micrometerSearchWait = 5.0
)

// statusRead packs the GStatus words of every requested address.
func (e *Engine) statusRead(cmd protocol.Command) ([]protocol.Token, error) {
	var b strings.Builder
	wait := 0.0

	for _, addr := range cmd.Args {
		w, ok := e.state.StatusWordAt(addr)
		if !ok {
			return nil, fmt.Errorf("G: address %d: %w", addr, protocol.ErrUnsupportedAddress)
		}
		if addr == device.AddrMicrometer {
			if w.Bits[2].Status {
				wait += micrometerFoundWait
			} else {
				wait += micrometerSearchWait
			}
		}
		fmt.Fprintf(&b, "%4d,", w.Packed())
	}

	e.log.Infof("got keyword %q: status words %q", cmd.Text, b.String())

	var head []protocol.Token
	if wait > 0 {
		head = append(head, protocol.WaitSeconds(wait))
	}
	head = append(head, protocol.Bytes(b.String()))
	return protocol.WithExtended(head...), nil
}

// zeroMotor applies I,m.
func (e *Engine) zeroMotor(cmd protocol.Command) ([]protocol.Token, error) {
	m := cmd.Args[0]
	if !device.ValidMotor(m) {
		return nil, fmt.Errorf("I: motor %d: %w", m, protocol.ErrMalformedArgument)
	}
	e.state.ZeroMotor(m)
	e.log.Infof("got keyword \"I,%d\": initialize motor (%s) to its zero position, %s", m, e.state.Motors[m].ID, motorLine(e.state, m))
	return protocol.WithIdle(protocol.WaitSeconds(0.5)), nil
}

// E,1 and E,2 canned replies. Their meaning is undocumented; E,1 shows up
// around zenith zeroing, E,2 around azimuth zeroing.
var engineeringReplies = map[int]string{
	1: "-   61",
	2: "- 6503",
}

func (e *Engine) engineering(cmd protocol.Command) ([]protocol.Token, error) {
	reply, ok := engineeringReplies[cmd.Args[0]]
	if !ok {
		return nil, fmt.Errorf("%s: %w", cmd.Text, protocol.ErrUnrecognizedCommand)
	}
	e.log.Infof("got keyword %q", cmd.Text)
	return protocol.WithExtended(protocol.WaitSeconds(0.5), protocol.Bytes(reply)), nil
}

// ------------------------------------------------------------
// ARITY 2
// ------------------------------------------------------------

func (e *Engine) move(cmd protocol.Command) ([]protocol.Token, error) {
	m, p := cmd.Args[0], cmd.Args[1]
	if !device.ValidMotor(m) {
		return nil, fmt.Errorf("M: motor %d: %w", m, protocol.ErrMalformedArgument)
	}

	e.state.MoveMotor(m, p)

	if p < 0 {
		e.log.Infof("got keyword %q: move motor %d (%s) %d steps backwards, %s", cmd.Text, m, e.state.Motors[m].ID, -p, motorLine(e.state, m))
	} else {
		e.log.Infof("got keyword %q: move motor %d (%s) to step %d, %s", cmd.Text, m, e.state.Motors[m].ID, p, motorLine(e.state, m))
	}
	return protocol.WithIdle(protocol.WaitSeconds(1.0)), nil
}

// fill defines the TTY fill characters. Nothing to model.
func (e *Engine) fill(cmd protocol.Command) ([]protocol.Token, error) {
	e.log.Infof("got keyword %q: define fill characters", cmd.Text)
	return protocol.WithIdle(protocol.WaitSeconds(0.2)), nil
}

// baud applies V,cps,echo. The link rate is ten times the character rate.
func (e *Engine) baud(cmd protocol.Command) ([]protocol.Token, error) {
	cps, echo := cmd.Args[0], cmd.Args[1]
	e.state.Baud = cps * 10
	e.state.Echo = echo == 1
	e.log.Infof("got keyword %q: set baudrate to %d and echo to %v", cmd.Text, e.state.Baud, e.state.Echo)
	return protocol.WithIdle(protocol.WaitSeconds(0.2)), nil
}

func (e *Engine) dump(cmd protocol.Command) ([]protocol.Token, error) {
	var b strings.Builder
	for _, addr := range cmd.Args {
		v, ok := protocol.DumpAddresses[addr]
		if !ok {
			return nil, fmt.Errorf("D: address %d: %w", addr, protocol.ErrUnsupportedAddress)
		}
		b.WriteString(v)
	}
	e.log.Infof("got keyword %q: check for UART", cmd.Text)
	return protocol.WithExtended(protocol.WaitSeconds(0.5), protocol.Bytes(b.String())), nil
}

// ------------------------------------------------------------
// ARITY 2, 4, 8, 10
// ------------------------------------------------------------

func (e *Engine) params(cmd protocol.Command) ([]protocol.Token, error) {
	e.state.SetParams(cmd.Args)
	e.log.Infof("got keyword %q: store %d parameters", cmd.Text, len(cmd.Args))

	wait := 1.0
	if len(cmd.Args) == 2 {
		wait = 0.5
	}
	return protocol.WithIdle(protocol.WaitSeconds(wait)), nil
}

func (e *Engine) timeSet(cmd protocol.Command) ([]protocol.Token, error) {
	e.log.Infof("got keyword %q: set instrument clock", cmd.Text)
	return protocol.WithIdle(protocol.WaitSeconds(0.2)), nil
}

// ---- helpers ----

func motorLine(st *device.State, m int) string {
	mo := st.Motors[m]
	return fmt.Sprintf("M%d pos: steps=%d, zero=%d, realpos=%d", m, mo.StepsFromLED, mo.ZeroStepNow, mo.StepsFromZero)
}

// formatReading prints integers without a fraction and keeps real
// fractions as they are.
func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
