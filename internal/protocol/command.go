// internal/protocol/command.go
package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	ErrMalformedArgument   = errors.New("malformed argument")
	ErrUnsupportedAddress  = errors.New("unsupported address")
)

// Kind is the closed set of commands the instrument understands.
type Kind int

const (
	KindUnknown Kind = iota

	// arity 0
	KindLineFeed       // "\n" keep-alive
	KindCarriageReturn // "\r" keep-alive
	KindReRoutine      // "\x00" re.rtn handshake
	KindOutput         // O
	KindReadParams     // Z
	KindRetransmit     // T
	KindRepeatMeasure  // R
	KindQuery          // ?NAME[index]
	KindDiagnostic     // free-text keyword

	// arity 1
	KindLamp        // B,n
	KindStatusRead  // G,addr[,addr...]
	KindZeroMotor   // I,m
	KindEngineering // E,n

	// arity 2
	KindMove // M,m,p
	KindFill // F,count,ascii
	KindBaud // V,cps,echo
	KindDump // D,addr[,addr...]

	// arity 3
	KindMeasure // R,p1,p2,p3

	// arity 2, 4, 8, 10
	KindParams // L,...

	// arity 4
	KindTimeSet // H,h,m,s,d

	NumKinds
)

var kindNames = [NumKinds]string{
	KindUnknown:        "unknown",
	KindLineFeed:       "keepalive_lf",
	KindCarriageReturn: "keepalive_cr",
	KindReRoutine:      "reroutine",
	KindOutput:         "output",
	KindReadParams:     "read_params",
	KindRetransmit:     "retransmit",
	KindRepeatMeasure:  "repeat_measure",
	KindQuery:          "query",
	KindDiagnostic:     "diagnostic",
	KindLamp:           "lamp",
	KindStatusRead:     "status_read",
	KindZeroMotor:      "zero_motor",
	KindEngineering:    "engineering",
	KindMove:           "move",
	KindFill:           "fill",
	KindBaud:           "baud",
	KindDump:           "dump",
	KindMeasure:        "measure",
	KindParams:         "params",
	KindTimeSet:        "time_set",
}

func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return "invalid"
	}
	return kindNames[k]
}

// Query is a bracketed MkIII query such as ?ANALOG.NOW[20] or ?RH.SLOPE.
type Query struct {
	Name  string
	Index string // empty when the query has no brackets
}

// Command is one parsed atomic command. Parse has already validated every
// argument, so handlers never see malformed input.
type Command struct {
	Kind  Kind
	Text  string // upper-cased command text
	Args  []int
	Query Query
}

// DiagnosticReplies maps free-text keywords to their canned answers.
var DiagnosticReplies = map[string]string{
	"REPORT": "ALL ITEMS REPORTED",
}

// Addresses answered by D,addr.
var DumpAddresses = map[int]string{
	2955: "   0,",
	2956: "   0,",
}

// Addresses answered by G,addr.
var statusAddresses = map[int]bool{544: true, 800: true, 1056: true}

var reQuery = regexp.MustCompile(`^\?([A-Z0-9._]+)(?:\[([A-Z0-9._]+)\])?$`)

// Parse maps an atom onto the command enumeration.
func Parse(a Atom) (Command, error) {
	switch a.Text {
	case "\n":
		return Command{Kind: KindLineFeed, Text: a.Text}, nil
	case "\r":
		return Command{Kind: KindCarriageReturn, Text: a.Text}, nil
	case "\x00":
		return Command{Kind: KindReRoutine, Text: a.Text}, nil
	}

	text := strings.ToUpper(a.Text)
	if a.Arity == 0 {
		return parseBare(text)
	}

	fields := strings.Split(text, ",")
	keyword := fields[0]
	args, err := parseInts(fields[1:])
	if err != nil {
		return Command{}, fmt.Errorf("%s: %w", Escape(a.Text), err)
	}

	cmd := Command{Text: text, Args: args}
	n := len(args)

	switch {
	case keyword == "B" && n == 1:
		if args[0] < 0 || args[0] > 3 {
			return Command{}, fmt.Errorf("%s: lamp %d: %w", text, args[0], ErrMalformedArgument)
		}
		cmd.Kind = KindLamp

	case keyword == "G":
		for _, addr := range args {
			if !statusAddresses[addr] {
				return Command{}, fmt.Errorf("%s: address %d: %w", text, addr, ErrUnsupportedAddress)
			}
		}
		cmd.Kind = KindStatusRead

	case keyword == "I" && n == 1:
		cmd.Kind = KindZeroMotor

	case keyword == "E" && n == 1:
		if args[0] != 1 && args[0] != 2 {
			return Command{}, fmt.Errorf("%s: %w", text, ErrUnrecognizedCommand)
		}
		cmd.Kind = KindEngineering

	case keyword == "M" && n == 2:
		cmd.Kind = KindMove

	case keyword == "F" && n == 2:
		cmd.Kind = KindFill

	case keyword == "V" && n == 2:
		if args[0] <= 0 {
			return Command{}, fmt.Errorf("%s: cps %d: %w", text, args[0], ErrMalformedArgument)
		}
		cmd.Kind = KindBaud

	case keyword == "D":
		for _, addr := range args {
			if _, ok := DumpAddresses[addr]; !ok {
				return Command{}, fmt.Errorf("%s: address %d: %w", text, addr, ErrUnsupportedAddress)
			}
		}
		cmd.Kind = KindDump

	case keyword == "R" && n == 3:
		p1, p2 := args[0], args[1]
		if p1 < 0 || p2 > 7 || p1 > p2 {
			return Command{}, fmt.Errorf("%s: positions %d..%d: %w", text, p1, p2, ErrMalformedArgument)
		}
		cmd.Kind = KindMeasure
		cmd.Text = MeasureText(p1, p2, args[2])

	case keyword == "L" && (n == 2 || n == 4 || n == 8 || n == 10):
		cmd.Kind = KindParams

	case keyword == "H" && n == 4:
		cmd.Kind = KindTimeSet

	default:
		return Command{}, fmt.Errorf("%s: %w", Escape(a.Text), ErrUnrecognizedCommand)
	}

	return cmd, nil
}

// MeasureText is the canonical spelling of a measurement command.
func MeasureText(p1, p2, p3 int) string {
	return fmt.Sprintf("R,%d,%d,%d", p1, p2, p3)
}

func parseBare(text string) (Command, error) {
	cmd := Command{Text: text}

	switch text {
	case "O":
		cmd.Kind = KindOutput
	case "Z":
		cmd.Kind = KindReadParams
	case "T":
		cmd.Kind = KindRetransmit
	case "R":
		cmd.Kind = KindRepeatMeasure
	default:
		if m := reQuery.FindStringSubmatch(text); m != nil {
			cmd.Kind = KindQuery
			cmd.Query = Query{Name: m[1], Index: m[2]}
			return cmd, nil
		}
		if _, ok := DiagnosticReplies[text]; ok {
			cmd.Kind = KindDiagnostic
			return cmd, nil
		}
		return Command{}, fmt.Errorf("%s: %w", Escape(text), ErrUnrecognizedCommand)
	}

	return cmd, nil
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("argument %d %q: %w", i+1, f, ErrMalformedArgument)
		}
		out[i] = v
	}
	return out, nil
}
