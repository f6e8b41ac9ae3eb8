// internal/protocol/protocol_test.go
package protocol

import (
	"errors"
	"strings"
	"testing"
)

func texts(atoms []Atom) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.Text
	}
	return out
}

// ---- normalize ----

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"M,10,489\r", []string{"M,10,489"}},
		{"M, 10, 489\r", []string{"M,10,489"}},
		{"L,20248,5,20249,255:Z\r", []string{"L,20248,5,20249,255", "Z"}},
		{"B,1&R,0,7,1;O\r", []string{"B,1", "R,0,7,1", "O"}},
		{"\r", []string{"\r"}},
		{"M,10,3:\r", []string{"M,10,3", "\r"}},
		{"\x00", []string{"\x00"}},
		{"\n", []string{"\n"}},
		{"\n\r", []string{"\n"}},
	}

	for _, c := range cases {
		got := texts(Normalize([]byte(c.in)))
		if strings.Join(got, "|") != strings.Join(c.want, "|") {
			t.Fatalf("Normalize(%q): got=%q want=%q", c.in, got, c.want)
		}
	}
}

func TestNewAtom_Arity(t *testing.T) {
	if a := NewAtom("L,16811,5,16812,79,16813,3,16814,255"); a.Arity != 8 {
		t.Fatalf("arity: got=%d want=8", a.Arity)
	}
	if a := NewAtom("O"); a.Arity != 0 {
		t.Fatalf("arity: got=%d want=0", a.Arity)
	}
}

// ---- parse ----

func TestParse_Kinds(t *testing.T) {
	cases := map[string]Kind{
		"\n":                  KindLineFeed,
		"\r":                  KindCarriageReturn,
		"\x00":                KindReRoutine,
		"O":                   KindOutput,
		"o":                   KindOutput,
		"Z":                   KindReadParams,
		"T":                   KindRetransmit,
		"R":                   KindRepeatMeasure,
		"?ANALOG.NOW[20]":     KindQuery,
		"?rh.slope":           KindQuery,
		"REPORT":              KindDiagnostic,
		"B,3":                 KindLamp,
		"G,544":               KindStatusRead,
		"G,800,1056":          KindStatusRead,
		"I,10":                KindZeroMotor,
		"E,1":                 KindEngineering,
		"M,10,-30":            KindMove,
		"F,0,0":               KindFill,
		"V,120,1":             KindBaud,
		"D,2955,2956":         KindDump,
		"R,0,7,1":             KindMeasure,
		"L,1,2":               KindParams,
		"L,20248,5,20249,255": KindParams,
		"H,12,30,0,290":       KindTimeSet,
	}

	for text, want := range cases {
		cmd, err := Parse(NewAtom(text))
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", text, err)
		}
		if cmd.Kind != want {
			t.Fatalf("Parse(%q): got=%s want=%s", text, cmd.Kind, want)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]error{
		"Q,9":       ErrUnrecognizedCommand,
		"":          ErrUnrecognizedCommand,
		"XYZ":       ErrUnrecognizedCommand,
		"E,3":       ErrUnrecognizedCommand,
		"L,1,2,3":   ErrUnrecognizedCommand,
		"M,10":      ErrUnrecognizedCommand,
		"M,a,1":     ErrMalformedArgument,
		"B,4":       ErrMalformedArgument,
		"R,5,2,1":   ErrMalformedArgument,
		"R,0,8,1":   ErrMalformedArgument,
		"V,0,1":     ErrMalformedArgument,
		"G,545":     ErrUnsupportedAddress,
		"G,544,999": ErrUnsupportedAddress,
		"D,1":       ErrUnsupportedAddress,
	}

	for text, want := range cases {
		_, err := Parse(NewAtom(text))
		if !errors.Is(err, want) {
			t.Fatalf("Parse(%q): got=%v want=%v", text, err, want)
		}
	}
}

func TestParse_MeasureTextCanonical(t *testing.T) {
	cmd, err := Parse(NewAtom("r,00,7,1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Text != "R,0,7,1" {
		t.Fatalf("text: got=%q", cmd.Text)
	}
}

func TestParse_QueryFields(t *testing.T) {
	cmd, err := Parse(NewAtom("?TEMP[PMT]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Query.Name != "TEMP" || cmd.Query.Index != "PMT" {
		t.Fatalf("query: %+v", cmd.Query)
	}
}

func TestKindNames(t *testing.T) {
	for k := Kind(0); k < NumKinds; k++ {
		if kindNames[k] == "" {
			t.Fatalf("kind %d has no name", k)
		}
	}
}

// ---- sentinels ----

func TestSentinels(t *testing.T) {
	idle := Idle()
	if string(Payload(idle)) != "\r\n\x00\x00\x00\x00\x00\x00-> " {
		t.Fatalf("idle bytes: %q", Payload(idle))
	}
	if idle[len(idle)-1].Kind != TokenFlush {
		t.Fatalf("idle must end with flush")
	}

	ext := Extended()
	if string(Payload(ext)) != "\r\n\x00\x00\x00\x00\x00\x00\r\n\x00\x00\x00\x00\x00\x00-> " {
		t.Fatalf("extended bytes: %q", Payload(ext))
	}

	if EndsExtended(WithIdle(Bytes("x"))) {
		t.Fatalf("idle reply must not match extended")
	}
	if !EndsExtended(WithExtended(Bytes(" 208"))) {
		t.Fatalf("extended reply not detected")
	}
}

func TestIsIdleOnly(t *testing.T) {
	if !IsIdleOnly(WithIdle(WaitSeconds(1))) {
		t.Fatalf("wait + idle is a bare ack")
	}
	if !IsIdleOnly(Idle()) {
		t.Fatalf("idle alone is a bare ack")
	}
	if IsIdleOnly(WithIdle(Bytes("data"))) {
		t.Fatalf("payload before idle is not a bare ack")
	}
	if IsIdleOnly(Extended()) || IsIdleOnly(nil) {
		t.Fatalf("extended and empty are not bare acks")
	}
}

func TestBanner(t *testing.T) {
	b := Banner(72)

	flushes := 0
	for _, tok := range b {
		if tok.Kind == TokenFlush {
			flushes++
		}
	}
	if flushes != 3 {
		t.Fatalf("banner parts: got=%d want=3", flushes)
	}

	payload := string(Payload(b))
	if !strings.Contains(payload, "BREWER OZONE SPECTROPHOTOMETER") || !strings.Contains(payload, "#072") {
		t.Fatalf("banner ident missing: %q", Escape(payload))
	}
	if !strings.HasSuffix(payload, "-> ") {
		t.Fatalf("banner must end with the prompt")
	}

	if string(Payload(ResumeBanner())) == payload {
		t.Fatalf("resume banner must differ from the reset banner")
	}
}

func TestEscape(t *testing.T) {
	if got := Escape("\x00\r\n"); got != `\x00\r\n` {
		t.Fatalf("escape: got=%q", got)
	}
}
