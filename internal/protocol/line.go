// internal/protocol/line.go
package protocol

import "strings"

// Atom is one command extracted from a received line.
type Atom struct {
	Text  string
	Arity int // number of commas
}

// Normalize canonicalizes a raw received line and splits it into atomic
// commands, left to right.
//
// Rules, in order:
//   - spaces are removed
//   - '&' and ';' become ':'
//   - a bare "\r" is kept (keep-alive)
//   - a line ending in ":\r" keeps its terminator
//   - otherwise every '\r' is removed
func Normalize(raw []byte) []Atom {
	line := strings.ReplaceAll(string(raw), " ", "")
	line = strings.NewReplacer("&", ":", ";", ":").Replace(line)

	if line != "\r" && !strings.HasSuffix(line, ":\r") {
		line = strings.ReplaceAll(line, "\r", "")
	}

	parts := strings.Split(line, ":")
	atoms := make([]Atom, 0, len(parts))
	for _, p := range parts {
		atoms = append(atoms, NewAtom(p))
	}
	return atoms
}

// NewAtom wraps a single command text.
func NewAtom(text string) Atom {
	return Atom{Text: text, Arity: strings.Count(text, ",")}
}
