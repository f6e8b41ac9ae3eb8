// internal/protocol/token.go
package protocol

import (
	"fmt"
	"strings"
	"time"
)

// TokenKind tags a response token.
type TokenKind uint8

const (
	TokenBytes TokenKind = iota + 1
	TokenWait
	TokenFlush
)

// Token is one step of a response: literal bytes, a timed pause, or a
// request to drain the transport.
type Token struct {
	Kind TokenKind
	Data string        // TokenBytes only
	Wait time.Duration // TokenWait only
}

// Bytes builds a literal token. Data is written verbatim.
func Bytes(s string) Token { return Token{Kind: TokenBytes, Data: s} }

// Wait builds a pause token.
func Wait(d time.Duration) Token { return Token{Kind: TokenWait, Wait: d} }

// WaitSeconds builds a pause token from fractional seconds.
func WaitSeconds(sec float64) Token {
	return Wait(time.Duration(sec * float64(time.Second)))
}

// Flush builds a drain token.
func Flush() Token { return Token{Kind: TokenFlush} }

func (t Token) String() string {
	switch t.Kind {
	case TokenBytes:
		return fmt.Sprintf("%q", t.Data)
	case TokenWait:
		return "wait" + t.Wait.String()
	case TokenFlush:
		return "flush"
	default:
		return "?"
	}
}

// Render prints a token list for logs.
func Render(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Payload concatenates every literal token.
func Payload(tokens []Token) []byte {
	var b []byte
	for _, t := range tokens {
		if t.Kind == TokenBytes {
			b = append(b, t.Data...)
		}
	}
	return b
}

// TotalWait sums every pause in the list.
func TotalWait(tokens []Token) time.Duration {
	var d time.Duration
	for _, t := range tokens {
		if t.Kind == TokenWait {
			d += t.Wait
		}
	}
	return d
}

// Escape makes control bytes readable in logs.
func Escape(s string) string {
	r := strings.NewReplacer("\r", `\r`, "\n", `\n`, "\x00", `\x00`)
	return r.Replace(s)
}
