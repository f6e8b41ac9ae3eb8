// internal/protocol/sentinels.go
package protocol

import (
	"fmt"
	"strings"
)

// Every recognized reply ends with one of two canonical tails, both closed
// by the "-> " prompt. These bytes are protocol-locked.

const (
	nul6   = "\x00\x00\x00\x00\x00\x00"
	nul12  = nul6 + nul6
	prompt = "-> "

	idleTail     = "\r\n" + nul6 + prompt
	extendedTail = "\r\n" + nul6 + "\r\n" + nul6 + prompt
)

// Idle returns the short completion sentinel.
func Idle() []Token {
	return []Token{Bytes(idleTail), Flush()}
}

// Extended returns the completion sentinel used after data replies.
func Extended() []Token {
	return []Token{Bytes(extendedTail), Flush()}
}

// WithIdle appends the idle sentinel to a fresh copy of head.
func WithIdle(head ...Token) []Token {
	return append(append(make([]Token, 0, len(head)+2), head...), Idle()...)
}

// WithExtended appends the extended sentinel to a fresh copy of head.
func WithExtended(head ...Token) []Token {
	return append(append(make([]Token, 0, len(head)+2), head...), Extended()...)
}

// EndsWith reports whether tokens finishes with tail, token for token.
func EndsWith(tokens, tail []Token) bool {
	if len(tokens) < len(tail) {
		return false
	}
	off := len(tokens) - len(tail)
	for i, t := range tail {
		if tokens[off+i] != t {
			return false
		}
	}
	return true
}

// EndsExtended reports whether a reply carries the extended sentinel.
func EndsExtended(tokens []Token) bool { return EndsWith(tokens, Extended()) }

// IsIdleOnly reports whether a reply is a bare acknowledgement: waits plus
// the idle sentinel and nothing else.
func IsIdleOnly(tokens []Token) bool {
	if !EndsWith(tokens, Idle()) {
		return false
	}
	for _, t := range tokens[:len(tokens)-2] {
		if t.Kind != TokenWait {
			return false
		}
	}
	return true
}

// ------------------------------------------------------------
// RE-ROUTINE BANNER
// ------------------------------------------------------------

const (
	bannerMaker   = "AES  SCI-TEC\r\n" + nul12 + "        CANADA\r\n" + nul12 + "\n" + nul12
	bannerVersion = "  VERSION 39.5 NOV 22, 1982\r\n" + nul6 + "\x00\x00"
	bannerPrompt  = "\x00\x00\x00\x00\r\n" + nul6 + prompt
)

func bannerIdent(serial int) string {
	return "\r\n" + nul12 + "BREWER OZONE SPECTROPHOTOMETER\r\n" + nul12 + "\n" + nul12 +
		fmt.Sprintf("%s#%03d\r\n", strings.Repeat(" ", 9), serial) + nul12 + "\x00     "
}

// Banner is the reset identification sent when re.rtn starts: three timed
// parts, each drained before the next pause.
func Banner(serial int) []Token {
	return []Token{
		WaitSeconds(5), Bytes(bannerIdent(serial)), Flush(),
		WaitSeconds(2), Bytes(bannerMaker + bannerVersion), Flush(),
		WaitSeconds(0.8), Bytes(bannerPrompt), Flush(),
	}
}

// ResumeBanner is sent when re.rtn ends: version line and prompt only.
func ResumeBanner() []Token {
	return []Token{
		WaitSeconds(2), Bytes(bannerVersion), Flush(),
		WaitSeconds(0.8), Bytes(bannerPrompt), Flush(),
	}
}
