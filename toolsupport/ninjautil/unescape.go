// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ninjautil parses ninja build files generated by CMake and
// ndk-build, and recovers the real compiler and linker command lines
// from them. It is consumed read-only; nothing here regenerates ninja
// files.
package ninjautil

import (
	"errors"
	"fmt"
)

// TokenType is the lexical class of one unescaped ninja token.
type TokenType int

const (
	TokenLiteral TokenType = iota
	TokenVariable
	TokenVariableWithCurlies
	TokenComment
	TokenEscapedDollar
	TokenEscapedColon
	TokenEscapedSpace
)

func (t TokenType) String() string {
	switch t {
	case TokenLiteral:
		return "literal"
	case TokenVariable:
		return "variable"
	case TokenVariableWithCurlies:
		return "variable-curlies"
	case TokenComment:
		return "comment"
	case TokenEscapedDollar:
		return "escaped-dollar"
	case TokenEscapedColon:
		return "escaped-colon"
	case TokenEscapedSpace:
		return "escaped-space"
	}
	return fmt.Sprintf("token[%d]", int(t))
}

// Token is one lexical unit. Text is the raw inner text without escape
// decoration (variable name without `$`/`${}`, comment without `#`,
// empty for the escaped single characters).
type Token struct {
	Type TokenType
	Text []byte
}

// Size returns the length of the original source slice of the token.
func (t Token) Size() int {
	switch t.Type {
	case TokenLiteral:
		return len(t.Text)
	case TokenVariable:
		return 1 + len(t.Text)
	case TokenVariableWithCurlies:
		return 3 + len(t.Text)
	case TokenComment:
		return 1 + len(t.Text)
	default: // $$ $: $<space>
		return 2
	}
}

// CharAt returns the i-th byte of the original source slice of the
// token, re-prepending the escape decoration Text was stripped of.
func (t Token) CharAt(i int) byte {
	switch t.Type {
	case TokenLiteral:
		return t.Text[i]
	case TokenVariable:
		if i == 0 {
			return '$'
		}
		return t.Text[i-1]
	case TokenVariableWithCurlies:
		switch i {
		case 0:
			return '$'
		case 1:
			return '{'
		case 2 + len(t.Text):
			return '}'
		}
		return t.Text[i-2]
	case TokenComment:
		if i == 0 {
			return '#'
		}
		return t.Text[i-1]
	case TokenEscapedDollar:
		return "$$"[i]
	case TokenEscapedColon:
		return "$:"[i]
	case TokenEscapedSpace:
		return "$ "[i]
	}
	panic(fmt.Sprintf("CharAt(%d) on %v", i, t.Type))
}

// Source reconstructs the exact original source slice of the token.
func (t Token) Source() string {
	b := make([]byte, t.Size())
	for i := range b {
		b[i] = t.CharAt(i)
	}
	return string(b)
}

// Value returns the decoded value of the token: the literal text, the
// variable name, the comment text, or the character an escape stands
// for.
func (t Token) Value() string {
	switch t.Type {
	case TokenEscapedDollar:
		return "$"
	case TokenEscapedColon:
		return ":"
	case TokenEscapedSpace:
		return " "
	}
	return string(t.Text)
}

// ErrUnterminated reports end of input inside an unfinished escape,
// curly variable or line continuation. Well-formed ninja files never
// end in those states; hitting this is an internal error of whatever
// produced the input, not a recoverable parse condition.
var ErrUnterminated = errors.New("ninjautil: unterminated escape at end of input")

// unescape states.
type unescapeState int

const (
	stateStart unescapeState = iota
	stateStartAfterNonWhitespace
	stateAfterFirstDollar
	stateInDollarVariable
	stateInDollarCurlyVariable
	stateAfterCommentHash
	stateAbsorbWhitespaceAfterLineContinuation
)

// Unescape tokenizes ninja `$`-escape syntax in buf, invoking fn for
// every lexical unit. Single pass with one character of pushback;
// contiguous literal runs are batched into one Literal token (including
// across `$`-newline line continuations, whose absorbed whitespace
// leaves no token at all).
func Unescape(buf []byte, fn func(Token) error) error {
	u := unescaper{buf: buf, fn: fn}
	return u.run()
}

type unescaper struct {
	buf []byte
	fn  func(Token) error

	state unescapeState
	// pending literal run: buf[litStart:litEnd], or lit when a line
	// continuation forced a copy.
	litStart, litEnd int
	lit              []byte
	copied           bool
	// start of the pending variable/comment text.
	tokStart int
}

func (u *unescaper) run() error {
	i := 0
	for i < len(u.buf) {
		ch := u.buf[i]
		switch u.state {
		case stateStart, stateStartAfterNonWhitespace:
			switch ch {
			case '$':
				u.state = stateAfterFirstDollar
			case '#':
				err := u.flushLiteral()
				if err != nil {
					return err
				}
				u.tokStart = i + 1
				u.state = stateAfterCommentHash
			default:
				u.appendLiteral(i)
				if ch == '\n' {
					u.state = stateStart
				} else if !whitespace(ch) {
					u.state = stateStartAfterNonWhitespace
				}
			}
			i++

		case stateAfterFirstDollar:
			switch ch {
			case '$':
				err := u.emitEscape(TokenEscapedDollar)
				if err != nil {
					return err
				}
				i++
			case ':':
				err := u.emitEscape(TokenEscapedColon)
				if err != nil {
					return err
				}
				i++
			case ' ':
				err := u.emitEscape(TokenEscapedSpace)
				if err != nil {
					return err
				}
				i++
			case '{':
				err := u.flushLiteral()
				if err != nil {
					return err
				}
				u.tokStart = i + 1
				u.state = stateInDollarCurlyVariable
				i++
			case '\r':
				i++
				if i < len(u.buf) && u.buf[i] == '\n' {
					i++
				}
				u.state = stateAbsorbWhitespaceAfterLineContinuation
			case '\n':
				i++
				u.state = stateAbsorbWhitespaceAfterLineContinuation
			default:
				err := u.flushLiteral()
				if err != nil {
					return err
				}
				u.tokStart = i
				u.state = stateInDollarVariable
				i++
			}

		case stateInDollarVariable:
			switch ch {
			case ':', '$', '#', '\r', '\n', ' ':
				// The terminator is never swallowed; reprocess it.
				err := u.emit(Token{Type: TokenVariable, Text: u.buf[u.tokStart:i]})
				if err != nil {
					return err
				}
				u.state = stateStartAfterNonWhitespace
			default:
				i++
			}

		case stateInDollarCurlyVariable:
			if ch == '}' {
				err := u.emit(Token{Type: TokenVariableWithCurlies, Text: u.buf[u.tokStart:i]})
				if err != nil {
					return err
				}
				u.state = stateStartAfterNonWhitespace
			}
			i++

		case stateAfterCommentHash:
			if ch == '\r' || ch == '\n' {
				err := u.emit(Token{Type: TokenComment, Text: u.buf[u.tokStart:i]})
				if err != nil {
					return err
				}
				u.state = stateStart
				// Newline reprocessed as literal in START.
			} else {
				i++
			}

		case stateAbsorbWhitespaceAfterLineContinuation:
			if ch == ' ' {
				i++
			} else {
				u.state = stateStart
			}
		}
	}
	return u.finish()
}

// finish flushes whatever is pending at end of input.
func (u *unescaper) finish() error {
	switch u.state {
	case stateStart, stateStartAfterNonWhitespace:
		return u.flushLiteral()
	case stateInDollarVariable:
		return u.emit(Token{Type: TokenVariable, Text: u.buf[u.tokStart:]})
	case stateAfterCommentHash:
		return u.emit(Token{Type: TokenComment, Text: u.buf[u.tokStart:]})
	default:
		// AFTER_FIRST_DOLLAR, IN_DOLLAR_CURLY_VARIABLE and
		// ABSORB_WHITESPACE_AFTER_LINE_CONTINUATION must not reach
		// end of input; fail loudly rather than drop data.
		return fmt.Errorf("%w (state %d)", ErrUnterminated, u.state)
	}
}

// appendLiteral extends the pending literal run with buf[i].
func (u *unescaper) appendLiteral(i int) {
	if u.copied {
		u.lit = append(u.lit, u.buf[i])
		return
	}
	if u.litEnd == u.litStart {
		u.litStart = i
		u.litEnd = i + 1
		return
	}
	if u.litEnd == i {
		u.litEnd = i + 1
		return
	}
	// A line continuation left a gap; fall back to an owned buffer so
	// the run stays one token.
	u.lit = append(u.lit[:0], u.buf[u.litStart:u.litEnd]...)
	u.lit = append(u.lit, u.buf[i])
	u.copied = true
}

// flushLiteral emits the pending literal run, if any.
func (u *unescaper) flushLiteral() error {
	if u.copied {
		lit := u.lit
		u.lit = nil
		u.copied = false
		u.litStart, u.litEnd = 0, 0
		return u.fn(Token{Type: TokenLiteral, Text: lit})
	}
	if u.litEnd == u.litStart {
		return nil
	}
	lit := u.buf[u.litStart:u.litEnd]
	u.litStart, u.litEnd = 0, 0
	return u.fn(Token{Type: TokenLiteral, Text: lit})
}

// emit flushes the pending literal, then emits tok.
func (u *unescaper) emit(tok Token) error {
	err := u.flushLiteral()
	if err != nil {
		return err
	}
	return u.fn(tok)
}

// whitespace reports whether ch separates tokens. Tab is deliberately
// not whitespace in ninja.
func whitespace(ch byte) bool {
	return ch == ' ' || ch == '\r' || ch == '\n'
}

func (u *unescaper) emitEscape(t TokenType) error {
	err := u.emit(Token{Type: t})
	if err != nil {
		return err
	}
	u.state = stateStartAfterNonWhitespace
	return nil
}
