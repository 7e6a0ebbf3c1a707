// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lex(t *testing.T, in string) []Token {
	t.Helper()
	var toks []Token
	err := Unescape([]byte(in), func(tok Token) error {
		toks = append(toks, tok)
		return nil
	})
	if err != nil {
		t.Fatalf("Unescape(%q)=%v", in, err)
	}
	return toks
}

func tok(ty TokenType, text string) Token {
	if text == "" {
		return Token{Type: ty}
	}
	return Token{Type: ty, Text: []byte(text)}
}

func TestUnescape(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []Token
	}{
		{in: "plain text", want: []Token{tok(TokenLiteral, "plain text")}},
		{in: "a$$b", want: []Token{tok(TokenLiteral, "a"), tok(TokenEscapedDollar, ""), tok(TokenLiteral, "b")}},
		{in: "a$:b", want: []Token{tok(TokenLiteral, "a"), tok(TokenEscapedColon, ""), tok(TokenLiteral, "b")}},
		{in: "a$ b", want: []Token{tok(TokenLiteral, "a"), tok(TokenEscapedSpace, ""), tok(TokenLiteral, "b")}},
		{in: "$var", want: []Token{tok(TokenVariable, "var")}},
		{in: "${var}", want: []Token{tok(TokenVariableWithCurlies, "var")}},
		{in: "${a$b}", want: []Token{tok(TokenVariableWithCurlies, "a$b")}},
		{in: "# comment", want: []Token{tok(TokenComment, " comment")}},
		{in: "x # inline", want: []Token{tok(TokenLiteral, "x "), tok(TokenComment, " inline")}},
		{in: "pre$var:post", want: []Token{tok(TokenLiteral, "pre"), tok(TokenVariable, "var"), tok(TokenLiteral, ":post")}},
		{in: "$a$b", want: []Token{tok(TokenVariable, "a"), tok(TokenVariable, "b")}},
		{in: "$a b", want: []Token{tok(TokenVariable, "a"), tok(TokenLiteral, " b")}},
		{in: "-O2$\nFLAGS2", want: []Token{tok(TokenLiteral, "-O2FLAGS2")}},
		{in: "-O2$\n   FLAGS2", want: []Token{tok(TokenLiteral, "-O2FLAGS2")}},
		{in: "-O2$\r\n  FLAGS2", want: []Token{tok(TokenLiteral, "-O2FLAGS2")}},
		{in: "line1\nline2", want: []Token{tok(TokenLiteral, "line1\nline2")}},
		{in: "x\n# c\ny", want: []Token{tok(TokenLiteral, "x\n"), tok(TokenComment, " c"), tok(TokenLiteral, "\ny")}},
	} {
		got := lex(t, tc.in)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Unescape(%q): diff -want +got:\n%s", tc.in, diff)
		}
	}
}

// Reconstructing a token via Size/CharAt must yield the exact original
// source slice for every token type.
func TestUnescape_RoundTrip(t *testing.T) {
	for _, in := range []string{
		"$$", "$:", "$ ", "${x}", "$x", "# comment",
		"cc -c $in -o $out", "a$$b$:c$ d${e}f$g",
	} {
		toks := lex(t, in)
		var rebuilt string
		for _, tok := range toks {
			rebuilt += tok.Source()
		}
		if rebuilt != in {
			t.Errorf("round trip of %q = %q", in, rebuilt)
		}
	}
}

func TestToken_Value(t *testing.T) {
	for _, tc := range []struct {
		tok  Token
		want string
	}{
		{tok: tok(TokenEscapedDollar, ""), want: "$"},
		{tok: tok(TokenEscapedColon, ""), want: ":"},
		{tok: tok(TokenEscapedSpace, ""), want: " "},
		{tok: tok(TokenVariable, "x"), want: "x"},
		{tok: tok(TokenLiteral, "lit"), want: "lit"},
	} {
		if got := tc.tok.Value(); got != tc.want {
			t.Errorf("Value(%v)=%q; want %q", tc.tok.Type, got, tc.want)
		}
	}
}

func TestUnescape_UnterminatedStates(t *testing.T) {
	for _, in := range []string{
		"trailing$",   // AFTER_FIRST_DOLLAR at end of input
		"${unclosed",  // IN_DOLLAR_CURLY_VARIABLE at end of input
		"continued$\n", // ABSORB_WHITESPACE_AFTER_LINE_CONTINUATION
	} {
		err := Unescape([]byte(in), func(Token) error { return nil })
		if !errors.Is(err, ErrUnterminated) {
			t.Errorf("Unescape(%q)=%v; want ErrUnterminated", in, err)
		}
	}
}

func TestUnescape_VariableAtEOF(t *testing.T) {
	got := lex(t, "$var")
	want := []Token{tok(TokenVariable, "var")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

func TestUnescape_CallbackError(t *testing.T) {
	sentinel := errors.New("stop")
	err := Unescape([]byte("a$$b"), func(Token) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Unescape=%v; want callback error", err)
	}
}
