// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"bytes"
	"fmt"
)

// Statement is one logical ninja statement.
type Statement interface {
	isStatement()
}

// Assignment is `name = value`. Value is kept raw; escapes and variable
// references are resolved at expansion time.
type Assignment struct {
	Name  string
	Value string
}

// RuleDef is a `rule` block with its indented properties (raw values).
type RuleDef struct {
	Name       string
	Properties map[string]string
}

// BuildDef is a `build` statement. Path lists are kept raw.
type BuildDef struct {
	ExplicitOutputs []string
	ImplicitOutputs []string
	ExplicitInputs  []string
	ImplicitInputs  []string
	OrderOnlyInputs []string
	RuleName        string
	// Properties are the per-statement overrides from the indented
	// block.
	Properties map[string]string
}

// DefaultDef is a `default` statement.
type DefaultDef struct {
	Targets []string
}

// IncludeDef is an `include` or `subninja` statement.
type IncludeDef struct {
	Path string
	// NewScope is true for subninja, which evaluates the file in a
	// child scope.
	NewScope bool
}

func (*Assignment) isStatement() {}
func (*RuleDef) isStatement()    {}
func (*BuildDef) isStatement()   {}
func (*DefaultDef) isStatement() {}
func (*IncludeDef) isStatement() {}

// findNextLine returns the offset of the next logical line in buf[s:],
// skipping `$`-escaped newlines ("$\n" and "$\r\n"). The newline is
// escaped only when an odd number of `$` precede it: `$$` is an escaped
// dollar and the newline after it ends the line.
func findNextLine(buf []byte, s int) int {
	for {
		i := bytes.IndexByte(buf[s:], '\n')
		if i < 0 {
			return len(buf)
		}
		end := s + i
		j := end
		if j > s && buf[j-1] == '\r' {
			j--
		}
		dollars := 0
		for j-dollars > s && buf[j-dollars-1] == '$' {
			dollars++
		}
		if dollars%2 == 1 {
			s = end + 1
			continue
		}
		return end + 1
	}
}

// StreamStatements parses buf as a ninja file and invokes fn for every
// statement, in file order. Indented blocks attach to the preceding
// rule/build/pool statement.
func StreamStatements(buf []byte, fn func(Statement) error) error {
	pos := 0
	for pos < len(buf) {
		next := findNextLine(buf, pos)
		line := chompLine(buf[pos:next])
		start := pos
		pos = next
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		if len(trimmed) != len(line) {
			return fmt.Errorf("ninjautil: unexpected indented line at offset %d: %q", start, line)
		}
		keyword, rest := splitKeyword(line)
		var st Statement
		var err error
		switch keyword {
		case "rule":
			var props map[string]string
			props, pos, err = parseIndentedBlock(buf, pos)
			if err != nil {
				return err
			}
			name := string(bytes.TrimSpace(rest))
			if name == "" {
				return fmt.Errorf("ninjautil: rule with no name at offset %d", start)
			}
			st = &RuleDef{Name: name, Properties: props}
		case "pool":
			// Pools do not affect command recovery; consume the block.
			_, pos, err = parseIndentedBlock(buf, pos)
			if err != nil {
				return err
			}
			continue
		case "build":
			var def *BuildDef
			def, err = parseBuildLine(rest)
			if err != nil {
				return fmt.Errorf("ninjautil: offset %d: %w", start, err)
			}
			def.Properties, pos, err = parseIndentedBlock(buf, pos)
			if err != nil {
				return err
			}
			st = def
		case "default":
			words, err := splitPathWords(rest)
			if err != nil {
				return err
			}
			st = &DefaultDef{Targets: words}
		case "include", "subninja":
			words, err := splitPathWords(rest)
			if err != nil {
				return err
			}
			if len(words) != 1 {
				return fmt.Errorf("ninjautil: %s expects one path, got %q", keyword, rest)
			}
			st = &IncludeDef{Path: words[0], NewScope: keyword == "subninja"}
		default:
			name, value, ok := splitAssignment(line)
			if !ok {
				return fmt.Errorf("ninjautil: unexpected statement at offset %d: %q", start, line)
			}
			st = &Assignment{Name: name, Value: value}
		}
		err = fn(st)
		if err != nil {
			return err
		}
	}
	return nil
}

// chompLine strips the trailing (unescaped) newline of a logical line.
func chompLine(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

// splitKeyword splits a statement keyword from its arguments.
func splitKeyword(line []byte) (string, []byte) {
	i := bytes.IndexAny(line, " \t")
	if i < 0 {
		return string(line), nil
	}
	return string(line[:i]), line[i+1:]
}

// splitAssignment parses `name = value`, returning the raw value.
// Variable names contain no escapes, so the first `=` is the separator.
// Only leading whitespace is trimmed off the value: a trailing `$ `
// escaped space keeps its space, otherwise the dangling `$` would no
// longer lex.
func splitAssignment(line []byte) (string, string, bool) {
	i := bytes.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	name := string(bytes.TrimSpace(line[:i]))
	if name == "" || bytes.ContainsAny([]byte(name), " \t") {
		return "", "", false
	}
	value := string(bytes.TrimLeft(line[i+1:], " \t"))
	return name, value, true
}

// parseIndentedBlock consumes the indented `name = value` lines starting
// at pos, returning the parsed properties and the offset after the block.
func parseIndentedBlock(buf []byte, pos int) (map[string]string, int, error) {
	props := map[string]string{}
	for pos < len(buf) {
		next := findNextLine(buf, pos)
		line := chompLine(buf[pos:next])
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == len(line) {
			// Not indented; block is over. Blank lines end it too.
			break
		}
		pos = next
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		name, value, ok := splitAssignment(trimmed)
		if !ok {
			return nil, 0, fmt.Errorf("ninjautil: malformed binding %q", trimmed)
		}
		props[name] = value
	}
	return props, pos, nil
}

// buildLine markers produced by the path word splitter.
const (
	markerColon      = "\x00:"
	markerPipe       = "\x00|"
	markerDoublePipe = "\x00||"
)

// splitBuildTokens splits a build statement body into raw path words and
// the `:`/`|`/`||` section markers, honoring `$`-escapes: an escaped
// space, colon or variable reference never separates a word.
func splitBuildTokens(rest []byte) ([]string, error) {
	var words []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	err := Unescape(rest, func(tok Token) error {
		switch tok.Type {
		case TokenLiteral:
			text := tok.Text
			for len(text) > 0 {
				i := bytes.IndexAny(text, " :|")
				if i < 0 {
					cur = append(cur, text...)
					break
				}
				cur = append(cur, text[:i]...)
				switch text[i] {
				case ' ':
					flush()
					text = text[i+1:]
				case ':':
					flush()
					words = append(words, markerColon)
					text = text[i+1:]
				case '|':
					flush()
					if i+1 < len(text) && text[i+1] == '|' {
						words = append(words, markerDoublePipe)
						text = text[i+2:]
					} else {
						words = append(words, markerPipe)
						text = text[i+1:]
					}
				}
			}
		case TokenComment:
			// dropped
		default:
			// Escapes and variable references stay raw inside the
			// word; expansion happens later against the right scope.
			cur = append(cur, tok.Source()...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	flush()
	return words, nil
}

// splitPathWords splits space-separated raw path words (no markers).
func splitPathWords(rest []byte) ([]string, error) {
	toks, err := splitBuildTokens(rest)
	if err != nil {
		return nil, err
	}
	for _, t := range toks {
		if t == markerColon || t == markerPipe || t == markerDoublePipe {
			return nil, fmt.Errorf("ninjautil: unexpected %q in path list", t[1:])
		}
	}
	return toks, nil
}

// parseBuildLine parses the body of a `build` statement:
//
//	outputs [| implicit outputs]: rulename inputs [| implicit] [|| order-only]
func parseBuildLine(rest []byte) (*BuildDef, error) {
	toks, err := splitBuildTokens(rest)
	if err != nil {
		return nil, err
	}
	def := &BuildDef{}
	// outputs section
	section := &def.ExplicitOutputs
	i := 0
loop:
	for ; i < len(toks); i++ {
		switch toks[i] {
		case markerColon:
			i++
			break loop
		case markerPipe:
			section = &def.ImplicitOutputs
		case markerDoublePipe:
			return nil, fmt.Errorf("unexpected || before rule name")
		default:
			*section = append(*section, toks[i])
		}
	}
	if len(def.ExplicitOutputs) == 0 {
		return nil, fmt.Errorf("build statement with no outputs")
	}
	if i >= len(toks) {
		return nil, fmt.Errorf("build statement with no rule name")
	}
	def.RuleName = toks[i]
	if def.RuleName == markerPipe || def.RuleName == markerDoublePipe || def.RuleName == markerColon {
		return nil, fmt.Errorf("build statement with no rule name")
	}
	i++
	section = &def.ExplicitInputs
	for ; i < len(toks); i++ {
		switch toks[i] {
		case markerPipe:
			section = &def.ImplicitInputs
		case markerDoublePipe:
			section = &def.OrderOnlyInputs
		case markerColon:
			return nil, fmt.Errorf("unexpected second : in build statement")
		default:
			*section = append(*section, toks[i])
		}
	}
	return def, nil
}
