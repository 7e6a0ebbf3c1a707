// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"errors"
	"fmt"
	"strings"
)

// expandLimit caps the re-tokenize/substitute loop. Pathological
// self-referential variables hit the cap and fail instead of looping.
const expandLimit = 100

// ErrExpandLimit reports an expansion that did not converge.
var ErrExpandLimit = errors.New("ninjautil: variable expansion exceeded iteration limit")

// phonyRule is ninja's intrinsic rule; it needs no declaration.
// https://ninja-build.org/manual.html#_the_literal_phony_literal_rule
var phonyRule = &RuleDef{Name: "phony", Properties: map[string]string{}}

// EvaluationState is the variable/rule scope of one ninja file,
// updated left-to-right as statements are applied.
//
// The variable map is copy-on-write: once a build statement captured a
// snapshot, the next write clones the map, so no captured view is
// retroactively mutated.
type EvaluationState struct {
	vars     map[string]string
	captured bool
	rules    map[string]*RuleDef
}

// NewEvaluationState creates an empty scope.
func NewEvaluationState() *EvaluationState {
	return &EvaluationState{
		vars:  map[string]string{},
		rules: map[string]*RuleDef{},
	}
}

func (s *EvaluationState) assign(name, value string) {
	if s.captured {
		vars := make(map[string]string, len(s.vars)+1)
		for k, v := range s.vars {
			vars[k] = v
		}
		s.vars = vars
		s.captured = false
	}
	s.vars[name] = value
}

func (s *EvaluationState) addRule(r *RuleDef) error {
	_, ok := s.rules[r.Name]
	if ok {
		return fmt.Errorf("ninjautil: duplicate rule %q", r.Name)
	}
	s.rules[r.Name] = r
	return nil
}

// lookupRule resolves a rule name; phony is always defined.
func (s *EvaluationState) lookupRule(name string) (*RuleDef, bool) {
	r, ok := s.rules[name]
	if ok {
		return r, true
	}
	if name == "phony" {
		return phonyRule, true
	}
	return nil, false
}

// snapshot marks the variable map captured and returns it.
func (s *EvaluationState) snapshot() map[string]string {
	s.captured = true
	return s.vars
}

// child creates a subninja scope seeded with the current variables and
// rules. Writes in the child never propagate back.
func (s *EvaluationState) child() *EvaluationState {
	c := NewEvaluationState()
	for k, v := range s.vars {
		c.vars[k] = v
	}
	for k, v := range s.rules {
		c.rules[k] = v
	}
	return c
}

// UnexpandedCommand joins one build statement with its rule and the
// variable scope snapshot taken where the statement appeared. Derived
// fields are computed at most once per instance.
type UnexpandedCommand struct {
	build *BuildDef
	rule  *RuleDef
	vars  map[string]string

	expandedIns  []string
	expandedOuts []string
	insDone      bool
	outsDone     bool
	command      string
	commandDone  bool
}

// Build returns the underlying build statement.
func (c *UnexpandedCommand) Build() *BuildDef { return c.build }

// Rule returns the rule of the build statement.
func (c *UnexpandedCommand) Rule() *RuleDef { return c.rule }

// IsPhony returns true iff the build statement uses the phony rule.
func (c *UnexpandedCommand) IsPhony() bool { return c.rule == phonyRule }

// lookup resolves a variable during expansion: in/out are synthesized
// from the statement's path lists; other names resolve per-statement
// property, then the global snapshot, then empty string. Values are
// returned raw and re-tokenized by the caller.
func (c *UnexpandedCommand) lookup(name string) string {
	switch name {
	case "in":
		return strings.Join(c.build.ExplicitInputs, " ")
	case "out":
		return strings.Join(c.build.ExplicitOutputs, " ")
	}
	if v, ok := c.build.Properties[name]; ok {
		return v
	}
	return c.vars[name]
}

// Expand expands a raw value against this command's scope: the string
// is re-tokenized through the unescape lexer, variable references are
// substituted, and once no reference remains the escapes decode to
// their literal characters. Comments are dropped.
func (c *UnexpandedCommand) Expand(raw string) (string, error) {
	s := raw
	for range expandLimit {
		out, substituted, err := substituteOnce(s, c.lookup)
		if err != nil {
			return "", err
		}
		if !substituted {
			return decode(out)
		}
		s = out
	}
	return "", fmt.Errorf("%w: %q", ErrExpandLimit, raw)
}

// ExpandedInputs returns the expanded explicit input paths.
func (c *UnexpandedCommand) ExpandedInputs() ([]string, error) {
	if !c.insDone {
		ins, err := c.expandPaths(c.build.ExplicitInputs)
		if err != nil {
			return nil, err
		}
		c.expandedIns = ins
		c.insDone = true
	}
	return c.expandedIns, nil
}

// ExpandedOutputs returns the expanded explicit output paths.
func (c *UnexpandedCommand) ExpandedOutputs() ([]string, error) {
	if !c.outsDone {
		outs, err := c.expandPaths(c.build.ExplicitOutputs)
		if err != nil {
			return nil, err
		}
		c.expandedOuts = outs
		c.outsDone = true
	}
	return c.expandedOuts, nil
}

// In returns the concatenated expanded $in value.
func (c *UnexpandedCommand) In() (string, error) {
	ins, err := c.ExpandedInputs()
	if err != nil {
		return "", err
	}
	return strings.Join(ins, " "), nil
}

// Out returns the concatenated expanded $out value.
func (c *UnexpandedCommand) Out() (string, error) {
	outs, err := c.ExpandedOutputs()
	if err != nil {
		return "", err
	}
	return strings.Join(outs, " "), nil
}

func (c *UnexpandedCommand) expandPaths(raw []string) ([]string, error) {
	paths := make([]string, 0, len(raw))
	for _, p := range raw {
		ep, err := c.Expand(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, ep)
	}
	return paths, nil
}

// Command returns the fully expanded command line of the statement.
// If the rule declares rspfile/rspfile_content, the `@<rspfile>`
// reference in the expanded command is replaced with the expanded
// response-file content, recovering the real arguments. Both sides of
// the match are expanded first, so `@prog.rsp` in the command matches
// `rspfile = $out.rsp`.
func (c *UnexpandedCommand) Command() (string, error) {
	if c.commandDone {
		return c.command, nil
	}
	cmd, err := c.Expand(c.rule.Properties["command"])
	if err != nil {
		return "", err
	}
	rspfile, okFile := c.rule.Properties["rspfile"]
	rspContent, okContent := c.rule.Properties["rspfile_content"]
	if okFile && okContent {
		file, err := c.Expand(rspfile)
		if err != nil {
			return "", err
		}
		content, err := c.Expand(rspContent)
		if err != nil {
			return "", err
		}
		cmd = strings.ReplaceAll(cmd, "@"+file, content)
	}
	c.command = cmd
	c.commandDone = true
	return cmd, nil
}

// substituteOnce runs one substitution pass: variable references are
// replaced with their raw values; escapes are re-rendered undecoded so
// a later pass cannot misread them. substituted reports whether any
// reference was seen.
func substituteOnce(s string, lookup func(string) string) (string, bool, error) {
	var sb strings.Builder
	substituted := false
	err := Unescape([]byte(s), func(tok Token) error {
		switch tok.Type {
		case TokenVariable, TokenVariableWithCurlies:
			substituted = true
			sb.WriteString(lookup(string(tok.Text)))
		case TokenComment:
			// dropped
		case TokenLiteral:
			sb.Write(tok.Text)
		default:
			sb.WriteString(tok.Source())
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return sb.String(), substituted, nil
}

// decode resolves the remaining escapes of a fully substituted value.
func decode(s string) (string, error) {
	var sb strings.Builder
	err := Unescape([]byte(s), func(tok Token) error {
		if tok.Type == TokenComment {
			return nil
		}
		sb.WriteString(tok.Value())
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Stream evaluates the statements of one ninja file buffer and invokes
// fn for every build statement with a view bound to the scope at that
// point in the file. Assignments appearing after a build statement do
// not affect it.
func Stream(buf []byte, fn func(*UnexpandedCommand) error) error {
	state := NewEvaluationState()
	return streamInto(state, buf, nil, fn)
}

// includeFunc loads an included/subninja'd file into the given scope.
type includeFunc func(*EvaluationState, *IncludeDef) error

func streamInto(state *EvaluationState, buf []byte, include includeFunc, fn func(*UnexpandedCommand) error) error {
	return StreamStatements(buf, func(st Statement) error {
		switch st := st.(type) {
		case *Assignment:
			state.assign(st.Name, st.Value)
		case *RuleDef:
			return state.addRule(st)
		case *BuildDef:
			rule, ok := state.lookupRule(st.RuleName)
			if !ok {
				return fmt.Errorf("ninjautil: unknown rule %q", st.RuleName)
			}
			return fn(&UnexpandedCommand{
				build: st,
				rule:  rule,
				vars:  state.snapshot(),
			})
		case *DefaultDef:
			// defaults do not affect command recovery
		case *IncludeDef:
			if include == nil {
				return fmt.Errorf("ninjautil: %q requires file access; use Evaluator.LoadFile", st.Path)
			}
			return include(state, st)
		}
		return nil
	})
}
