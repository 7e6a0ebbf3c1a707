// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmakeutil

import (
	"context"
	"fmt"
	"strings"

	"android/cxxbuild/o11y/diag"
)

// expandLimit caps nested macro substitution.
const expandLimit = 100

// UnresolvedPrefix marks a macro reference that could not be resolved.
// The sentinel is left in the expanded value so the failure is visible
// in whatever the value ends up in; the accompanying MACRO_NOT_RESOLVED
// diagnostic is what fails the configuration.
const UnresolvedPrefix = "${UNRESOLVED:"

// UnresolvedSentinel renders the expansion of an unresolvable ${name}.
func UnresolvedSentinel(name string) string {
	return UnresolvedPrefix + name + "}"
}

// NameEntry is one resolved macro of a NameTable.
type NameEntry struct {
	Name  string
	Value string
	// Environment that supplied the winning value.
	Environment string
}

// NameTable is the ordered macro→value table a configuration resolves
// against. Entries keep the order environments contributed them in;
// Lookup prefers the entry registered first (the shadowing winner).
type NameTable struct {
	entries []NameEntry
	index   map[string]int
}

// Lookup returns the resolved value for name.
func (t *NameTable) Lookup(name string) (string, bool) {
	i, ok := t.index[name]
	if !ok {
		return "", false
	}
	return t.entries[i].Value, true
}

// Entries returns the table contents in registration order.
func (t *NameTable) Entries() []NameEntry {
	return t.entries
}

func (t *NameTable) add(name, value, environment string) {
	if t.index == nil {
		t.index = map[string]int{}
	}
	if _, ok := t.index[name]; ok {
		// already shadowed by a higher-priority environment
		return
	}
	t.entries = append(t.entries, NameEntry{Name: name, Value: value, Environment: environment})
	t.index[name] = len(t.entries) - 1
}

// Resolver resolves configurations of a merged settings document.
type Resolver struct {
	settings *Settings
	byName   map[string][]*SettingsEnvironment
	unnamed  []*SettingsEnvironment
}

// NewResolver indexes the environments of a merged settings document.
func NewResolver(s *Settings) *Resolver {
	r := &Resolver{settings: s, byName: map[string][]*SettingsEnvironment{}}
	for i := range s.Environments {
		env := &s.Environments[i]
		if env.Environment == "" {
			r.unnamed = append(r.unnamed, env)
			continue
		}
		r.byName[env.Environment] = append(r.byName[env.Environment], env)
	}
	return r
}

// Table builds the NameTable for an inheritEnvironments list. Later
// names in the list take precedence over earlier ones; an environment's
// own variables shadow those of the environments it inherits.
// Inheritance cycles by name are tolerated via the visited set.
// Unnamed environments apply last, beneath every named one.
func (r *Resolver) Table(inherit []string) *NameTable {
	t := &NameTable{}
	visited := map[string]bool{}
	for i := len(inherit) - 1; i >= 0; i-- {
		r.addEnvironment(t, inherit[i], visited)
	}
	for _, env := range r.unnamed {
		r.addProperties(t, env)
	}
	return t
}

func (r *Resolver) addEnvironment(t *NameTable, name string, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true
	envs, ok := r.byName[name]
	if !ok {
		if env, ok := syntheticEnvironment(name); ok {
			r.addProperties(t, &env)
		}
		return
	}
	for _, env := range envs {
		r.addProperties(t, env)
	}
	// own variables were added first, so they already shadow anything
	// the inherited environments contribute
	for _, env := range envs {
		for i := len(env.InheritEnvironments) - 1; i >= 0; i-- {
			r.addEnvironment(t, env.InheritEnvironments[i], visited)
		}
	}
}

func (r *Resolver) addProperties(t *NameTable, env *SettingsEnvironment) {
	seen := map[string]bool{}
	// within one environment the later write of a name wins
	for i := len(env.Properties) - 1; i >= 0; i-- {
		p := env.Properties[i]
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		t.add(p.Name, p.Value, env.Environment)
		if env.Namespace != "" {
			t.add(env.Namespace+"."+p.Name, p.Value, env.Environment)
		}
	}
}

// ExpandString substitutes ${NAME} references in s against table,
// re-expanding until no reference remains, capped like the ninja
// evaluator. An unresolvable reference expands to the UNRESOLVED
// sentinel and reports MACRO_NOT_RESOLVED through the context sink.
func (r *Resolver) ExpandString(ctx context.Context, table *NameTable, s string) (string, error) {
	for range expandLimit {
		expanded, substituted := substituteMacros(ctx, table, s)
		if !substituted {
			return expanded, nil
		}
		s = expanded
	}
	return "", diag.Errorf(ctx, diag.ExpansionCycle, "macro expansion did not terminate within %d passes: %q", expandLimit, s)
}

func substituteMacros(ctx context.Context, table *NameTable, s string) (string, bool) {
	var sb strings.Builder
	substituted := false
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			sb.WriteString(s)
			break
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			sb.WriteString(s)
			break
		}
		if strings.HasPrefix(s[i:], UnresolvedPrefix) {
			// an already-reported sentinel; pass it through untouched
			sb.WriteString(s[:i+end+1])
			s = s[i+end+1:]
			continue
		}
		name := s[i+2 : i+end]
		sb.WriteString(s[:i])
		value, ok := table.Lookup(name)
		if !ok {
			diag.Errorf(ctx, diag.MacroNotResolved, "macro ${%s} could not be resolved from the inherited environments", name)
			sb.WriteString(UnresolvedSentinel(name))
		} else {
			sb.WriteString(value)
			if strings.Contains(value, "${") {
				substituted = true
			}
		}
		s = s[i+end+1:]
	}
	return sb.String(), substituted
}

// ExpandConfiguration resolves every macro-bearing field of cfg against
// its inheritEnvironments closure and returns the expanded copy. Name
// and inheritance lists stay verbatim. Unresolved macros surface as
// sentinels plus diagnostics; the first hard error (expansion cap)
// aborts.
func (r *Resolver) ExpandConfiguration(ctx context.Context, cfg Configuration) (Configuration, error) {
	// inheritEnvironments entries may themselves carry macros
	// (abi-${NDK_ABI}); resolve them against the literal entries first.
	inherit := make([]string, len(cfg.InheritEnvironments))
	copy(inherit, cfg.InheritEnvironments)
	table := r.Table(literalNames(inherit))
	for i, name := range inherit {
		expanded, err := r.ExpandString(ctx, table, name)
		if err != nil {
			return Configuration{}, err
		}
		inherit[i] = expanded
	}
	table = r.Table(inherit)

	out := cfg
	out.InheritEnvironments = inherit
	fields := []*string{
		&out.Description, &out.Generator, &out.ConfigurationType,
		&out.BuildRoot, &out.InstallRoot, &out.CMakeExecutable,
		&out.CMakeToolchain, &out.CMakeCommandArgs, &out.BuildCommandArgs,
		&out.CtestCommandArgs,
	}
	for _, f := range fields {
		expanded, err := r.ExpandString(ctx, table, *f)
		if err != nil {
			return Configuration{}, err
		}
		*f = expanded
	}
	out.Variables = make([]SettingsVariable, len(cfg.Variables))
	for i, v := range cfg.Variables {
		value, err := r.ExpandString(ctx, table, v.Value)
		if err != nil {
			return Configuration{}, err
		}
		out.Variables[i] = SettingsVariable{Name: v.Name, Value: value}
	}
	return out, nil
}

// literalNames filters out inheritance entries that still carry macro
// references, keeping only the ones usable for the bootstrap table.
func literalNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !strings.Contains(n, "${") {
			out = append(out, n)
		}
	}
	return out
}

// FindConfiguration returns the named configuration of s.
func (s *Settings) FindConfiguration(name string) (Configuration, error) {
	for _, cfg := range s.Configurations {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return Configuration{}, fmt.Errorf("configuration %q not found", name)
}
