// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseAll(t *testing.T, in string) []Statement {
	t.Helper()
	var sts []Statement
	err := StreamStatements([]byte(in), func(st Statement) error {
		sts = append(sts, st)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamStatements: %v", err)
	}
	return sts
}

func TestStreamStatements_RuleAndBuild(t *testing.T) {
	got := parseAll(t, `
cflags = -O2

rule cc
  command = clang $cflags -c $in -o $out
  description = CC $out

build out/foo.o: cc src/foo.c | src/foo.h || gen/stamp
  cflags = -O0
`)
	want := []Statement{
		&Assignment{Name: "cflags", Value: "-O2"},
		&RuleDef{Name: "cc", Properties: map[string]string{
			"command":     "clang $cflags -c $in -o $out",
			"description": "CC $out",
		}},
		&BuildDef{
			ExplicitOutputs: []string{"out/foo.o"},
			ExplicitInputs:  []string{"src/foo.c"},
			ImplicitInputs:  []string{"src/foo.h"},
			OrderOnlyInputs: []string{"gen/stamp"},
			RuleName:        "cc",
			Properties:      map[string]string{"cflags": "-O0"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

func TestStreamStatements_EscapedPaths(t *testing.T) {
	got := parseAll(t, "build foo$ bar: phony in$:1 C$$X\n")
	want := []Statement{
		&BuildDef{
			ExplicitOutputs: []string{"foo$ bar"},
			ExplicitInputs:  []string{"in$:1", "C$$X"},
			RuleName:        "phony",
			Properties:      map[string]string{},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

func TestStreamStatements_ImplicitOutputsAndContinuation(t *testing.T) {
	got := parseAll(t, "build a.o | a.d: cc a.c $\n    b.c\n")
	want := []Statement{
		&BuildDef{
			ExplicitOutputs: []string{"a.o"},
			ImplicitOutputs: []string{"a.d"},
			ExplicitInputs:  []string{"a.c", "b.c"},
			RuleName:        "cc",
			Properties:      map[string]string{},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

// A line ending in `$$` ends there; the escaped dollar must not be
// mistaken for a newline continuation and swallow the next statement.
func TestStreamStatements_TrailingEscapedDollar(t *testing.T) {
	got := parseAll(t, "x = a$$\nrule cc\n  command = clang -c $in -o $out\nbuild a.o: cc a.c\n")
	want := []Statement{
		&Assignment{Name: "x", Value: "a$$"},
		&RuleDef{Name: "cc", Properties: map[string]string{
			"command": "clang -c $in -o $out",
		}},
		&BuildDef{
			ExplicitOutputs: []string{"a.o"},
			ExplicitInputs:  []string{"a.c"},
			RuleName:        "cc",
			Properties:      map[string]string{},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

// An odd run of trailing `$` still continues the line: the final one
// escapes the newline, the pairs before it are escaped dollars.
func TestStreamStatements_OddDollarRunContinues(t *testing.T) {
	got := parseAll(t, "x = a$$$\nb\ny = c\n")
	want := []Statement{
		&Assignment{Name: "x", Value: "a$$$\nb"},
		&Assignment{Name: "y", Value: "c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

// A value ending in an escaped space keeps that space; stripping it
// would leave a dangling `$` that no longer lexes.
func TestStreamStatements_TrailingEscapedSpace(t *testing.T) {
	got := parseAll(t, "flag = -DX$ \n")
	want := []Statement{
		&Assignment{Name: "flag", Value: "-DX$ "},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

func TestStreamStatements_DefaultIncludeSubninja(t *testing.T) {
	got := parseAll(t, `
default all tests
include rules.ninja
subninja sub/build.ninja
`)
	want := []Statement{
		&DefaultDef{Targets: []string{"all", "tests"}},
		&IncludeDef{Path: "rules.ninja"},
		&IncludeDef{Path: "sub/build.ninja", NewScope: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

func TestStreamStatements_PoolConsumed(t *testing.T) {
	got := parseAll(t, `
pool link_pool
  depth = 4
x = 1
`)
	want := []Statement{
		&Assignment{Name: "x", Value: "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diff -want +got:\n%s", diff)
	}
}

func TestStreamStatements_Malformed(t *testing.T) {
	for _, in := range []string{
		"build : cc in\n",       // no outputs
		"build out: \n",         // no rule name
		"rule\n",                // no rule name
		"  stray = indent\n",    // indented line with no block
		"not-a-statement\n",     // no '='
	} {
		err := StreamStatements([]byte(in), func(Statement) error { return nil })
		if err == nil {
			t.Errorf("StreamStatements(%q)=nil; want error", in)
		}
	}
}
