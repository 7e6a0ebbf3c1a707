// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func streamCommands(t *testing.T, in string) []*UnexpandedCommand {
	t.Helper()
	var cmds []*UnexpandedCommand
	err := Stream([]byte(in), func(c *UnexpandedCommand) error {
		cmds = append(cmds, c)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	return cmds
}

func mustCommand(t *testing.T, c *UnexpandedCommand) string {
	t.Helper()
	cmd, err := c.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	return cmd
}

func TestStream_ExpandCommand(t *testing.T) {
	cmds := streamCommands(t, `
cflags = -O2
rule cc
  command = clang $cflags -c $in -o $out
build out/foo.o: cc src/foo.c
`)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands; want 1", len(cmds))
	}
	got := mustCommand(t, cmds[0])
	want := "clang -O2 -c src/foo.c -o out/foo.o"
	if got != want {
		t.Errorf("Command=%q; want %q", got, want)
	}
}

// An assignment after a build statement must not affect that statement,
// but must affect statements after it.
func TestStream_ScopeSnapshot(t *testing.T) {
	cmds := streamCommands(t, `
cflags = -O2
rule cc
  command = clang $cflags -c $in -o $out
build a.o: cc a.c
cflags = -O0
build b.o: cc b.c
`)
	if len(cmds) != 2 {
		t.Fatalf("got %d commands; want 2", len(cmds))
	}
	if got, want := mustCommand(t, cmds[0]), "clang -O2 -c a.c -o a.o"; got != want {
		t.Errorf("first command=%q; want %q", got, want)
	}
	if got, want := mustCommand(t, cmds[1]), "clang -O0 -c b.c -o b.o"; got != want {
		t.Errorf("second command=%q; want %q", got, want)
	}
}

// Variables added after a snapshot must not leak into it either.
func TestStream_SnapshotNotMutatedByNewVariable(t *testing.T) {
	cmds := streamCommands(t, `
rule cc
  command = clang $extra -c $in -o $out
build a.o: cc a.c
extra = -DLATE
build b.o: cc b.c
`)
	if got, want := mustCommand(t, cmds[0]), "clang  -c a.c -o a.o"; got != want {
		t.Errorf("first command=%q; want %q", got, want)
	}
	if got, want := mustCommand(t, cmds[1]), "clang -DLATE -c b.c -o b.o"; got != want {
		t.Errorf("second command=%q; want %q", got, want)
	}
}

func TestStream_BuildLocalOverridesGlobal(t *testing.T) {
	cmds := streamCommands(t, `
cflags = -O2
rule cc
  command = clang $cflags -c $in -o $out
build a.o: cc a.c
  cflags = -Os
`)
	if got, want := mustCommand(t, cmds[0]), "clang -Os -c a.c -o a.o"; got != want {
		t.Errorf("Command=%q; want %q", got, want)
	}
}

func TestStream_PhonyIsIntrinsic(t *testing.T) {
	cmds := streamCommands(t, "build all: phony a.o b.o\n")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands; want 1", len(cmds))
	}
	if !cmds[0].IsPhony() {
		t.Error("IsPhony=false; want true")
	}
	if got := mustCommand(t, cmds[0]); got != "" {
		t.Errorf("Command=%q; want empty for phony", got)
	}
}

func TestStream_UnknownRule(t *testing.T) {
	err := Stream([]byte("build a: nosuchrule b\n"), func(*UnexpandedCommand) error { return nil })
	if err == nil {
		t.Error("Stream=nil; want unknown rule error")
	}
}

func TestStream_EscapedPathsExpand(t *testing.T) {
	cmds := streamCommands(t, `
rule cc
  command = clang -c $in -o $out
build foo$ bar.o: cc my$ src.c
`)
	ins, err := cmds[0].ExpandedInputs()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"my src.c"}, ins); diff != "" {
		t.Errorf("ExpandedInputs: diff -want +got:\n%s", diff)
	}
	outs, err := cmds[0].ExpandedOutputs()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"foo bar.o"}, outs); diff != "" {
		t.Errorf("ExpandedOutputs: diff -want +got:\n%s", diff)
	}
}

func TestStream_NestedVariables(t *testing.T) {
	cmds := streamCommands(t, `
base = -O2
cflags = $base -g
rule cc
  command = clang ${cflags} -c $in -o $out
build a.o: cc a.c
`)
	if got, want := mustCommand(t, cmds[0]), "clang -O2 -g -c a.c -o a.o"; got != want {
		t.Errorf("Command=%q; want %q", got, want)
	}
}

func TestStream_SelfReferenceHitsLimit(t *testing.T) {
	cmds := streamCommands(t, `
x = a$x
rule weird
  command = $x
build out: weird in
`)
	_, err := cmds[0].Command()
	if !errors.Is(err, ErrExpandLimit) {
		t.Errorf("Command err=%v; want ErrExpandLimit", err)
	}
}

func TestStream_ResponseFile(t *testing.T) {
	cmds := streamCommands(t, `
rule link
  command = ld -o $out @$out.rsp
  rspfile = $out.rsp
  rspfile_content = $in
build prog: link a.o b.o
`)
	if got, want := mustCommand(t, cmds[0]), "ld -o prog a.o b.o"; got != want {
		t.Errorf("Command=%q; want %q", got, want)
	}
}

// The `@<rspfile>` reference matches after expansion: a command that
// writes the response file name literally still picks up the content.
func TestStream_ResponseFileLiteralReference(t *testing.T) {
	cmds := streamCommands(t, `
rule link
  command = ld -o $out @prog.rsp
  rspfile = $out.rsp
  rspfile_content = $in
build prog: link a.o b.o
`)
	if got, want := mustCommand(t, cmds[0]), "ld -o prog a.o b.o"; got != want {
		t.Errorf("Command=%q; want %q", got, want)
	}
}

func TestStream_CommandComputedOnce(t *testing.T) {
	cmds := streamCommands(t, `
rule cc
  command = clang -c $in -o $out
build a.o: cc a.c
`)
	first := mustCommand(t, cmds[0])
	second := mustCommand(t, cmds[0])
	if first != second {
		t.Errorf("Command not stable: %q vs %q", first, second)
	}
}

func TestEvaluator_IncludeAndSubninja(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	write("rules.ninja", `
rule cc
  command = clang $cflags -c $in -o $out
`)
	write("sub.ninja", `
cflags = -Osub
build sub.o: cc sub.c
`)
	write("build.ninja", `
cflags = -O2
include rules.ninja
build main.o: cc main.c
subninja sub.ninja
build after.o: cc after.c
`)
	var got []string
	ev := NewEvaluator(dir)
	err := ev.LoadFile(ctx, "build.ninja", func(c *UnexpandedCommand) error {
		cmd, err := c.Command()
		if err != nil {
			return err
		}
		got = append(got, cmd)
		return nil
	})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []string{
		"clang -O2 -c main.c -o main.o",
		"clang -Osub -c sub.c -o sub.o",
		// the subninja scope change must not leak back
		"clang -O2 -c after.c -o after.o",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("commands: diff -want +got:\n%s", diff)
	}
}
