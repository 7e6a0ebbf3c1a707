// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package query

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"android/cxxbuild/toolsupport/ninjautil"
)

const compdbUsage = `emit a clang compilation database

 $ cxxbuild query compdb -C <dir> > compile_commands.json

recovers the C/C++ compile edges of build.ninja and emits them as a
clang compile_commands.json on stdout.
`

// cmdCompdb returns the Command for the `compdb` subcommand provided by this package.
func cmdCompdb() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "compdb [-C <dir>] [-f <build.ninja>]",
		ShortDesc: "emit a clang compilation database",
		LongDesc:  compdbUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &compdbRun{}
			c.init()
			return c
		},
	}
}

type compdbRun struct {
	subcommands.CommandRunBase

	dir   string
	fname string
}

func (c *compdbRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "ninja running directory to find build.ninja")
	c.Flags.StringVar(&c.fname, "f", "build.ninja", "input build filename (relative to -C)")
}

func (c *compdbRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// CompileCommand is one compile_commands.json entry.
type CompileCommand struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
	Output    string `json:"output,omitempty"`
}

func (c *compdbRun) run(ctx context.Context, w *os.File) error {
	dir, err := filepath.Abs(c.dir)
	if err != nil {
		return err
	}
	entries, err := CompileCommands(ctx, dir, c.fname)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// CompileCommands recovers the C/C++ compile edges of a ninja file.
func CompileCommands(ctx context.Context, dir, fname string) ([]CompileCommand, error) {
	var entries []CompileCommand
	ev := ninjautil.NewEvaluator(dir)
	err := ev.LoadFile(ctx, fname, func(uc *ninjautil.UnexpandedCommand) error {
		if uc.IsPhony() {
			return nil
		}
		ins, err := uc.ExpandedInputs()
		if err != nil {
			return err
		}
		src := compileSource(ins)
		if src == "" {
			return nil
		}
		cmd, err := uc.Command()
		if err != nil {
			return err
		}
		entry := CompileCommand{Directory: dir, Command: cmd, File: src}
		if outs, err := uc.ExpandedOutputs(); err == nil && len(outs) > 0 {
			entry.Output = outs[0]
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// compileSource returns the single C/C++ source of a build edge, or ""
// when the edge is not a compile.
func compileSource(inputs []string) string {
	for _, in := range inputs {
		switch strings.ToLower(filepath.Ext(in)) {
		case ".c", ".cc", ".cpp", ".cxx", ".s":
			return in
		}
	}
	return ""
}
