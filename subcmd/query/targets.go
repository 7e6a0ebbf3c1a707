// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package query

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"android/cxxbuild/toolsupport/ninjautil"
)

const targetsUsage = `list the targets of a generated build.ninja

 $ cxxbuild query targets -C <dir>

prints every explicit output of build.ninja together with the rule that
produces it.
`

// cmdTargets returns the Command for the `targets` subcommand provided by this package.
func cmdTargets() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "targets [-C <dir>] [-f <build.ninja>]",
		ShortDesc: "list the targets of a generated build.ninja",
		LongDesc:  targetsUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &targetsRun{}
			c.init()
			return c
		},
	}
}

type targetsRun struct {
	subcommands.CommandRunBase

	dir   string
	fname string
}

func (c *targetsRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "ninja running directory to find build.ninja")
	c.Flags.StringVar(&c.fname, "f", "build.ninja", "input build filename (relative to -C)")
}

func (c *targetsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := listTargets(ctx, c.dir, c.fname, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func listTargets(ctx context.Context, dir, fname string, w io.Writer) error {
	ev := ninjautil.NewEvaluator(dir)
	return ev.LoadFile(ctx, fname, func(uc *ninjautil.UnexpandedCommand) error {
		outs, err := uc.ExpandedOutputs()
		if err != nil {
			return err
		}
		rule := uc.Rule().Name
		for _, out := range outs {
			fmt.Fprintf(w, "%s: %s\n", out, rule)
		}
		return nil
	})
}
