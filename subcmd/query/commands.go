// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package query

import (
	"context"
	"fmt"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"android/cxxbuild/toolsupport/ninjautil"
)

const commandsUsage = `list the commands of a generated build.ninja

 $ cxxbuild query commands -C <dir>

streams every build statement of build.ninja (following include and
subninja) and prints its fully expanded command line. Phony edges have
no command and are skipped.
`

// cmdCommands returns the Command for the `commands` subcommand provided by this package.
func cmdCommands() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "commands [-C <dir>] [-f <build.ninja>]",
		ShortDesc: "list the commands of a generated build.ninja",
		LongDesc:  commandsUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &commandsRun{}
			c.init()
			return c
		},
	}
}

type commandsRun struct {
	subcommands.CommandRunBase

	dir   string
	fname string
}

func (c *commandsRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "ninja running directory to find build.ninja")
	c.Flags.StringVar(&c.fname, "f", "build.ninja", "input build filename (relative to -C)")
}

func (c *commandsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *commandsRun) run(ctx context.Context) error {
	ev := ninjautil.NewEvaluator(c.dir)
	return ev.LoadFile(ctx, c.fname, func(uc *ninjautil.UnexpandedCommand) error {
		if uc.IsPhony() {
			return nil
		}
		cmd, err := uc.Command()
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", cmd)
		return nil
	})
}
