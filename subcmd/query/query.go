// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package query provides the query subcommand for inspecting a
// generated build.ninja: the recovered command stream, a clang
// compilation database, and the target list.
package query

import (
	"os"

	"github.com/maruel/subcommands"
)

func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "query [-C <dir>] ...",
		ShortDesc: "query a generated build.ninja",
		LongDesc:  "query a generated build.ninja.",
		CommandRun: func() subcommands.CommandRun {
			c := &run{
				app: &subcommands.DefaultApplication{
					Name:  "cxxbuild query",
					Title: "tool to inspect generated ninja build files",
					Commands: []*subcommands.Command{
						cmdCommands(),
						cmdCompdb(),
						cmdTargets(),
						subcommands.CmdHelp,
					},
				},
			}
			c.Flags.Usage = func() {
				subcommands.Usage(os.Stderr, c.app, true)
			}
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	app *subcommands.DefaultApplication
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	return subcommands.Run(c.app, args)
}
