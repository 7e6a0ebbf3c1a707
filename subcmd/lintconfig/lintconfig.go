// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package lintconfig provides the lint subcommand for native build
// configuration JSON files.
package lintconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/maruel/subcommands"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/luci/common/cli"

	"android/cxxbuild/build/nativeconfig"
	"android/cxxbuild/o11y/diag"
)

const usage = `lint native build configuration JSON files

 $ cxxbuild lint <android_gradle_build.json>...

parses each configuration JSON and cross-checks it against the
filesystem: build files exist, build commands are executable, artifact
names are set, ABIs are known and homogeneous, runtime file paths
canonicalize. All findings print; any error-severity finding fails the
command.
`

func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "lint <config.json>...",
		ShortDesc: "lint native build configuration JSON files",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			return &run{}
		},
	}
}

type run struct {
	subcommands.CommandRunBase
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "%s: at least one config JSON expected\n", a.GetName())
		return 1
	}
	err := c.run(ctx, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, files []string) error {
	collector := &diag.Collector{}
	ctx = diag.NewContext(ctx, collector)

	g, gctx := errgroup.WithContext(ctx)
	for _, fname := range files {
		g.Go(func() error {
			cfg, err := nativeconfig.ParseFile(fname)
			if err != nil {
				return err
			}
			return nativeconfig.Lint(gctx, cfg, fname)
		})
	}
	err := g.Wait()
	for _, d := range collector.Diagnostics() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Error())
	}
	if err != nil {
		return err
	}
	if collector.HasErrors() {
		return fmt.Errorf("lint found errors")
	}
	return nil
}
