// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package version provides version subcommand.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/maruel/subcommands"

	"android/cxxbuild/toolsupport/ndkutil"
)

func Cmd(ver string) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "version",
		ShortDesc: "prints the executable version",
		LongDesc:  "Prints the executable version, the pinned default NDK version and the build metadata recorded by the Go toolchain.",
		CommandRun: func() subcommands.CommandRun {
			return &versionRun{version: ver}
		},
	}
}

type versionRun struct {
	subcommands.CommandRunBase
	version string
}

func (c *versionRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 1
	}
	fmt.Println(c.version)
	fmt.Printf("default ndk\t%s\n", ndkutil.DefaultNdkVersion)
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return 0
	}
	if buildInfo.GoVersion != "" {
		fmt.Printf("go\t%s\n", buildInfo.GoVersion)
	}
	for _, s := range buildInfo.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Printf("build\t%s=%s\n", s.Key, s.Value)
		}
	}
	return 0
}
