// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command cxxbuild is the native C/C++ build configuration tool: it
// resolves NDK installs, assembles CMake settings environments,
// recovers commands from generated ninja files and lints the resulting
// build configuration JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/cpuid/v2"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"android/cxxbuild/subcmd/lintconfig"
	"android/cxxbuild/subcmd/locatendk"
	"android/cxxbuild/subcmd/query"
	"android/cxxbuild/subcmd/settings"
	"android/cxxbuild/subcmd/version"
)

const versionString = "0.1"

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "cxxbuild",
		Title: "cxxbuild is the native C/C++ build configuration tool.",
		Context: func(ctx context.Context) context.Context {
			ctx, cancel := context.WithCancel(ctx)
			signals.HandleInterrupt(cancel)
			return ctx
		},
		Commands: []*subcommands.Command{
			locatendk.Cmd(),
			settings.Cmd(),
			query.Cmd(),
			lintconfig.Cmd(),
			version.Cmd(versionString),
			subcommands.CmdHelp,
		},
	}
}

func main() {
	if os.Getenv("CXXBUILD_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	log.Debugf("host cpu: %s (%d cores)", cpuid.CPU.BrandName, cpuid.CPU.LogicalCores)
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
	}

	os.Exit(subcommands.Run(getApplication(), nil))
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
