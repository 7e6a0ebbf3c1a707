// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package locatendk provides the locate-ndk subcommand.
package locatendk

import (
	"context"
	"fmt"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"android/cxxbuild/o11y/diag"
	"android/cxxbuild/toolsupport/ndkutil"
)

const usage = `resolve a concrete NDK installation directory

 $ cxxbuild locate-ndk -sdk <dir> [-version <ver>] [-path <dir>] [-ndk-dir <dir>] [-download]

resolves the NDK from the configured sources (explicit path, ndk.dir,
side-by-side folders under $SDK/ndk, $SDK/ndk-bundle, download) and
prints the directory and revision. Diagnostics print to stderr; any
error-severity diagnostic fails the command.
`

func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "locate-ndk -sdk <dir> [-version <ver>]",
		ShortDesc: "resolve a concrete NDK installation directory",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	sdk      string
	version  string
	path     string
	ndkDir   string
	download bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.sdk, "sdk", "", "Android SDK root directory")
	c.Flags.StringVar(&c.version, "version", "", "requested NDK version (android.ndkVersion)")
	c.Flags.StringVar(&c.path, "path", "", "explicit NDK install path (android.ndkPath)")
	c.Flags.StringVar(&c.ndkDir, "ndk-dir", "", "deprecated ndk.dir value from local.properties")
	c.Flags.BoolVar(&c.download, "download", false, "download the requested NDK when no local install matches")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context) error {
	collector := &diag.Collector{}
	ctx = diag.NewContext(ctx, collector)

	var installer ndkutil.Installer
	if c.download {
		installer = &ndkutil.DownloadInstaller{ReleaseTag: ndkutil.DefaultReleaseTag}
	}
	locator := ndkutil.NewLocator(nil)
	rec, err := locator.Find(ctx, ndkutil.LocatorKey{
		NdkVersion:               c.version,
		NdkPath:                  c.path,
		NdkDirProperty:           c.ndkDir,
		SdkPath:                  c.sdk,
		SideBySideNdkFolderNames: ndkutil.SideBySideFolders(c.sdk),
	}, installer)
	for _, d := range collector.Diagnostics() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Error())
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", rec.Dir, rec.Revision)
	return nil
}
