// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package settings provides the settings subcommand, which assembles
// the merged macro environments and prints one expanded configuration.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"android/cxxbuild/o11y/diag"
	"android/cxxbuild/toolsupport/cmakeutil"
	"android/cxxbuild/toolsupport/ndkutil"
)

const usage = `print the merged, expanded CMake configuration

 $ cxxbuild settings -ndk <dir> -abi <abi> [-file CMakeSettings.json] [-configuration <name>] [-- <cmake args...>]

merges the traditional configuration, NDK metadata environments, the
hosting build's values, the command line tail and the user's
CMakeSettings.json, then expands the selected configuration and prints
it as JSON. Unresolved macros surface as ${UNRESOLVED:NAME} sentinels
and fail the command.
`

func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "settings -ndk <dir> -abi <abi> [-file CMakeSettings.json]",
		ShortDesc: "print the merged, expanded CMake configuration",
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

	file          string
	configuration string
	abi           string
	platform      int
	variant       string
	moduleName    string
	moduleDir     string
	ndk           string
	sdk           string
	buildRoot     string
}

func (c *run) init() {
	c.Flags.StringVar(&c.file, "file", "", "user CMakeSettings.json (optional)")
	c.Flags.StringVar(&c.configuration, "configuration", cmakeutil.TraditionalEnvironmentName, "configuration name to expand")
	c.Flags.StringVar(&c.abi, "abi", "arm64-v8a", "target ABI")
	c.Flags.IntVar(&c.platform, "platform", 0, "target platform level (default: the NDK's minimum)")
	c.Flags.StringVar(&c.variant, "variant", "debug", "build variant name")
	c.Flags.StringVar(&c.moduleName, "module-name", "", "Gradle module name")
	c.Flags.StringVar(&c.moduleDir, "module-dir", ".", "Gradle module directory")
	c.Flags.StringVar(&c.ndk, "ndk", "", "resolved NDK directory")
	c.Flags.StringVar(&c.sdk, "sdk", "", "Android SDK root directory")
	c.Flags.StringVar(&c.buildRoot, "build-root", "", "native build output directory (default: <module>/.cxx/cmake/<variant>/<abi>)")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, cmakeArgs []string) error {
	collector := &diag.Collector{}
	ctx = diag.NewContext(ctx, collector)

	s, err := c.assemble(cmakeArgs)
	if err != nil {
		return err
	}
	cfg, err := s.FindConfiguration(c.configuration)
	if err != nil {
		return err
	}
	expanded, err := cmakeutil.NewResolver(s).ExpandConfiguration(ctx, cfg)
	if err != nil {
		return err
	}
	for _, d := range collector.Diagnostics() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Error())
	}
	out, err := json.MarshalIndent(expanded, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", out)
	if collector.HasErrors() {
		return fmt.Errorf("configuration %q did not resolve", c.configuration)
	}
	return nil
}

func (c *run) assemble(cmakeArgs []string) (*cmakeutil.Settings, error) {
	abis, err := ndkutil.ReadAbiMetadata(c.ndk)
	if err != nil {
		return nil, err
	}
	platforms, err := ndkutil.ReadPlatformMetadata(c.ndk)
	if err != nil {
		return nil, err
	}
	props, err := ndkutil.ReadSourceProperties(c.ndk)
	var version ndkutil.Revision
	if err == nil && props != nil {
		version, _ = ndkutil.PackageRevision(props)
	}

	platform := c.platform
	if platform == 0 {
		platform = platforms.Min
	}
	moduleDir, err := filepath.Abs(c.moduleDir)
	if err != nil {
		return nil, err
	}
	buildRoot := c.buildRoot
	if buildRoot == "" {
		buildRoot = filepath.Join(moduleDir, ".cxx", "cmake", c.variant, c.abi)
	}

	s := cmakeutil.Merge(
		cmakeutil.TraditionalEnvironment(),
		cmakeutil.NdkMetaEnvironments(abis, platforms))
	s = cmakeutil.Merge(s, cmakeutil.GradleEnvironment(cmakeutil.GradleVars{
		ModuleName:       c.moduleName,
		ModuleDir:        moduleDir,
		VariantName:      c.variant,
		NdkDir:           c.ndk,
		NdkVersion:       version,
		SdkDir:           c.sdk,
		BuildRoot:        buildRoot,
		DefaultBuildRoot: buildRoot,
		CMakeToolchain:   filepath.Join(c.ndk, "build", "cmake", "android.toolchain.cmake"),
		SettingsFile:     c.file,
		ProjectDir:       filepath.Dir(moduleDir),
		WorkspaceRoot:    filepath.Dir(moduleDir),
	}))
	// pin the per-invocation selection so the traditional
	// configuration's abi-${NDK_ABI} inheritance resolves
	pin := cmakeutil.SettingsEnvironment{Namespace: "env", Environment: cmakeutil.EnvGradle}
	pin.Set("NDK_ABI", c.abi)
	pin.Set("NDK_PLATFORM_SYSTEM_VERSION", fmt.Sprintf("%d", platform))
	s = cmakeutil.Merge(s, &cmakeutil.Settings{Environments: []cmakeutil.SettingsEnvironment{pin}})
	s = cmakeutil.Merge(s, cmakeutil.EnvironmentFromCommandLine(cmakeArgs))

	if c.file != "" {
		b, err := os.ReadFile(c.file)
		if err != nil {
			return nil, err
		}
		user, err := cmakeutil.ParseSettings(b)
		if err != nil {
			return nil, err
		}
		s = cmakeutil.Merge(s, user)
	}
	return s, nil
}
