// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmakeutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"android/cxxbuild/toolsupport/ndkutil"
)

// TraditionalEnvironment returns a settings document holding the
// configuration that replicates the historical hard-coded Android
// Studio CMake invocation. Everything is expressed through macros so
// the same configuration serves every (ABI, variant) combination.
func TraditionalEnvironment() *Settings {
	return &Settings{
		Configurations: []Configuration{
			{
				Name:              TraditionalEnvironmentName,
				Description:       "Configuration generated by Android Gradle Plugin",
				Generator:         "Ninja",
				ConfigurationType: "${NDK_VARIANT_NAME}",
				InheritEnvironments: []string{
					EnvNdk,
					abiEnvPrefix + "${NDK_ABI}",
					platformEnvPrefix + "${NDK_PLATFORM_SYSTEM_VERSION}",
					EnvGradle,
					EnvCommandLine,
				},
				BuildRoot:      "${NDK_DEFAULT_BUILD_ROOT}",
				CMakeToolchain: "${NDK_CMAKE_TOOLCHAIN}",
				Variables: []SettingsVariable{
					{Name: "ANDROID_ABI", Value: "${NDK_ABI}"},
					{Name: "ANDROID_NDK", Value: "${NDK_DIR}"},
					{Name: "ANDROID_PLATFORM", Value: "${NDK_PLATFORM}"},
					{Name: "CMAKE_BUILD_TYPE", Value: "${NDK_VARIANT_NAME}"},
					{Name: "CMAKE_SYSTEM_NAME", Value: "Android"},
					{Name: "CMAKE_SYSTEM_VERSION", Value: "${NDK_PLATFORM_SYSTEM_VERSION}"},
					{Name: "CMAKE_EXPORT_COMPILE_COMMANDS", Value: "ON"},
					{Name: "CMAKE_LIBRARY_OUTPUT_DIRECTORY", Value: "${NDK_BUILD_ROOT}"},
					{Name: "CMAKE_RUNTIME_OUTPUT_DIRECTORY", Value: "${NDK_BUILD_ROOT}"},
				},
			},
		},
	}
}

// NdkMetaEnvironments derives environments from NDK metadata: the base
// "ndk" environment with the supported platform range, one environment
// per ABI and one per released platform level. Platform levels outside
// the released range are synthesized empty at resolution time rather
// than listed here.
func NdkMetaEnvironments(abis map[string]ndkutil.AbiInfo, platforms ndkutil.PlatformInfo) *Settings {
	s := &Settings{}
	ndkEnv := SettingsEnvironment{Namespace: "env", Environment: EnvNdk}
	ndkEnv.Set("NDK_MIN_PLATFORM", strconv.Itoa(platforms.Min))
	ndkEnv.Set("NDK_MAX_PLATFORM", strconv.Itoa(platforms.Max))
	s.Environments = append(s.Environments, ndkEnv)

	for _, abi := range ndkutil.SortedAbis(abis) {
		info := abis[abi]
		env := SettingsEnvironment{Namespace: "env", Environment: abiEnvPrefix + abi}
		env.Set("NDK_ABI", abi)
		env.Set("NDK_ABI_BITNESS", strconv.Itoa(info.Bitness))
		env.Set("NDK_ABI_IS_64_BITS", boolMacro(info.Bitness == 64))
		env.Set("NDK_ABI_IS_DEPRECATED", boolMacro(info.Deprecated))
		env.Set("NDK_ABI_IS_DEFAULT", boolMacro(info.Default))
		s.Environments = append(s.Environments, env)
	}

	codes := make([]string, 0, len(platforms.Aliases))
	for code := range platforms.Aliases {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for level := platforms.Min; level > 0 && level <= platforms.Max; level++ {
		env := SettingsEnvironment{Namespace: "env", Environment: platformEnvPrefix + strconv.Itoa(level)}
		env.Set("NDK_PLATFORM", "android-"+strconv.Itoa(level))
		env.Set("NDK_PLATFORM_SYSTEM_VERSION", strconv.Itoa(level))
		for _, code := range codes {
			if platforms.Aliases[code] == level {
				env.Set("NDK_PLATFORM_CODE", code)
			}
		}
		s.Environments = append(s.Environments, env)
	}
	return s
}

func boolMacro(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// GradleVars holds the per-module values the hosting Gradle build
// resolves before CMake runs.
type GradleVars struct {
	ModuleName            string
	ModuleDir             string
	VariantName           string
	NdkDir                string
	NdkVersion            ndkutil.Revision
	SdkDir                string
	BuildRoot             string
	DefaultBuildRoot      string
	CMakeToolchain        string
	ConfigurationHash     string
	FullConfigurationHash string
	SettingsFile          string
	ProjectDir            string
	WorkspaceRoot         string
}

// GradleEnvironment exposes the hosting build's resolved values as the
// "gradle" environment.
func GradleEnvironment(v GradleVars) *Settings {
	env := SettingsEnvironment{Namespace: "env", Environment: EnvGradle}
	env.Set("NDK_MODULE_NAME", v.ModuleName)
	env.Set("NDK_MODULE_DIR", v.ModuleDir)
	env.Set("NDK_VARIANT_NAME", v.VariantName)
	env.Set("NDK_DIR", v.NdkDir)
	env.Set("NDK_VERSION", v.NdkVersion.String())
	env.Set("NDK_VERSION_MAJOR", strconv.Itoa(v.NdkVersion.Major))
	env.Set("NDK_VERSION_MINOR", strconv.Itoa(v.NdkVersion.Minor))
	env.Set("NDK_SDK_DIR", v.SdkDir)
	env.Set("NDK_BUILD_ROOT", v.BuildRoot)
	env.Set("NDK_DEFAULT_BUILD_ROOT", v.DefaultBuildRoot)
	env.Set("NDK_CMAKE_TOOLCHAIN", v.CMakeToolchain)
	env.Set("NDK_CONFIGURATION_HASH", v.ConfigurationHash)
	env.Set("NDK_FULL_CONFIGURATION_HASH", v.FullConfigurationHash)
	env.Set("NDK_ANDROID_GRADLE_IS_HOSTING", "1")
	env.Set("ENV_THIS_FILE", v.SettingsFile)
	env.Set("ENV_THIS_FILE_DIR", v.ModuleDir)
	env.Set("ENV_PROJECT_DIR", v.ProjectDir)
	env.Set("ENV_WORKSPACE_ROOT", v.WorkspaceRoot)
	return &Settings{Environments: []SettingsEnvironment{env}}
}

// EnvironmentFromCommandLine recovers settings from the CMake or
// ndk-build argv that was actually used: the STL choice
// (-DANDROID_STL= / -DAPP_STL= / APP_STL=) and the build root chosen by
// the toolchain (-B<dir> / NDK_OUT=<dir>).
func EnvironmentFromCommandLine(args []string) *Settings {
	env := SettingsEnvironment{Namespace: "env", Environment: EnvCommandLine}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "-D"):
			name, value, ok := strings.Cut(arg[len("-D"):], "=")
			if !ok {
				continue
			}
			// cmake allows -DNAME:TYPE=VALUE
			name, _, _ = strings.Cut(name, ":")
			if name == "ANDROID_STL" || name == "APP_STL" {
				env.Set("NDK_STL", value)
			}
		case arg == "-B":
			if i+1 < len(args) {
				env.Set("NDK_BUILD_ROOT", args[i+1])
				i++
			}
		case strings.HasPrefix(arg, "-B"):
			env.Set("NDK_BUILD_ROOT", arg[len("-B"):])
		case strings.HasPrefix(arg, "APP_STL="):
			env.Set("NDK_STL", arg[len("APP_STL="):])
		case strings.HasPrefix(arg, "NDK_OUT="):
			env.Set("NDK_BUILD_ROOT", arg[len("NDK_OUT="):])
		}
	}
	return &Settings{Environments: []SettingsEnvironment{env}}
}

// syntheticEnvironment materializes environments referenced by name but
// never declared. Unreleased platform levels resolve to empty values
// rather than failing the configuration.
func syntheticEnvironment(name string) (SettingsEnvironment, bool) {
	level, ok := strings.CutPrefix(name, platformEnvPrefix)
	if !ok {
		return SettingsEnvironment{}, false
	}
	if _, err := strconv.Atoi(level); err != nil {
		return SettingsEnvironment{}, false
	}
	env := SettingsEnvironment{Namespace: "env", Environment: name}
	env.Set("NDK_PLATFORM", "")
	env.Set("NDK_PLATFORM_CODE", "")
	env.Set("NDK_PLATFORM_SYSTEM_VERSION", "")
	return env, true
}

// AbiEnvironmentName returns the environment name for abi.
func AbiEnvironmentName(abi string) string {
	return abiEnvPrefix + abi
}

// PlatformEnvironmentName returns the environment name for a platform
// level.
func PlatformEnvironmentName(level int) string {
	return fmt.Sprintf("%s%d", platformEnvPrefix, level)
}
