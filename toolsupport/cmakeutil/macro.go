// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmakeutil

// Macro is one member of the closed set of placeholders that may appear
// as ${NAME} in settings values. Each macro is owned by exactly one
// environment and, where applicable, maps to a native CMake property.
type Macro struct {
	// Tag is the reference name used inside ${...}.
	Tag string
	// Environment is the environment family that defines the macro
	// ("ndk", "abi", "platform", "gradle", "traditional").
	Environment string
	// CMakeProperty is the CMake cache variable the macro feeds, or ""
	// when the macro has no direct CMake counterpart.
	CMakeProperty string
}

// Environment names produced by this package.
const (
	EnvNdk         = "ndk"
	EnvGradle      = "gradle"
	EnvCommandLine = "command-line"

	// TraditionalEnvironmentName is the configuration replicating the
	// historical hard-coded Android Studio CMake invocation.
	TraditionalEnvironmentName = "traditional-android-studio-cmake-environment"

	abiEnvPrefix      = "abi-"
	platformEnvPrefix = "platform-android-"
)

// Macros is the closed macro set. Every macro that a produced
// environment defines appears here; a ${NAME} reference outside this
// set can still resolve if a user environment defines it.
var Macros = []Macro{
	{Tag: "NDK_ABI", Environment: "abi", CMakeProperty: "ANDROID_ABI"},
	{Tag: "NDK_ABI_BITNESS", Environment: "abi"},
	{Tag: "NDK_ABI_IS_64_BITS", Environment: "abi"},
	{Tag: "NDK_ABI_IS_DEPRECATED", Environment: "abi"},
	{Tag: "NDK_ABI_IS_DEFAULT", Environment: "abi"},
	{Tag: "NDK_PLATFORM", Environment: "platform", CMakeProperty: "ANDROID_PLATFORM"},
	{Tag: "NDK_PLATFORM_CODE", Environment: "platform"},
	{Tag: "NDK_PLATFORM_SYSTEM_VERSION", Environment: "platform"},
	{Tag: "NDK_MIN_PLATFORM", Environment: EnvNdk},
	{Tag: "NDK_MAX_PLATFORM", Environment: EnvNdk},
	{Tag: "NDK_DIR", Environment: EnvGradle, CMakeProperty: "ANDROID_NDK"},
	{Tag: "NDK_VERSION", Environment: EnvGradle},
	{Tag: "NDK_VERSION_MAJOR", Environment: EnvGradle},
	{Tag: "NDK_VERSION_MINOR", Environment: EnvGradle},
	{Tag: "NDK_SDK_DIR", Environment: EnvGradle},
	{Tag: "NDK_MODULE_NAME", Environment: EnvGradle},
	{Tag: "NDK_MODULE_DIR", Environment: EnvGradle},
	{Tag: "NDK_VARIANT_NAME", Environment: EnvGradle, CMakeProperty: "CMAKE_BUILD_TYPE"},
	{Tag: "NDK_BUILD_ROOT", Environment: EnvGradle},
	{Tag: "NDK_DEFAULT_BUILD_ROOT", Environment: EnvGradle},
	{Tag: "NDK_CMAKE_TOOLCHAIN", Environment: EnvGradle, CMakeProperty: "CMAKE_TOOLCHAIN_FILE"},
	{Tag: "NDK_STL", Environment: EnvCommandLine, CMakeProperty: "ANDROID_STL"},
	{Tag: "NDK_CONFIGURATION_HASH", Environment: EnvGradle},
	{Tag: "NDK_FULL_CONFIGURATION_HASH", Environment: EnvGradle},
	{Tag: "NDK_ANDROID_GRADLE_IS_HOSTING", Environment: EnvGradle},
	{Tag: "ENV_THIS_FILE", Environment: EnvGradle},
	{Tag: "ENV_THIS_FILE_DIR", Environment: EnvGradle},
	{Tag: "ENV_PROJECT_DIR", Environment: EnvGradle},
	{Tag: "ENV_WORKSPACE_ROOT", Environment: EnvGradle},
}

// LookupMacro returns the macro declared for tag.
func LookupMacro(tag string) (Macro, bool) {
	for _, m := range Macros {
		if m.Tag == tag {
			return m, true
		}
	}
	return Macro{}, false
}
