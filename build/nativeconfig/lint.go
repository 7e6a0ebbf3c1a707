// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package nativeconfig

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"android/cxxbuild/o11y/diag"
)

// AbiAttr describes one known Android ABI.
type AbiAttr struct {
	Bitness    int
	Deprecated bool
}

// KnownAbis is the fixed set of ABI tags a configuration may declare.
// Deprecated entries are still recognized so historical configurations
// keep linting; only tags outside this map are unknown.
var KnownAbis = map[string]AbiAttr{
	"armeabi-v7a": {Bitness: 32},
	"arm64-v8a":   {Bitness: 64},
	"x86":         {Bitness: 32},
	"x86_64":      {Bitness: 64},
	"riscv64":     {Bitness: 64},
	"armeabi":     {Bitness: 32, Deprecated: true},
	"mips":        {Bitness: 32, Deprecated: true},
	"mips64":      {Bitness: 64, Deprecated: true},
}

// Lint cross-checks cfg against the filesystem. Every failure is
// reported as its own diagnostic through the context sink, tagged with
// fileName; lint never stops at the first problem. Per-library checks
// run concurrently. The returned error is reserved for cancellation;
// findings are what the caller's collector accumulates.
func Lint(ctx context.Context, cfg *Config, fileName string) error {
	ctx = diag.WithFile(ctx, fileName)
	for _, bf := range cfg.BuildFiles {
		if _, err := os.Stat(bf); err != nil {
			diag.Errorf(ctx, diag.BuildFileMissing,
				"expected buildFiles file %q to exist", bf)
		}
	}
	lintCommand(ctx, cfg.BuildTargetsCommandComponents, "buildTargetsCommandComponents")

	g, gctx := errgroup.WithContext(ctx)
	for name, lib := range cfg.Libraries {
		g.Go(func() error {
			lintLibrary(gctx, name, lib)
			return gctx.Err()
		})
	}
	err := g.Wait()
	if err != nil {
		return err
	}

	abis := map[string]bool{}
	for _, lib := range cfg.Libraries {
		if lib.Abi != "" {
			abis[lib.Abi] = true
		}
	}
	if len(abis) > 1 {
		names := make([]string, 0, len(abis))
		for abi := range abis {
			names = append(names, abi)
		}
		sort.Strings(names)
		diag.Errorf(ctx, diag.LibraryHadMultipleAbis,
			"unexpected mix of ABIs in one configuration: %s", strings.Join(names, ", "))
	}
	return nil
}

func lintLibrary(ctx context.Context, name string, lib Library) {
	if lib.ArtifactName == "" {
		diag.Errorf(ctx, diag.ArtifactNameMissing,
			"library %q has no artifactName", name)
	}
	if lib.Abi != "" {
		if _, ok := KnownAbis[lib.Abi]; !ok {
			diag.Errorf(ctx, diag.AbiUnknown,
				"library %q has unknown ABI %q", name, lib.Abi)
		}
	}
	lintCommand(ctx, lib.BuildCommandComponents, "library "+name)
	for _, rf := range lib.RuntimeFiles {
		_, err := canonicalize(rf)
		if err != nil {
			diag.Errorf(ctx, diag.RuntimeFileInvalid,
				"library %q runtime file %q: %v", name, rf, err)
		}
	}
}

func lintCommand(ctx context.Context, components []string, what string) {
	if len(components) == 0 {
		return
	}
	exe := components[0]
	err := executable(exe)
	if err != nil {
		diag.Errorf(ctx, diag.BuildCommandNotExecutable,
			"%s: build command %q is not an executable file: %v", what, exe, err)
	}
}

// canonicalize resolves path to an absolute, symlink-free form. The
// file itself may not exist yet (it is produced by the build), so
// symlinks are only evaluated over the longest existing prefix.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	prefix := abs
	var rest []string
	for {
		_, err := os.Lstat(prefix)
		if err == nil {
			break
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(prefix)
		if parent == prefix {
			break
		}
		rest = append(rest, filepath.Base(prefix))
		prefix = parent
	}
	resolved, err := filepath.EvalSymlinks(prefix)
	if err != nil {
		return "", err
	}
	for i := len(rest) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, rest[i])
	}
	return resolved, nil
}
