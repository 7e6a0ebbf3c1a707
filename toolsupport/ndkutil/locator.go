// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ndkutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"android/cxxbuild/o11y/diag"
)

// DefaultNdkVersion is the plugin's pinned NDK version, used when no
// version is requested and quoted in the NDK_NOT_CONFIGURED message.
const DefaultNdkVersion = "21.4.7075529"

// LocatorKey identifies one NDK resolution request. Equality is
// structural; it is the memoization key.
type LocatorKey struct {
	// NdkVersion is the requested version (android.ndkVersion), or "".
	NdkVersion string
	// NdkPath is the explicit install path (android.ndkPath), or "".
	NdkPath string
	// NdkDirProperty is the deprecated ndk.dir value from
	// local.properties, or "".
	NdkDirProperty string
	// SdkPath is the SDK root, or "".
	SdkPath string
	// SideBySideNdkFolderNames are the folder names under $SDK/ndk.
	SideBySideNdkFolderNames []string
}

// cacheKey returns the structural map key for k.
func (k LocatorKey) cacheKey() string {
	return strings.Join([]string{
		k.NdkVersion, k.NdkPath, k.NdkDirProperty, k.SdkPath,
		strings.Join(k.SideBySideNdkFolderNames, string(os.PathListSeparator)),
	}, "\x00")
}

// LocatorRecord is one resolved NDK install.
type LocatorRecord struct {
	Dir      string
	Revision Revision
}

// Installer can install an NDK version under the SDK root.
type Installer interface {
	Install(ctx context.Context, sdkPath string, version Revision) (string, error)
}

// Locator resolves NDK installs and memoizes results per key.
//
// A Locator's lifetime is one build invocation; create a fresh one per
// configuration pass so results do not survive an SDK/NDK reinstall
// across builds.
type Locator struct {
	id            uuid.UUID
	getProperties SourcePropertiesFunc

	mu    sync.Mutex
	cache map[string]*LocatorRecord
}

// NewLocator creates a Locator for one build invocation.
// getProperties defaults to reading source.properties from disk.
func NewLocator(getProperties SourcePropertiesFunc) *Locator {
	if getProperties == nil {
		getProperties = ReadSourceProperties
	}
	return &Locator{
		id:            uuid.New(),
		getProperties: getProperties,
		cache:         map[string]*LocatorRecord{},
	}
}

// InvocationID returns the build invocation ID this locator is scoped to.
func (l *Locator) InvocationID() string { return l.id.String() }

// Find resolves the NDK for key, or fails with a structured diagnostic.
// Results are memoized: the same key returns the identical record without
// recomputation, with at most one computation per key under concurrent
// callers.
func (l *Locator) Find(ctx context.Context, key LocatorKey, installer Installer) (*LocatorRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ck := key.cacheKey()
	if rec, ok := l.cache[ck]; ok {
		log.Debugf("ndk locator %s: cache hit for %q", l.id, key.NdkVersion)
		return rec, nil
	}
	rec, err := l.findImpl(ctx, key, installer)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, diag.Errorf(ctx, diag.NdkNotConfigured,
			"NDK not configured. Download it with SDK manager. Preferred NDK version is '%s'.", l.preferredVersion(key))
	}
	l.cache[ck] = rec
	return rec, nil
}

// preferredVersion is the version quoted in user-facing messages.
func (l *Locator) preferredVersion(key LocatorKey) string {
	if key.NdkVersion != "" {
		return key.NdkVersion
	}
	return DefaultNdkVersion
}

// findImpl is the single resolution code path. The ndk.dir deprecation
// check re-enters it with a modified key and a demoted diagnostic sink;
// there is deliberately no separate "simulated" implementation.
// It returns (nil, nil) when no source yields an NDK.
func (l *Locator) findImpl(ctx context.Context, key LocatorKey, installer Installer) (*LocatorRecord, error) {
	var requested *Revision
	if key.NdkVersion != "" {
		rev, err := ParseRevision(key.NdkVersion)
		if err != nil {
			return nil, diag.Errorf(ctx, diag.NdkVersionInvalid,
				"requested NDK version %q could not be parsed: %v", key.NdkVersion, err)
		}
		rev = rev.StripPreview()
		requested = &rev
	}

	if key.NdkPath != "" {
		if key.NdkDirProperty != "" {
			return nil, diag.Errorf(ctx, diag.NdkIsAmbiguous,
				"both android.ndkPath %q and ndk.dir %q are set; remove one", key.NdkPath, key.NdkDirProperty)
		}
		rev, err := l.revisionOf(key.NdkPath)
		if err != nil {
			return nil, diag.Errorf(ctx, diag.NdkCorrupted, "%v", err)
		}
		if requested != nil && requested.Compare(rev.StripPreview()) != 0 {
			return nil, diag.Errorf(ctx, diag.NdkVersionMismatch,
				"android.ndkPath %q has version %s which disagrees with android.ndkVersion %s", key.NdkPath, rev, *requested)
		}
		return &LocatorRecord{Dir: key.NdkPath, Revision: rev}, nil
	}

	if key.NdkDirProperty != "" {
		rev, err := l.revisionOf(key.NdkDirProperty)
		if err != nil {
			return nil, diag.Errorf(ctx, diag.NdkCorrupted, "%v", err)
		}
		if requested != nil && requested.Compare(rev.StripPreview()) != 0 {
			return nil, diag.Errorf(ctx, diag.NdkVersionMismatch,
				"ndk.dir %q has version %s which disagrees with android.ndkVersion %s", key.NdkDirProperty, rev, *requested)
		}
		l.warnNdkDirDeprecated(ctx, key, rev)
		return &LocatorRecord{Dir: key.NdkDirProperty, Revision: rev}, nil
	}

	if key.SdkPath != "" {
		wantExact, err := ParseRevision(l.preferredVersion(key))
		if err != nil {
			return nil, diag.Errorf(ctx, diag.NdkVersionInvalid,
				"requested NDK version %q could not be parsed: %v", l.preferredVersion(key), err)
		}
		want := wantExact.StripPreview()
		for _, folder := range key.SideBySideNdkFolderNames {
			dir := filepath.Join(key.SdkPath, "ndk", folder)
			rev, err := l.revisionOf(dir)
			if err != nil {
				// A corrupt side-by-side folder does not block
				// resolution through its siblings.
				log.Debugf("ndk locator: skip %s: %v", dir, err)
				continue
			}
			if rev.StripPreview().Compare(want) == 0 {
				return &LocatorRecord{Dir: dir, Revision: rev}, nil
			}
		}
		// Legacy unversioned install: only an exact revision match
		// may satisfy the request.
		bundle := filepath.Join(key.SdkPath, "ndk-bundle")
		if rev, err := l.revisionOf(bundle); err == nil {
			if rev == wantExact {
				return &LocatorRecord{Dir: bundle, Revision: rev}, nil
			}
			diag.Infof(ctx, diag.NdkVersionUnmatched,
				"ndk-bundle at %q has version %s, not the requested %s", bundle, rev, want)
		}
		if installer != nil {
			dir, err := installer.Install(ctx, key.SdkPath, want)
			if err != nil {
				return nil, fmt.Errorf("install ndk %s: %w", want, err)
			}
			rev, err := l.revisionOf(dir)
			if err != nil {
				return nil, diag.Errorf(ctx, diag.NdkCorrupted, "%v", err)
			}
			return &LocatorRecord{Dir: dir, Revision: rev}, nil
		}
	}
	return nil, nil
}

// revisionOf reads and parses the Pkg.Revision of an install dir.
// Callers probing speculative locations skip the error; callers resolving
// an explicitly configured path report it as NDK_CORRUPTED.
func (l *Locator) revisionOf(dir string) (Revision, error) {
	props, err := l.getProperties(dir)
	if err != nil {
		return Revision{}, fmt.Errorf("NDK at %q did not have a readable source.properties: %w", dir, err)
	}
	if props == nil {
		return Revision{}, fmt.Errorf("NDK at %q did not have a source.properties file", dir)
	}
	rev, err := PackageRevision(props)
	if err != nil {
		return Revision{}, fmt.Errorf("NDK at %q had an invalid source.properties: %w", dir, err)
	}
	return rev, nil
}

// warnNdkDirDeprecated phrases the ndk.dir deprecation warning. It
// re-runs resolution with ndk.dir removed and the version pinned to the
// property's actual revision, installer disabled, so the hint reflects
// what would really happen after deleting the property. The simulated
// pass reports only info-level diagnostics.
func (l *Locator) warnNdkDirDeprecated(ctx context.Context, key LocatorKey, rev Revision) {
	simKey := key
	simKey.NdkDirProperty = ""
	simKey.NdkVersion = rev.String()
	simCtx := diag.NewContext(ctx, diag.DemoteToInfo(diag.FromContext(ctx)))
	simRec, err := l.findImpl(simCtx, simKey, nil)
	if err == nil && simRec != nil && simRec.Dir == key.NdkDirProperty {
		diag.Warnf(ctx, diag.NdkDirIsDeprecated,
			"ndk.dir in local.properties is deprecated; it is safe to delete it because android.ndkVersion %s resolves to the same NDK", rev)
		return
	}
	diag.Warnf(ctx, diag.NdkDirIsDeprecated,
		"ndk.dir in local.properties is deprecated; deleting it is not yet safe, install NDK %s under $SDK/ndk first", rev)
}

// SideBySideFolders lists the folder names under $SDK/ndk, for building
// a LocatorKey from a live SDK root.
func SideBySideFolders(sdkPath string) []string {
	entries, err := os.ReadDir(filepath.Join(sdkPath, "ndk"))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
