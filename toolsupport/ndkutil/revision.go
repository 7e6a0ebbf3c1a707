// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ndkutil locates Android NDK installations and parses the
// metadata files they ship with.
package ndkutil

import (
	"fmt"
	"strconv"
	"strings"
)

// Revision is a structured NDK/SDK component version.
// Ordering is lexicographic over (Major, Minor, Micro); the preview
// number does not participate in ordering.
type Revision struct {
	Major int
	Minor int
	Micro int
	// Preview is the preview number (e.g. 1 for "-rc1" or "-beta1"),
	// or 0 for a released revision.
	Preview int
}

// ParseRevision parses a dotted revision string like "21.4.7075529" or
// "21.4.7075529-rc1". Versions with fewer than three numeric components
// are ambiguous between NDK releases and rejected.
func ParseRevision(s string) (Revision, error) {
	orig := s
	s = strings.TrimSpace(s)
	var preview int
	// Preview qualifiers appear as "-rc1", "-beta2", "-alpha1" or the
	// legacy " rc1" form.
	if i := strings.IndexAny(s, "- "); i >= 0 {
		q := strings.TrimLeft(s[i+1:], " ")
		s = s[:i]
		for _, prefix := range []string{"rc", "beta", "alpha", "preview"} {
			if rest, ok := strings.CutPrefix(q, prefix); ok {
				n, err := strconv.Atoi(rest)
				if err != nil {
					return Revision{}, fmt.Errorf("invalid preview qualifier in revision %q", orig)
				}
				preview = n
				q = ""
				break
			}
		}
		if q != "" {
			return Revision{}, fmt.Errorf("invalid revision %q", orig)
		}
	}
	parts := strings.Split(s, ".")
	if len(parts) < 3 {
		return Revision{}, fmt.Errorf("invalid revision %q: precision below major.minor.micro is ambiguous", orig)
	}
	if len(parts) > 3 {
		return Revision{}, fmt.Errorf("invalid revision %q: too many components", orig)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Revision{}, fmt.Errorf("invalid revision %q: bad component %q", orig, p)
		}
		n[i] = v
	}
	return Revision{Major: n[0], Minor: n[1], Micro: n[2], Preview: preview}, nil
}

// StripPreview returns the revision with the preview qualifier dropped.
func (r Revision) StripPreview() Revision {
	r.Preview = 0
	return r
}

// Compare compares r and o over the numeric fields, ignoring preview.
func (r Revision) Compare(o Revision) int {
	switch {
	case r.Major != o.Major:
		return r.Major - o.Major
	case r.Minor != o.Minor:
		return r.Minor - o.Minor
	default:
		return r.Micro - o.Micro
	}
}

// String renders the canonical dotted form, with the preview qualifier
// if present.
func (r Revision) String() string {
	if r.Preview != 0 {
		return fmt.Sprintf("%d.%d.%d-rc%d", r.Major, r.Minor, r.Micro, r.Preview)
	}
	return fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Micro)
}
