// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ndkutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseSourceProperties parses an NDK source.properties stream.
// The format is `Key = Value` lines; blank lines and #-comments are
// ignored.
func ParseSourceProperties(r io.Reader) (map[string]string, error) {
	props := map[string]string{}
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed source.properties line %q", line)
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// SourcePropertiesFunc reads the source.properties of an install dir.
// It returns nil with no error when the file does not exist, so the
// locator can distinguish "no NDK here" from "corrupt NDK".
type SourcePropertiesFunc func(dir string) (map[string]string, error)

// ReadSourceProperties is the production SourcePropertiesFunc.
func ReadSourceProperties(dir string) (map[string]string, error) {
	f, err := os.Open(filepath.Join(dir, "source.properties"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseSourceProperties(f)
}

// PackageRevision extracts and parses Pkg.Revision from
// source.properties content.
func PackageRevision(props map[string]string) (Revision, error) {
	v, ok := props["Pkg.Revision"]
	if !ok {
		return Revision{}, fmt.Errorf("source.properties has no Pkg.Revision")
	}
	return ParseRevision(v)
}
