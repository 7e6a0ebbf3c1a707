// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !windows

package nativeconfig

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// executable reports whether path is an existing regular file the
// current process may execute.
func executable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return unix.Access(path, unix.X_OK)
}
