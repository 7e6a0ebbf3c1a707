// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ndkutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"
)

// ndkDistURL is the download location of NDK release archives.
// The release tag is e.g. "r21e" for 21.4.*; the host tag is
// "linux", "darwin" or "windows".
const ndkDistURL = "https://dl.google.com/android/repository/android-ndk-%s-%s.zip"

// DownloadInstaller downloads an NDK release archive and extracts it
// into $SDK/ndk/<version>.
type DownloadInstaller struct {
	// Client is the HTTP client; http.DefaultClient when nil.
	Client *http.Client
	// ReleaseTag maps a revision to its release archive tag (e.g.
	// Revision{21,4,...} -> "r21e"). Required because archive names use
	// release letters, not dotted revisions.
	ReleaseTag func(Revision) string
}

// DefaultReleaseTag maps a revision to its release archive tag the way
// NDK releases are lettered: 21.0.* is "r21", 21.4.* is "r21e".
func DefaultReleaseTag(rev Revision) string {
	if rev.Minor == 0 {
		return fmt.Sprintf("r%d", rev.Major)
	}
	return fmt.Sprintf("r%d%c", rev.Major, 'a'+rune(rev.Minor))
}

// Install implements Installer.
func (d *DownloadInstaller) Install(ctx context.Context, sdkPath string, version Revision) (string, error) {
	if d.ReleaseTag == nil {
		return "", fmt.Errorf("no release tag mapping for NDK %s", version)
	}
	tag := d.ReleaseTag(version)
	if tag == "" {
		return "", fmt.Errorf("no release archive known for NDK %s", version)
	}
	url := fmt.Sprintf(ndkDistURL, tag, hostTag())
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	log.Infof("downloading NDK %s from %s", version, url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download NDK %s: %w", version, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download NDK %s: %s", version, resp.Status)
	}
	archive, err := os.CreateTemp("", "android-ndk-*.zip")
	if err != nil {
		return "", err
	}
	defer os.Remove(archive.Name())
	defer archive.Close()
	n, err := io.Copy(archive, resp.Body)
	if err != nil {
		return "", fmt.Errorf("download NDK %s: %w", version, err)
	}
	dir := filepath.Join(sdkPath, "ndk", version.String())
	err = extractZip(archive.Name(), n, dir)
	if err != nil {
		return "", fmt.Errorf("extract NDK %s: %w", version, err)
	}
	return dir, nil
}

func hostTag() string {
	switch runtime.GOOS {
	case "darwin":
		return "darwin"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// extractZip extracts an NDK release archive into dir, stripping the
// single "android-ndk-<tag>/" top directory the archives ship with.
func extractZip(fname string, size int64, dir string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	zr, err := zip.NewReader(f, size)
	if err != nil {
		return err
	}
	for _, zf := range zr.File {
		name := stripTopDir(zf.Name)
		if name == "" {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(name))
		if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes %q", zf.Name, dir)
		}
		if zf.FileInfo().IsDir() {
			err := os.MkdirAll(dest, 0755)
			if err != nil {
				return err
			}
			continue
		}
		err := os.MkdirAll(filepath.Dir(dest), 0755)
		if err != nil {
			return err
		}
		err = extractFile(zf, dest)
		if err != nil {
			return err
		}
	}
	return nil
}

func extractFile(zf *zip.File, dest string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	w, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, zf.Mode())
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rc)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

func stripTopDir(name string) string {
	_, rest, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	return rest
}
