// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ndkutil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func TestDefaultReleaseTag(t *testing.T) {
	for _, tc := range []struct {
		in   Revision
		want string
	}{
		{in: Revision{Major: 21, Minor: 0, Micro: 6113669}, want: "r21"},
		{in: Revision{Major: 21, Minor: 4, Micro: 7075529}, want: "r21e"},
		{in: Revision{Major: 23, Minor: 1, Micro: 7779620}, want: "r23b"},
	} {
		if got := DefaultReleaseTag(tc.in); got != tc.want {
			t.Errorf("DefaultReleaseTag(%v)=%q; want %q", tc.in, got, tc.want)
		}
	}
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, err = w.Write([]byte(content))
		if err != nil {
			t.Fatal(err)
		}
	}
	err := zw.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// rewriteTransport redirects every request to the test server so the
// installer's release URL never leaves the process.
type rewriteTransport struct {
	host string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = "http"
	r.URL.Host = rt.host
	return http.DefaultTransport.RoundTrip(r)
}

func TestDownloadInstaller_Install(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"android-ndk-r21e/source.properties":                   "Pkg.Desc = Android NDK\nPkg.Revision = 21.4.7075529\n",
		"android-ndk-r21e/build/cmake/android.toolchain.cmake": "# toolchain\n",
	})
	wantPath := "/android/repository/android-ndk-r21e-" + hostTag() + ".zip"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	sdk := t.TempDir()
	inst := &DownloadInstaller{
		Client:     &http.Client{Transport: rewriteTransport{host: srv.Listener.Addr().String()}},
		ReleaseTag: DefaultReleaseTag,
	}
	version := Revision{Major: 21, Minor: 4, Micro: 7075529}
	dir, err := inst.Install(context.Background(), sdk, version)
	if err != nil {
		t.Fatalf("Install=%v", err)
	}
	if want := filepath.Join(sdk, "ndk", "21.4.7075529"); dir != want {
		t.Errorf("Install dir=%q; want %q", dir, want)
	}
	// The single top directory of the archive is stripped.
	for _, name := range []string{
		"source.properties",
		filepath.Join("build", "cmake", "android.toolchain.cmake"),
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("extracted file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "android-ndk-r21e")); err == nil {
		t.Error("top archive directory was not stripped")
	}
	props, err := ReadSourceProperties(dir)
	if err != nil {
		t.Fatalf("ReadSourceProperties=%v", err)
	}
	rev, err := PackageRevision(props)
	if err != nil {
		t.Fatalf("PackageRevision=%v", err)
	}
	if rev != version {
		t.Errorf("extracted revision=%v; want %v", rev, version)
	}
}

func TestDownloadInstaller_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	inst := &DownloadInstaller{
		Client:     &http.Client{Transport: rewriteTransport{host: srv.Listener.Addr().String()}},
		ReleaseTag: DefaultReleaseTag,
	}
	_, err := inst.Install(context.Background(), t.TempDir(), Revision{Major: 21, Minor: 4, Micro: 7075529})
	if err == nil {
		t.Error("Install=nil; want error for missing archive")
	}
}

func TestExtractZip_RejectsEscapingEntry(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"android-ndk-r21e/../evil": "x",
	})
	fname := filepath.Join(t.TempDir(), "ndk.zip")
	err := os.WriteFile(fname, archive, 0644)
	if err != nil {
		t.Fatal(err)
	}
	err = extractZip(fname, int64(len(archive)), filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Error("extractZip=nil; want error for entry escaping the target")
	}
}
