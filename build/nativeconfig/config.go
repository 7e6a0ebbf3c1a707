// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package nativeconfig models the native build configuration JSON that
// CMake/ndk-build generation produces, and lints it against the files
// actually on disk.
package nativeconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// Library is one native library of a configuration JSON.
type Library struct {
	BuildCommandComponents []string `json:"buildCommandComponents,omitempty"`
	ArtifactName           string   `json:"artifactName,omitempty"`
	Abi                    string   `json:"abi,omitempty"`
	Output                 string   `json:"output,omitempty"`
	RuntimeFiles           []string `json:"runtimeFiles,omitempty"`
}

// Config is one android_gradle_build.json document.
type Config struct {
	BuildFiles                    []string           `json:"buildFiles,omitempty"`
	BuildTargetsCommandComponents []string           `json:"buildTargetsCommandComponents,omitempty"`
	CleanCommandsComponents       [][]string         `json:"cleanCommandsComponents,omitempty"`
	Libraries                     map[string]Library `json:"libraries,omitempty"`
}

// Parse reads a configuration JSON document.
func Parse(b []byte) (*Config, error) {
	var c Config
	err := json.Unmarshal(b, &c)
	if err != nil {
		return nil, fmt.Errorf("native build config: %w", err)
	}
	return &c, nil
}

// ParseFile reads and parses fname.
func ParseFile(fname string) (*Config, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return c, nil
}
