// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ndkutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// AbiInfo is one entry of the NDK's meta/abis.json.
type AbiInfo struct {
	Bitness    int  `json:"bitness"`
	Deprecated bool `json:"deprecated"`
	Default    bool `json:"default"`
}

// ReadAbiMetadata reads <ndk>/meta/abis.json.
// NDKs older than r17 ship no meta directory; that is not an error,
// callers get an empty map and fall back to the built-in ABI list.
func ReadAbiMetadata(ndkDir string) (map[string]AbiInfo, error) {
	b, err := os.ReadFile(filepath.Join(ndkDir, "meta", "abis.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]AbiInfo{}, nil
		}
		return nil, err
	}
	abis := map[string]AbiInfo{}
	err = json.Unmarshal(b, &abis)
	if err != nil {
		return nil, fmt.Errorf("meta/abis.json: %w", err)
	}
	return abis, nil
}

// PlatformInfo is the NDK's meta/platforms.json.
type PlatformInfo struct {
	Min     int            `json:"min"`
	Max     int            `json:"max"`
	Aliases map[string]int `json:"aliases"`
}

// ReadPlatformMetadata reads <ndk>/meta/platforms.json.
// Missing file degrades to a zero PlatformInfo, never an error, so
// speculative platform levels resolve to empty values downstream.
func ReadPlatformMetadata(ndkDir string) (PlatformInfo, error) {
	b, err := os.ReadFile(filepath.Join(ndkDir, "meta", "platforms.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return PlatformInfo{}, nil
		}
		return PlatformInfo{}, err
	}
	var p PlatformInfo
	err = json.Unmarshal(b, &p)
	if err != nil {
		return PlatformInfo{}, fmt.Errorf("meta/platforms.json: %w", err)
	}
	return p, nil
}

// SortedAbis returns the ABI names of m in stable order.
func SortedAbis(m map[string]AbiInfo) []string {
	abis := make([]string, 0, len(m))
	for abi := range m {
		abis = append(abis, abi)
	}
	sort.Strings(abis)
	return abis
}
