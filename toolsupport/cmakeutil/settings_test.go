// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmakeutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(`{
  "environments": [
    {
      "environment": "my-env",
      "inheritEnvironments": ["ndk"],
      "MY_FLAG": "-O3",
      "MY_OTHER_FLAG": "-g"
    },
    {
      "namespace": "user",
      "GLOBAL_ONE": "1"
    }
  ],
  "configurations": [
    {
      "name": "android-debug",
      "description": "debug build",
      "generator": "Ninja",
      "configurationType": "Debug",
      "inheritEnvironments": ["my-env"],
      "buildRoot": "${NDK_DEFAULT_BUILD_ROOT}",
      "variables": [
        {"name": "CMAKE_CXX_FLAGS", "value": "${MY_FLAG}"}
      ]
    }
  ]
}`))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	want := &Settings{
		Environments: []SettingsEnvironment{
			{
				Namespace:           "env",
				Environment:         "my-env",
				InheritEnvironments: []string{"ndk"},
				Properties: []Property{
					{Name: "MY_FLAG", Value: "-O3"},
					{Name: "MY_OTHER_FLAG", Value: "-g"},
				},
			},
			{
				Namespace:  "user",
				Properties: []Property{{Name: "GLOBAL_ONE", Value: "1"}},
			},
		},
		Configurations: []Configuration{
			{
				Name:                "android-debug",
				Description:         "debug build",
				Generator:           "Ninja",
				ConfigurationType:   "Debug",
				InheritEnvironments: []string{"my-env"},
				BuildRoot:           "${NDK_DEFAULT_BUILD_ROOT}",
				Variables: []SettingsVariable{
					{Name: "CMAKE_CXX_FLAGS", Value: "${MY_FLAG}"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("ParseSettings: diff -want +got:\n%s", diff)
	}
}

func TestParseSettings_BadJSON(t *testing.T) {
	_, err := ParseSettings([]byte(`{"environments": [{"environment": 42}]}`))
	if err == nil {
		t.Error("ParseSettings=nil; want error for non-string environment name")
	}
}

func TestMerge_UnionNeverDrops(t *testing.T) {
	a := &Settings{
		Environments: []SettingsEnvironment{{
			Namespace:   "env",
			Environment: "shared",
			Properties:  []Property{{Name: "A", Value: "1"}},
		}},
		Configurations: []Configuration{{Name: "one"}},
	}
	b := &Settings{
		Environments: []SettingsEnvironment{
			{
				Namespace:           "env",
				Environment:         "shared",
				InheritEnvironments: []string{"ndk"},
				Properties: []Property{
					{Name: "A", Value: "2"},
					{Name: "B", Value: "3"},
				},
			},
			{
				Namespace:   "env",
				Environment: "extra",
				Properties:  []Property{{Name: "C", Value: "4"}},
			},
		},
		Configurations: []Configuration{{Name: "two"}},
	}
	got := Merge(a, b)
	want := &Settings{
		Environments: []SettingsEnvironment{
			{
				Namespace:           "env",
				Environment:         "shared",
				InheritEnvironments: []string{"ndk"},
				Properties: []Property{
					{Name: "A", Value: "1"},
					{Name: "A", Value: "2"},
					{Name: "B", Value: "3"},
				},
			},
			{
				Namespace:   "env",
				Environment: "extra",
				Properties:  []Property{{Name: "C", Value: "4"}},
			},
		},
		Configurations: []Configuration{{Name: "one"}, {Name: "two"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge: diff -want +got:\n%s", diff)
	}
	// later value of a merged variable wins at lookup time
	if v, _ := got.Environments[0].Lookup("A"); v != "2" {
		t.Errorf("Lookup(A)=%q; want 2", v)
	}
	// inputs untouched
	if len(a.Environments[0].Properties) != 1 {
		t.Error("Merge mutated its first input")
	}
}

func TestEnvironmentRoundTripJSON(t *testing.T) {
	env := SettingsEnvironment{
		Namespace:           "env",
		Environment:         "abi-arm64-v8a",
		InheritEnvironments: []string{"ndk"},
		Properties: []Property{
			{Name: "NDK_ABI", Value: "arm64-v8a"},
		},
	}
	b, err := env.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var got SettingsEnvironment
	err = got.UnmarshalJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(env, got); diff != "" {
		t.Errorf("round trip: diff -want +got:\n%s", diff)
	}
}
