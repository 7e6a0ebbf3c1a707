// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cmakeutil models CMakeSettings.json documents and the macro
// environments the native build configuration is expanded against.
//
// An "environment" here is a named bag of variables with an inheritance
// list, not an OS environment. Environments come from the user's
// CMakeSettings.json, from NDK metadata, from the hosting Gradle build,
// and from re-parsing the actual CMake/ndk-build command line; they are
// merged by union and resolved by macro substitution.
package cmakeutil

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Property is one name/value pair. Order is preserved; later writes of
// the same name shadow earlier ones at resolution time.
type Property struct {
	Name  string
	Value string
}

// SettingsEnvironment is a named bag of variables.
type SettingsEnvironment struct {
	// Namespace qualifies references; default "env" ("${env.FOO}").
	Namespace string
	// Environment is the name used by inheritEnvironments lists.
	// Unnamed environments apply to every configuration.
	Environment string
	// InheritEnvironments lists environments whose variables this one
	// inherits; its own variables shadow inherited ones.
	InheritEnvironments []string
	Groupable           bool
	Properties          []Property
}

// UnmarshalJSON parses one environments entry. The reserved keys
// (namespace, environment, inheritEnvironments, groupPriority) shape
// the environment; every other key is a variable, collected in a
// stable order.
func (e *SettingsEnvironment) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}
	e.Namespace = "env"
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := raw[k]
		switch k {
		case "namespace":
			err = json.Unmarshal(v, &e.Namespace)
		case "environment":
			err = json.Unmarshal(v, &e.Environment)
		case "inheritEnvironments":
			err = json.Unmarshal(v, &e.InheritEnvironments)
		case "groupPriority":
			// accepted, unused
		default:
			var value string
			err = json.Unmarshal(v, &value)
			if err == nil {
				e.Properties = append(e.Properties, Property{Name: k, Value: value})
			}
		}
		if err != nil {
			return fmt.Errorf("environment key %q: %w", k, err)
		}
	}
	return nil
}

// MarshalJSON renders the entry back in the CMakeSettings.json shape.
func (e SettingsEnvironment) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if e.Namespace != "" && e.Namespace != "env" {
		m["namespace"] = e.Namespace
	}
	if e.Environment != "" {
		m["environment"] = e.Environment
	}
	if len(e.InheritEnvironments) > 0 {
		m["inheritEnvironments"] = e.InheritEnvironments
	}
	for _, p := range e.Properties {
		m[p.Name] = p.Value
	}
	return json.Marshal(m)
}

// Lookup returns the last value set for name.
func (e *SettingsEnvironment) Lookup(name string) (string, bool) {
	for i := len(e.Properties) - 1; i >= 0; i-- {
		if e.Properties[i].Name == name {
			return e.Properties[i].Value, true
		}
	}
	return "", false
}

// Set appends a variable (shadowing any earlier one of the same name).
func (e *SettingsEnvironment) Set(name, value string) {
	e.Properties = append(e.Properties, Property{Name: name, Value: value})
}

// SettingsVariable is one CMake -D variable of a configuration.
type SettingsVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Configuration is one CMakeSettings.json configuration.
type Configuration struct {
	Name                string             `json:"name,omitempty"`
	Description         string             `json:"description,omitempty"`
	Generator           string             `json:"generator,omitempty"`
	ConfigurationType   string             `json:"configurationType,omitempty"`
	InheritEnvironments []string           `json:"inheritEnvironments,omitempty"`
	BuildRoot           string             `json:"buildRoot,omitempty"`
	InstallRoot         string             `json:"installRoot,omitempty"`
	CMakeExecutable     string             `json:"cmakeExecutable,omitempty"`
	CMakeToolchain      string             `json:"cmakeToolchain,omitempty"`
	CMakeCommandArgs    string             `json:"cmakeCommandArgs,omitempty"`
	BuildCommandArgs    string             `json:"buildCommandArgs,omitempty"`
	CtestCommandArgs    string             `json:"ctestCommandArgs,omitempty"`
	Variables           []SettingsVariable `json:"variables,omitempty"`
}

// Settings is a full CMakeSettings document.
type Settings struct {
	Environments   []SettingsEnvironment `json:"environments,omitempty"`
	Configurations []Configuration       `json:"configurations,omitempty"`
}

// ParseSettings parses a CMakeSettings.json document.
func ParseSettings(b []byte) (*Settings, error) {
	var s Settings
	err := json.Unmarshal(b, &s)
	if err != nil {
		return nil, fmt.Errorf("CMakeSettings.json: %w", err)
	}
	return &s, nil
}

// Merge combines two settings documents. The merge is append/union:
// later sources may add environments, add variables to existing
// environments, or add configurations; they never drop what an earlier
// source declared. Inputs are untouched.
func Merge(a, b *Settings) *Settings {
	out := &Settings{}
	byName := map[string]int{}
	for _, src := range []*Settings{a, b} {
		if src == nil {
			continue
		}
		for _, env := range src.Environments {
			key := env.Namespace + "\x00" + env.Environment
			i, ok := byName[key]
			if !ok {
				copied := env
				copied.Properties = append([]Property(nil), env.Properties...)
				copied.InheritEnvironments = append([]string(nil), env.InheritEnvironments...)
				out.Environments = append(out.Environments, copied)
				byName[key] = len(out.Environments) - 1
				continue
			}
			dst := &out.Environments[i]
			dst.Properties = append(dst.Properties, env.Properties...)
			for _, inherit := range env.InheritEnvironments {
				if !contains(dst.InheritEnvironments, inherit) {
					dst.InheritEnvironments = append(dst.InheritEnvironments, inherit)
				}
			}
		}
		out.Configurations = append(out.Configurations, src.Configurations...)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
