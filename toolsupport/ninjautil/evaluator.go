// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ninjautil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Evaluator streams build commands out of a ninja file on disk,
// following include (same scope) and subninja (child scope) statements.
// Parse-time structures live only for the duration of one LoadFile
// call; commands are consumed through the callback, never materialized
// as a whole document.
type Evaluator struct {
	dir string
}

// NewEvaluator creates an evaluator resolving file references
// relative to dir.
func NewEvaluator(dir string) *Evaluator {
	return &Evaluator{dir: dir}
}

// LoadFile parses fname and invokes fn for every build statement, in
// file order across includes.
func (e *Evaluator) LoadFile(ctx context.Context, fname string, fn func(*UnexpandedCommand) error) error {
	state := NewEvaluationState()
	return e.loadInto(ctx, state, fname, fn)
}

func (e *Evaluator) loadInto(ctx context.Context, state *EvaluationState, fname string, fn func(*UnexpandedCommand) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsAbs(fname) {
		fname = filepath.Join(e.dir, fname)
	}
	buf, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	log.Debugf("ninja: load %s (%d bytes)", fname, len(buf))
	include := func(state *EvaluationState, st *IncludeDef) error {
		// The path of an include statement is expanded against the
		// current scope, with no build statement to synthesize in/out.
		path, err := (&UnexpandedCommand{build: &BuildDef{}, rule: phonyRule, vars: state.snapshot()}).Expand(st.Path)
		if err != nil {
			return err
		}
		if st.NewScope {
			return e.loadInto(ctx, state.child(), path, fn)
		}
		return e.loadInto(ctx, state, path, fn)
	}
	err = streamInto(state, buf, include, fn)
	if err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}
	return nil
}
