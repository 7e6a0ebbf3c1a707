// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package diag

import "sync"

// Collector is a Sink that accumulates diagnostics.
// Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

// Report implements Sink.
func (c *Collector) Report(d *Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns collected diagnostics in report order.
func (c *Collector) Diagnostics() []*Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Diagnostic(nil), c.diags...)
}

// HasErrors reports whether any error-severity diagnostic was collected.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
