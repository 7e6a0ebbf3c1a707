// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package diag provides structured, context aware configuration diagnostics.
//
// Native build configuration failures are reported with a stable code so
// that IDE tooling can react programmatically, rather than by matching
// free-text error messages. A Sink is carried in the context; swapping the
// sink changes where diagnostics go without changing the code path that
// produces them (e.g. the ndk.dir deprecation check re-runs resolution with
// every diagnostic demoted to info).
package diag

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Code identifies one class of configuration diagnostic.
type Code string

// Diagnostic codes. The string values are tooling-visible and stable.
const (
	NdkIsAmbiguous     Code = "NDK_IS_AMBIGUOUS"
	NdkCorrupted       Code = "NDK_CORRUPTED"
	NdkVersionMismatch Code = "NDK_VERSION_MISMATCH"
	NdkVersionInvalid  Code = "NDK_VERSION_INVALID"
	NdkVersionUnmatched Code = "NDK_VERSION_UNMATCHED"
	NdkNotConfigured   Code = "NDK_NOT_CONFIGURED"
	NdkDirIsDeprecated Code = "NDK_DIR_IS_DEPRECATED"

	MacroNotResolved Code = "MACRO_NOT_RESOLVED"
	ExpansionCycle   Code = "EXPANSION_CYCLE"

	BuildFileMissing           Code = "BUILD_FILE_MISSING"
	BuildCommandNotExecutable  Code = "BUILD_COMMAND_NOT_EXECUTABLE"
	ArtifactNameMissing        Code = "ARTIFACT_NAME_MISSING"
	AbiUnknown                 Code = "ABI_UNKNOWN"
	LibraryHadMultipleAbis     Code = "LIBRARY_HAD_MULTIPLE_ABIS"
	RuntimeFileInvalid         Code = "RUNTIME_FILE_INVALID"
)

// Severity is a diagnostic severity.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity[%d]", int(s))
}

// Diagnostic is one configuration diagnostic.
// It implements error so fatal diagnostics can flow through error returns.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	// File is the originating file, if any (e.g. the config JSON that
	// failed lint).
	File string
}

// Error implements error.
func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.File, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Sink receives diagnostics.
type Sink interface {
	Report(d *Diagnostic)
}

type contextKeyType int

const (
	contextKey contextKeyType = iota
	fileKey
)

// NewContext returns a context carrying the sink.
func NewContext(ctx context.Context, sink Sink) context.Context {
	return context.WithValue(ctx, contextKey, sink)
}

// FromContext returns the sink in the context, or a log-backed default.
func FromContext(ctx context.Context) Sink {
	sink, ok := ctx.Value(contextKey).(Sink)
	if !ok {
		return LogSink{}
	}
	return sink
}

// WithFile returns a context whose diagnostics are tagged with the
// originating file name.
func WithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, fileKey, file)
}

func fileFromContext(ctx context.Context) string {
	file, _ := ctx.Value(fileKey).(string)
	return file
}

// Errorf reports an error-severity diagnostic and returns it as error.
func Errorf(ctx context.Context, code Code, format string, args ...any) error {
	d := &Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		File:     fileFromContext(ctx),
	}
	FromContext(ctx).Report(d)
	return d
}

// Warnf reports a warn-severity diagnostic.
func Warnf(ctx context.Context, code Code, format string, args ...any) {
	FromContext(ctx).Report(&Diagnostic{
		Code:     code,
		Severity: SeverityWarn,
		Message:  fmt.Sprintf(format, args...),
		File:     fileFromContext(ctx),
	})
}

// Infof reports an info-severity diagnostic.
func Infof(ctx context.Context, code Code, format string, args ...any) {
	FromContext(ctx).Report(&Diagnostic{
		Code:     code,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf(format, args...),
		File:     fileFromContext(ctx),
	})
}

// LogSink forwards diagnostics to the process logger.
type LogSink struct{}

// Report implements Sink.
func (LogSink) Report(d *Diagnostic) {
	switch d.Severity {
	case SeverityError:
		log.Errorf("%s", d.Error())
	case SeverityWarn:
		log.Warnf("%s", d.Error())
	default:
		log.Infof("%s", d.Error())
	}
}

// DemoteToInfo wraps a sink, lowering every diagnostic to info severity.
// Used for simulated resolution passes whose diagnostics must not surface
// as user-visible warnings or errors.
func DemoteToInfo(sink Sink) Sink {
	return demoteSink{sink: sink}
}

type demoteSink struct {
	sink Sink
}

func (s demoteSink) Report(d *Diagnostic) {
	dd := *d
	dd.Severity = SeverityInfo
	s.sink.Report(&dd)
}
