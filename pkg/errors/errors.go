// Package errors provides structured error handling for the sketch runtime.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates a configuration error (bad target id, bad option).
	KindConfig
	// KindLoad indicates an asset loader failure.
	KindLoad
	// KindHook indicates a failure raised from a user lifecycle or event hook.
	KindHook
	// KindEnv indicates an ambient environment failure.
	KindEnv
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindLoad:
		return "load"
	case KindHook:
		return "hook"
	case KindEnv:
		return "env"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// SketchError represents a structured error in the sketch runtime.
type SketchError struct {
	// Op is the operation that failed (e.g., "loaders.Image").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Sketch is the id of the sketch instance, if applicable.
	Sketch string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *SketchError) Error() string {
	if e.Sketch != "" {
		return fmt.Sprintf("%s [%s] sketch=%s: %v", e.Op, e.Kind, e.Sketch, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *SketchError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "sketch.drawCycle").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// LoadError represents a failure to load an asset.
type LoadError struct {
	// Loader is the capability name of the loader (e.g., "loadImage").
	Loader string
	// Path is the asset path or URL that failed.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s(%q): %v", e.Loader, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
