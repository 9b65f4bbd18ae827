//go:build windows

package activity

import (
	"context"
	"errors"

	"termidle/internal/logging"
)

// PTYWrapper is unavailable on Windows (stub)
type PTYWrapper struct{}

// NewPTYWrapper creates a wrapper stub
func NewPTYWrapper([]string, Notifier, *logging.Logger) *PTYWrapper {
	return &PTYWrapper{}
}

// Run always fails on Windows
func (w *PTYWrapper) Run(context.Context) (int, error) {
	return 1, errors.New("pty wrapping not supported on windows")
}
