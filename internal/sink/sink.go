// Package sink delivers printed documents.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// ErrNoPath is returned by a File sink without a path.
var ErrNoPath = errors.New("sink path cannot be empty")

// Sink receives the bytes of a printed document.
type Sink interface {
	Write(ctx context.Context, pdf []byte) error
}

// Compile-time interface implementation checks.
var (
	_ Sink = (*File)(nil)
	_ Sink = (*Memory)(nil)
	_ Sink = Discard{}
)

// File writes each printed document to Path, creating parent directories.
// A later write replaces the earlier one.
type File struct {
	Path string
}

// Write stores pdf at f.Path.
func (f *File) Write(ctx context.Context, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Path == "" {
		return ErrNoPath
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), dirPermissions); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	// #nosec G306 -- PDFs are meant to be readable
	if err := os.WriteFile(f.Path, pdf, filePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	return nil
}

// Memory keeps printed documents in memory, mostly for tests.
type Memory struct {
	mu   sync.Mutex
	docs [][]byte
}

// Write appends a copy of pdf.
func (m *Memory) Write(_ context.Context, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, append([]byte(nil), pdf...))
	return nil
}

// Documents returns everything written so far.
func (m *Memory) Documents() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.docs))
	copy(out, m.docs)
	return out
}

// Discard drops printed documents.
type Discard struct{}

// Write does nothing.
func (Discard) Write(context.Context, []byte) error { return nil }
