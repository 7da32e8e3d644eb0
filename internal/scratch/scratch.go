// Package scratch manages a per-session working directory that is removed
// when the session ends, but only if the session created it.
package scratch

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"

	"sessionshell/internal/render"
)

// Dir is a scratch directory owned by one session.
type Dir struct {
	mu      sync.Mutex
	path    string
	fs      afero.Fs
	out     *render.Renderer
	created bool
}

// New returns a scratch directory at path. Nothing is created until Create.
// Failures while clearing are reported through r in verbose mode.
func New(path string, r *render.Renderer) *Dir {
	return &Dir{
		path: path,
		fs:   afero.NewOsFs(),
		out:  r,
	}
}

// WithFs replaces the filesystem the directory lives on.
func (d *Dir) WithFs(fs afero.Fs) *Dir {
	d.fs = fs
	return d
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Created reports whether this Dir made the directory and so owns it.
func (d *Dir) Created() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

// Create makes the directory if it does not exist yet. A directory that
// already exists is used as is and is never removed by Clear.
func (d *Dir) Create() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	exists, err := afero.DirExists(d.fs, d.path)
	if err != nil {
		return fmt.Errorf("failed to check scratch directory %s: %w", d.path, err)
	}
	if exists {
		return nil
	}
	if err := d.fs.Mkdir(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory %s: %w", d.path, err)
	}
	if exists, _ := afero.DirExists(d.fs, d.path); !exists {
		return fmt.Errorf("scratch directory was not created: %s", d.path)
	}
	d.created = true
	return nil
}

// Clear removes the directory and everything in it if Create made it.
// A removal failure is reported in verbose mode and otherwise ignored.
func (d *Dir) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if exists, _ := afero.DirExists(d.fs, d.path); exists && d.created {
		if err := d.fs.RemoveAll(d.path); err != nil && d.out != nil {
			d.out.VPrint([]any{"Error while clearing scratch:", err})
		}
	}
	d.created = false
}
