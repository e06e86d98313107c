// Package sandbox provides per-call execution arenas and the subprocess
// runner templates execute under. Each call gets its own private working
// directory and best-effort resource limits; nothing in this package mutates
// process-wide state.
package sandbox

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wumbohq/wumbo/runtime"
)

// File is a program file staged into a scope's working directory.
type File struct {
	Name string
	Mode fs.FileMode
	Data []byte
}

// Scope is the arena for one execution: a unique private working directory
// plus the resource limits that apply inside it. Scopes never overlap in the
// same directory; every call enters a fresh one.
type Scope struct {
	dir    string
	env    runtime.Environment
	logger *slog.Logger
	closed bool
}

// Enter creates a fresh scope. The working directory is always unique per
// call (program files need a home even with sandboxing off); SandboxEnabled
// governs whether resource limits apply to the child.
func Enter(env runtime.Environment, logger *slog.Logger) (*Scope, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := os.MkdirTemp("", "wumbo-exec-*")
	if err != nil {
		return nil, fmt.Errorf("create sandbox directory: %w", err)
	}
	return &Scope{dir: dir, env: env, logger: logger}, nil
}

// Dir returns the scope's private working directory.
func (s *Scope) Dir() string { return s.dir }

// Limits returns the resource limits in force for this scope. With the
// sandbox disabled there are none.
func (s *Scope) Limits() runtime.ResourceLimits {
	if !s.env.SandboxEnabled {
		return runtime.ResourceLimits{}
	}
	return s.env.Limits
}

// Stage writes program files into the working directory and returns the
// absolute path of the first file, the entry point.
func (s *Scope) Stage(files ...File) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to stage")
	}
	var entry string
	for i, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		path := filepath.Join(s.dir, f.Name)
		if err := os.WriteFile(path, f.Data, mode); err != nil {
			return "", fmt.Errorf("stage %s: %w", f.Name, err)
		}
		if i == 0 {
			entry = path
		}
	}
	return entry, nil
}

// Close removes the working directory. Cleanup failures are logged, never
// returned: they must not mask the execution result.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		s.logger.Warn("sandbox cleanup failed", "dir", s.dir, "error", err)
	}
}
