package language

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/runtime"
)

// LookupInterpreter resolves the descriptor's interpreter on PATH. A miss is
// an *UnavailableError carrying the underlying lookup error.
func LookupInterpreter(desc runtime.Descriptor) (string, error) {
	path, err := exec.LookPath(desc.Interpreter)
	if err != nil {
		return "", &UnavailableError{
			Language:    desc.Language,
			Interpreter: desc.Interpreter,
			Err:         err,
		}
	}
	return path, nil
}

// ProbeVersion runs the interpreter once to capture its version banner.
// Best effort: any failure yields "unknown" rather than an error, since a
// runtime that cannot report a version may still execute programs.
func ProbeVersion(path string, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		return "unknown"
	}
	line := strings.TrimSpace(string(out))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return "unknown"
	}
	return line
}
