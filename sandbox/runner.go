package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/runtime"
)

// ErrTimeout reports that an execution exceeded its deadline. It is distinct
// from a nonzero exit: the child was killed, its output is partial.
var ErrTimeout = errors.New("execution timed out")

// Command describes one subprocess invocation.
type Command struct {
	Path    string   // binary name or path
	Args    []string // arguments, excluding the binary itself
	Stdin   string   // written fully before waiting
	Dir     string   // working directory, normally the scope's
	Env     map[string]string // merged over the inherited environment
	Timeout time.Duration
	Limits  runtime.ResourceLimits
}

// Output captures the observable outcome of a finished subprocess.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run starts the subprocess, writes stdin, and waits up to the timeout. A
// nonzero exit is not an error here (the adapter decides what it means); the
// returned error covers start failures, timeouts (ErrTimeout), and context
// cancellation. On timeout or cancellation the child's process group is
// killed before Run returns.
func Run(ctx context.Context, c Command) (Output, error) {
	start := time.Now()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	cmd.Stdin = strings.NewReader(c.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return Output{Duration: time.Since(start)}, fmt.Errorf("start %s: %w", c.Path, err)
	}

	if err := applyLimits(cmd.Process.Pid, c.Limits); err != nil {
		slog.Warn("resource limits not applied", "pid", cmd.Process.Pid, "error", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		killTree(cmd)
		<-done // reap; pipes are closed by Wait on every path
		out := Output{
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(start),
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, fmt.Errorf("%w after %v", ErrTimeout, c.Timeout)
		}
		return out, ctx.Err()
	case err := <-done:
		out := Output{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(start),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("wait %s: %w", c.Path, err)
		}
		return out, nil
	}
}

// mergeEnv overlays extra variables on the inherited environment. The
// inherited environment is never replaced wholesale.
func mergeEnv(inherited []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return inherited
	}
	out := make([]string, 0, len(inherited)+len(extra))
	for _, kv := range inherited {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, overridden := extra[key]; !overridden {
			out = append(out, kv)
		}
	}
	for k, v := range extra {
		out = append(out, k+"="+v)
	}
	return out
}
