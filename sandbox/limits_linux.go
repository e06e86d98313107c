//go:build linux

package sandbox

import (
	"golang.org/x/sys/unix"

	"github.com/wumbohq/wumbo/runtime"
)

// applyLimits places rlimit ceilings on the already-started child. Limits are
// per-child, never on the current process; failures are reported for logging
// but do not abort the execution (best-effort containment).
func applyLimits(pid int, limits runtime.ResourceLimits) error {
	if limits.MaxMemory > 0 {
		rl := unix.Rlimit{Cur: uint64(limits.MaxMemory), Max: uint64(limits.MaxMemory)}
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &rl, nil); err != nil {
			return err
		}
	}
	if limits.MaxCPU > 0 {
		secs := uint64(limits.MaxCPU.Seconds())
		if secs == 0 {
			secs = 1
		}
		rl := unix.Rlimit{Cur: secs, Max: secs}
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &rl, nil); err != nil {
			return err
		}
	}
	return nil
}
