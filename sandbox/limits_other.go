//go:build !linux

package sandbox

import "github.com/wumbohq/wumbo/runtime"

// Resource ceilings need prlimit(2); elsewhere containment is reduced to the
// private working directory and the hard timeout.
func applyLimits(pid int, limits runtime.ResourceLimits) error {
	return nil
}
