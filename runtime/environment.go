package runtime

import "time"

// ResourceLimits bounds a single execution. Zero values mean "use the
// descriptor's defaults"; enforcement is best-effort and platform dependent.
type ResourceLimits struct {
	MaxMemory int64         // address-space ceiling in bytes
	MaxCPU    time.Duration // CPU-time ceiling
}

// Environment governs how aggressively one execution is isolated.
type Environment struct {
	Runtime          Descriptor
	SandboxEnabled   bool
	NetworkAccess    bool
	FilesystemAccess bool
	Limits           ResourceLimits
}

// NewEnvironment returns the default execution environment for a descriptor:
// sandboxed, no network, no filesystem access beyond the private working
// directory, limits taken from the descriptor.
func NewEnvironment(d Descriptor) Environment {
	return Environment{
		Runtime:        d,
		SandboxEnabled: true,
		Limits:         ResourceLimits{MaxMemory: d.MaxMemory},
	}
}
