package executor

import (
	"log/slog"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/wire"
)

// Option configures template construction.
type Option func(*config)

type config struct {
	name            string
	interpreter     string
	extraArgs       []string
	env             map[string]string
	timeout         time.Duration
	maxMemory       int64
	metadata        map[string]any
	sandboxDisabled bool
	skipValidation  bool
	registry        *language.Registry
	codec           wire.Config
	logger          *slog.Logger
}

func defaultConfig() config {
	return config{
		codec: wire.DefaultConfig(),
	}
}

// WithName sets the template name reported in the execution context.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithInterpreter overrides the language's default interpreter binary.
func WithInterpreter(path string) Option {
	return func(c *config) {
		c.interpreter = path
	}
}

// WithArgs overrides the extra arguments passed before the program.
func WithArgs(args ...string) Option {
	return func(c *config) {
		c.extraArgs = args
	}
}

// WithEnv merges variables over the language's default environment.
func WithEnv(env map[string]string) Option {
	return func(c *config) {
		if c.env == nil {
			c.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.env[k] = v
		}
	}
}

// WithTimeout sets the maximum execution time per call.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMaxMemory sets the memory ceiling in bytes per call.
func WithMaxMemory(limit int64) Option {
	return func(c *config) {
		c.maxMemory = limit
	}
}

// WithMetadata attaches key-value pairs to the execution context visible to
// the template.
func WithMetadata(metadata map[string]any) Option {
	return func(c *config) {
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			c.metadata[k] = v
		}
	}
}

// WithSandboxDisabled turns off resource limits for executions. The private
// working directory is still created per call.
func WithSandboxDisabled() Option {
	return func(c *config) {
		c.sandboxDisabled = true
	}
}

// WithoutValidation skips the construction-time syntax check.
func WithoutValidation() Option {
	return func(c *config) {
		c.skipValidation = true
	}
}

// WithRegistry supplies the adapter registry. Templates built in the same
// process share one registry to share probed adapters.
func WithRegistry(r *language.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithCodec sets the wire serialization configuration.
func WithCodec(cfg wire.Config) Option {
	return func(c *config) {
		c.codec = cfg
	}
}

// WithLogger sets the structured logger for executions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// descriptor materializes the runtime descriptor the options describe.
func (c *config) descriptor(lang runtime.Language) (runtime.Descriptor, error) {
	desc, err := runtime.DefaultDescriptor(lang)
	if err != nil {
		return runtime.Descriptor{}, err
	}
	return desc.Merge(runtime.Descriptor{
		Interpreter: c.interpreter,
		ExtraArgs:   c.extraArgs,
		Env:         c.env,
		Timeout:     c.timeout,
		MaxMemory:   c.maxMemory,
	}), nil
}
