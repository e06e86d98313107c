package runtime

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Default limits applied when a descriptor does not override them.
const (
	DefaultTimeout   = 300 * time.Second
	DefaultMaxMemory = 1 << 30 // 1 GiB
)

// Descriptor names the interpreter or compiler binary for one language along
// with the arguments, environment, and limits each execution runs under.
// Descriptors are immutable after construction and safe to share between
// templates.
type Descriptor struct {
	Language    Language
	Interpreter string            // binary name or absolute path
	Version     string            // version hint, informational only
	ExtraArgs   []string          // inserted between interpreter and program
	Env         map[string]string // merged over the inherited environment
	WorkDir     string            // optional; sandbox dir wins when sandboxed
	Timeout     time.Duration
	MaxMemory   int64 // bytes
}

type descriptorDefaults struct {
	interpreter string
	extraArgs   []string
	env         map[string]string
	maxMemory   int64
}

var defaults = map[Language]descriptorDefaults{
	Python: {
		interpreter: "python3",
		extraArgs:   []string{"-u"},
		env:         map[string]string{"PYTHONPATH": "."},
		maxMemory:   DefaultMaxMemory,
	},
	JavaScript: {
		interpreter: "node",
		env:         map[string]string{"NODE_ENV": "production"},
		maxMemory:   DefaultMaxMemory,
	},
	TypeScript: {
		interpreter: "node",
		env:         map[string]string{"NODE_ENV": "production"},
		maxMemory:   DefaultMaxMemory,
	},
	Go: {
		interpreter: "go",
		env:         map[string]string{"GO111MODULE": "on"},
		maxMemory:   DefaultMaxMemory,
	},
	Shell: {
		interpreter: "bash",
		maxMemory:   512 << 20,
	},
}

// DefaultDescriptor returns the framework default runtime configuration for a
// language. Unknown languages are an error rather than empty defaults.
func DefaultDescriptor(lang Language) (Descriptor, error) {
	def, ok := defaults[lang]
	if !ok {
		return Descriptor{}, fmt.Errorf("unsupported language %q", lang)
	}

	env := make(map[string]string, len(def.env))
	for k, v := range def.env {
		env[k] = v
	}

	return Descriptor{
		Language:    lang,
		Interpreter: def.interpreter,
		Version:     "latest",
		ExtraArgs:   append([]string(nil), def.extraArgs...),
		Env:         env,
		Timeout:     DefaultTimeout,
		MaxMemory:   def.maxMemory,
	}, nil
}

// Merge returns a copy of d with the non-zero fields of override applied.
// The merge is shallow: override.Env entries are added to (or replace) d's,
// and a non-nil override.ExtraArgs replaces d's wholesale.
func (d Descriptor) Merge(override Descriptor) Descriptor {
	out := d
	if override.Interpreter != "" {
		out.Interpreter = override.Interpreter
	}
	if override.Version != "" {
		out.Version = override.Version
	}
	if override.ExtraArgs != nil {
		out.ExtraArgs = append([]string(nil), override.ExtraArgs...)
	}
	if len(override.Env) > 0 {
		env := make(map[string]string, len(d.Env)+len(override.Env))
		for k, v := range d.Env {
			env[k] = v
		}
		for k, v := range override.Env {
			env[k] = v
		}
		out.Env = env
	}
	if override.WorkDir != "" {
		out.WorkDir = override.WorkDir
	}
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	if override.MaxMemory > 0 {
		out.MaxMemory = override.MaxMemory
	}
	return out
}

// Key returns a deterministic identity string for cache keying. Two
// descriptors with equal configuration produce the same key.
func (d Descriptor) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%v|%s|%d|%d|", d.Language, d.Interpreter, d.Version, d.ExtraArgs, d.WorkDir, d.Timeout, d.MaxMemory)
	keys := make([]string, 0, len(d.Env))
	for k := range d.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, d.Env[k])
	}
	return b.String()
}
