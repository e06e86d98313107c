// Package executor builds and runs templates. A Template binds one source
// snippet to one language adapter at construction time, validating the
// snippet and probing the runtime up front so a template that constructs
// without error is ready to call.
package executor

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

// Template is an executable snippet bound to a language runtime. Templates
// are immutable after construction and safe for concurrent calls; every call
// runs in its own working directory.
type Template struct {
	name     string
	lang     runtime.Language
	source   string
	desc     runtime.Descriptor
	adapter  language.Adapter
	metadata map[string]any
	sandbox  bool
	logger   *slog.Logger
}

// Result is the outcome of one execution. Logs and Stderr are diagnostics
// from the child process; they are populated on successes and failures alike.
type Result struct {
	Data        any
	Type        string
	Duration    time.Duration
	ExecutionID string
	Version     string // interpreter version the call ran under
	Logs        []string
	Stderr      string
	Err         *Error
}

// Value returns the result data, or the execution error.
func (r Result) Value() (any, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Data, nil
}

// New builds a template. The language's runtime is probed and the source is
// validated immediately; a missing toolchain or a rejected snippet fails
// here, not at call time.
func New(lang runtime.Language, source string, opts ...Option) (*Template, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.registry
	if registry == nil {
		registry = DefaultRegistry(logger)
	}

	desc, err := cfg.descriptor(lang)
	if err != nil {
		return nil, wrapConstruction(err)
	}
	adapter, err := registry.Get(lang, desc, cfg.codec)
	if err != nil {
		return nil, wrapConstruction(err)
	}
	if !cfg.skipValidation {
		if err := adapter.Validate(context.Background(), source); err != nil {
			return nil, wrapConstruction(err)
		}
	}

	name := cfg.name
	if name == "" {
		name = fmt.Sprintf("%s_template", lang)
	}
	return &Template{
		name:     name,
		lang:     lang,
		source:   source,
		desc:     desc,
		adapter:  adapter,
		metadata: cfg.metadata,
		sandbox:  !cfg.sandboxDisabled,
		logger:   logger,
	}, nil
}

// Name returns the template's name.
func (t *Template) Name() string { return t.name }

// Language returns the template's language.
func (t *Template) Language() runtime.Language { return t.lang }

// Descriptor returns the runtime configuration calls execute under.
func (t *Template) Descriptor() runtime.Descriptor { return t.desc }

// Execute runs the template once with positional and keyword arguments.
// Template failures are reported in the result; the error return is reserved
// for host-side faults such as an unusable working directory.
func (t *Template) Execute(ctx context.Context, args []any, kwargs map[string]any) (Result, error) {
	start := time.Now()
	res := Result{ExecutionID: generateExecutionID()}

	packet := wire.NewPacket(args, kwargs, wire.Context{
		TemplateName: t.name,
		ExecutionID:  res.ExecutionID,
		Metadata:     t.metadata,
	})
	prog, err := t.adapter.Prepare(t.source, packet)
	if err != nil {
		return Result{}, fmt.Errorf("prepare %s template: %w", t.lang, err)
	}

	env := runtime.NewEnvironment(t.desc)
	env.SandboxEnabled = t.sandbox
	scope, err := sandbox.Enter(env, t.logger)
	if err != nil {
		return Result{}, fmt.Errorf("enter sandbox: %w", err)
	}
	defer scope.Close()

	wres, err := t.adapter.Execute(ctx, scope, prog)
	if err != nil {
		return Result{}, fmt.Errorf("execute %s template: %w", t.lang, err)
	}

	res.Duration = time.Since(start)
	res.Version = t.adapter.Version()
	res.Logs = wres.Logs
	res.Stderr = wres.Stderr
	if wres.OK {
		res.Data = wres.Data
		res.Type = wres.Type
	} else {
		res.Err = fromFailure(wres.Failure)
	}
	t.logger.Info("template executed",
		"template", t.name,
		"language", t.lang,
		"execution_id", res.ExecutionID,
		"duration", res.Duration,
		"ok", res.Err == nil)
	return res, nil
}

// Call runs the template and collapses the outcome into a value or an error,
// the way a plain function call would.
func (t *Template) Call(ctx context.Context, args ...any) (any, error) {
	res, err := t.Execute(ctx, args, nil)
	if err != nil {
		return nil, err
	}
	return res.Value()
}

func generateExecutionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
