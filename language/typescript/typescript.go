// Package typescript runs TypeScript templates, directly under ts-node when
// it is installed, otherwise compiling with tsc and executing the emitted
// JavaScript under Node.js. tsc, when present, also powers validation.
package typescript

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

//go:embed harness.ts
var harness string

const (
	validateTimeout = 60 * time.Second
	compileTimeout  = 60 * time.Second
)

var compileArgs = []string{"--target", "es2020", "--module", "commonjs"}

// Adapter implements language.Adapter for TypeScript templates.
type Adapter struct {
	desc    runtime.Descriptor
	codec   *wire.Codec
	node    string
	tsc     string // empty when not installed
	tsnode  string // empty when not installed
	version string
}

// New probes Node.js plus the TypeScript toolchain. Node and at least one of
// tsc or ts-node must be installed.
func New(desc runtime.Descriptor, codec *wire.Codec) (*Adapter, error) {
	node, err := language.LookupInterpreter(desc)
	if err != nil {
		return nil, err
	}
	tsc, _ := exec.LookPath("tsc")
	tsnode, _ := exec.LookPath("ts-node")
	if tsc == "" && tsnode == "" {
		return nil, &language.UnavailableError{
			Language:    runtime.TypeScript,
			Interpreter: "tsc",
			Err:         fmt.Errorf("neither tsc nor ts-node found on PATH"),
		}
	}
	if tsc == "" {
		slog.Warn("tsc not installed, typescript templates run unvalidated",
			"interpreter", tsnode)
	}
	version := "unknown"
	if tsnode != "" {
		version = language.ProbeVersion(tsnode, "--version")
	} else {
		version = language.ProbeVersion(tsc, "--version")
	}
	return &Adapter{
		desc:    desc,
		codec:   codec,
		node:    node,
		tsc:     tsc,
		tsnode:  tsnode,
		version: version,
	}, nil
}

// Factory adapts New to the registry's factory signature.
func Factory(desc runtime.Descriptor, codec *wire.Codec) (language.Adapter, error) {
	return New(desc, codec)
}

func (a *Adapter) Language() runtime.Language     { return runtime.TypeScript }
func (a *Adapter) Descriptor() runtime.Descriptor { return a.desc }
func (a *Adapter) Version() string                { return a.version }

func (a *Adapter) Features() []string {
	features := []string{
		"basic_execution",
		"async_support",
		"json_serialization",
		"static_typing",
		"error_handling",
	}
	if a.tsc != "" {
		features = append(features, "type_checking")
	}
	return features
}

// Validate type-checks the harness-wrapped template with tsc --noEmit. When
// only ts-node is installed there is no check-without-run mode; the
// degradation is announced once at construction and errors surface at
// execution instead.
func (a *Adapter) Validate(ctx context.Context, source string) error {
	if a.tsc == "" {
		return nil
	}
	prog, err := a.Prepare(source, wire.NewPacket(nil, nil, wire.Context{}))
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "wumbo-check-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "template.ts")
	if err := os.WriteFile(file, prog.Files[0].Data, 0o644); err != nil {
		return err
	}

	args := append(append([]string{"--noEmit"}, compileArgs...), file)
	out, err := sandbox.Run(ctx, sandbox.Command{
		Path:    a.tsc,
		Args:    args,
		Env:     a.desc.Env,
		Timeout: validateTimeout,
	})
	if err != nil {
		return fmt.Errorf("typescript validation: %w", err)
	}
	if out.ExitCode != 0 {
		detail := strings.ReplaceAll(out.Stdout+out.Stderr, file, "template")
		return &language.ValidationError{
			Language: runtime.TypeScript,
			Detail:   strings.TrimSpace(detail),
		}
	}
	return nil
}

// Prepare embeds the packet in the harness as a string literal and splices
// the template into the async wrapper.
func (a *Adapter) Prepare(source string, packet wire.Packet) (language.Program, error) {
	payload, err := a.codec.Marshal(packet)
	if err != nil {
		return language.Program{}, err
	}
	text := strings.ReplaceAll(harness, "@@INPUT@@", tsLiteral(payload))
	text = strings.ReplaceAll(text, "@@TEMPLATE@@", source)
	return language.Program{
		Files: []sandbox.File{{Name: "template.ts", Data: []byte(text)}},
	}, nil
}

// Execute runs the staged template under ts-node in transpile-only mode
// (type checking already happened in Validate). Without ts-node it compiles
// with tsc and runs the emitted JavaScript under node.
func (a *Adapter) Execute(ctx context.Context, scope *sandbox.Scope, prog language.Program) (wire.Result, error) {
	entry, err := scope.Stage(prog.Files...)
	if err != nil {
		return wire.Result{}, err
	}

	if a.tsnode != "" {
		args := append([]string{"-T"}, a.desc.ExtraArgs...)
		args = append(args, entry)
		out, runErr := sandbox.Run(ctx, sandbox.Command{
			Path:    a.tsnode,
			Args:    args,
			Dir:     scope.Dir(),
			Env:     nodeEnv(a.desc.Env, scope.Limits()),
			Timeout: a.desc.Timeout,
			Limits:  nodeLimits(scope.Limits()),
		})
		return language.Interpret(out, runErr), nil
	}

	args := append(append([]string{}, compileArgs...), "--outDir", scope.Dir(), entry)
	out, runErr := sandbox.Run(ctx, sandbox.Command{
		Path:    a.tsc,
		Args:    args,
		Dir:     scope.Dir(),
		Env:     a.desc.Env,
		Timeout: compileTimeout,
	})
	if runErr != nil {
		return language.Interpret(out, runErr), nil
	}
	if out.ExitCode != 0 {
		detail := strings.TrimSpace(strings.ReplaceAll(out.Stdout+out.Stderr, entry, "template"))
		return wire.Fail(language.FailExecution, "typescript compilation failed: "+detail), nil
	}

	compiled := strings.TrimSuffix(entry, ".ts") + ".js"
	limits := nodeLimits(scope.Limits())
	var nodeArgs []string
	if mem := scope.Limits().MaxMemory; mem > 0 {
		nodeArgs = append(nodeArgs, fmt.Sprintf("--max-old-space-size=%d", mem>>20))
	}
	nodeArgs = append(nodeArgs, a.desc.ExtraArgs...)
	nodeArgs = append(nodeArgs, compiled)
	out, runErr = sandbox.Run(ctx, sandbox.Command{
		Path:    a.node,
		Args:    nodeArgs,
		Dir:     scope.Dir(),
		Env:     a.desc.Env,
		Timeout: a.desc.Timeout,
		Limits:  limits,
	})
	return language.Interpret(out, runErr), nil
}

// nodeLimits clears the address-space ceiling; V8 reserves virtual memory
// far beyond its heap, so the ceiling goes through --max-old-space-size.
func nodeLimits(l runtime.ResourceLimits) runtime.ResourceLimits {
	l.MaxMemory = 0
	return l
}

// nodeEnv carries the heap ceiling to the node process underneath ts-node,
// which takes no node flags of its own.
func nodeEnv(env map[string]string, l runtime.ResourceLimits) map[string]string {
	if l.MaxMemory <= 0 {
		return env
	}
	out := make(map[string]string, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	out["NODE_OPTIONS"] = fmt.Sprintf("--max-old-space-size=%d", l.MaxMemory>>20)
	return out
}

// tsLiteral renders s as a TypeScript string literal. JSON string escaping
// is a subset of the language's.
func tsLiteral(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
