// Package javascript runs JavaScript templates under Node.js.
package javascript

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

//go:embed harness.js
var harness string

const validateTimeout = 10 * time.Second

// Adapter implements language.Adapter for JavaScript templates.
type Adapter struct {
	desc    runtime.Descriptor
	codec   *wire.Codec
	path    string
	version string
}

// New probes the configured Node.js binary and returns a JavaScript adapter.
func New(desc runtime.Descriptor, codec *wire.Codec) (*Adapter, error) {
	path, err := language.LookupInterpreter(desc)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		desc:    desc,
		codec:   codec,
		path:    path,
		version: language.ProbeVersion(path, "--version"),
	}, nil
}

// Factory adapts New to the registry's factory signature.
func Factory(desc runtime.Descriptor, codec *wire.Codec) (language.Adapter, error) {
	return New(desc, codec)
}

func (a *Adapter) Language() runtime.Language     { return runtime.JavaScript }
func (a *Adapter) Descriptor() runtime.Descriptor { return a.desc }
func (a *Adapter) Version() string                { return a.version }

func (a *Adapter) Features() []string {
	return []string{
		"basic_execution",
		"async_support",
		"json_serialization",
		"es6_features",
		"error_handling",
	}
}

// Validate syntax-checks the harness-wrapped template with node --check.
// Wrapping first means constructs that only parse inside the async wrapper,
// await in particular, validate the same way they will run.
func (a *Adapter) Validate(ctx context.Context, source string) error {
	prog, err := a.Prepare(source, wire.NewPacket(nil, nil, wire.Context{}))
	if err != nil {
		return err
	}
	file, err := stageTemp("wumbo-check-*.js", prog.Files[0].Data)
	if err != nil {
		return err
	}
	defer os.Remove(file)

	out, err := sandbox.Run(ctx, sandbox.Command{
		Path:    a.path,
		Args:    []string{"--check", file},
		Env:     a.desc.Env,
		Timeout: validateTimeout,
	})
	if err != nil {
		return fmt.Errorf("javascript validation: %w", err)
	}
	if out.ExitCode != 0 {
		return &language.ValidationError{
			Language: runtime.JavaScript,
			Detail:   scrubTempPath(out.Stderr, file),
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
	text := strings.ReplaceAll(harness, "@@INPUT@@", jsLiteral(payload))
	text = strings.ReplaceAll(text, "@@TEMPLATE@@", source)
	return language.Program{
		Files: []sandbox.File{{Name: "template.js", Data: []byte(text)}},
	}, nil
}

func (a *Adapter) Execute(ctx context.Context, scope *sandbox.Scope, prog language.Program) (wire.Result, error) {
	entry, err := scope.Stage(prog.Files...)
	if err != nil {
		return wire.Result{}, err
	}
	// V8 reserves virtual address space far beyond its heap, so the memory
	// ceiling goes through node's own flag instead of RLIMIT_AS.
	limits := scope.Limits()
	var args []string
	if limits.MaxMemory > 0 {
		args = append(args, fmt.Sprintf("--max-old-space-size=%d", limits.MaxMemory>>20))
		limits.MaxMemory = 0
	}
	args = append(args, a.desc.ExtraArgs...)
	args = append(args, entry)
	out, runErr := sandbox.Run(ctx, sandbox.Command{
		Path:    a.path,
		Args:    args,
		Dir:     scope.Dir(),
		Env:     a.desc.Env,
		Timeout: a.desc.Timeout,
		Limits:  limits,
	})
	return language.Interpret(out, runErr), nil
}

// jsLiteral renders s as a JavaScript string literal. JSON string escaping
// is a subset of JavaScript's, including surrogate pairs for astral runes.
func jsLiteral(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func stageTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// scrubTempPath strips the staging path from toolchain diagnostics so the
// message refers to the template, not a transient file name.
func scrubTempPath(msg, file string) string {
	msg = strings.ReplaceAll(msg, file+":", "template line ")
	msg = strings.ReplaceAll(msg, file, "template")
	msg = strings.ReplaceAll(msg, filepath.Base(file), "template")
	return strings.TrimSpace(msg)
}
