// Package python runs Python templates under the system CPython interpreter.
package python

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

//go:embed harness.py
var harness string

//go:embed checker.py
var checker string

const validateTimeout = 10 * time.Second

// Adapter implements language.Adapter for Python templates.
type Adapter struct {
	desc    runtime.Descriptor
	codec   *wire.Codec
	path    string
	version string
}

// New probes the configured interpreter and returns a Python adapter.
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

func (a *Adapter) Language() runtime.Language     { return runtime.Python }
func (a *Adapter) Descriptor() runtime.Descriptor { return a.desc }
func (a *Adapter) Version() string                { return a.version }

func (a *Adapter) Features() []string {
	return []string{
		"basic_execution",
		"data_serialization",
		"security_sandbox",
		"import_restrictions",
		"ast_validation",
		"output_capture",
	}
}

type checkReport struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations"`
}

// Validate runs the embedded checker program, feeding the template on stdin.
// The checker parses the template's AST and reports denied imports, calls,
// and attribute accesses; the template itself is never executed.
func (a *Adapter) Validate(ctx context.Context, source string) error {
	out, err := sandbox.Run(ctx, sandbox.Command{
		Path:    a.path,
		Args:    []string{"-c", checker},
		Stdin:   source,
		Env:     a.desc.Env,
		Timeout: validateTimeout,
	})
	if err != nil {
		return fmt.Errorf("python validation: %w", err)
	}
	if out.ExitCode != 0 {
		return fmt.Errorf("python validation: checker exited with code %d: %s",
			out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	var report checkReport
	if err := json.Unmarshal([]byte(out.Stdout), &report); err != nil {
		return fmt.Errorf("python validation: bad checker output: %w", err)
	}
	if !report.OK {
		return &language.ValidationError{
			Language: runtime.Python,
			Detail:   strings.Join(report.Violations, "; "),
		}
	}
	return nil
}

// Prepare embeds the packet in the harness as a string literal and splices
// the template in verbatim at module level. No reindentation happens, so
// multi-line string literals in the template keep their exact value.
func (a *Adapter) Prepare(source string, packet wire.Packet) (language.Program, error) {
	payload, err := a.codec.Marshal(packet)
	if err != nil {
		return language.Program{}, err
	}
	text := strings.ReplaceAll(harness, "@@INPUT@@", strconv.Quote(payload))
	text = strings.ReplaceAll(text, "@@TEMPLATE@@", source)
	return language.Program{
		Files: []sandbox.File{{Name: "template.py", Data: []byte(text)}},
	}, nil
}

func (a *Adapter) Execute(ctx context.Context, scope *sandbox.Scope, prog language.Program) (wire.Result, error) {
	entry, err := scope.Stage(prog.Files...)
	if err != nil {
		return wire.Result{}, err
	}
	args := append(append([]string{}, a.desc.ExtraArgs...), entry)
	out, runErr := sandbox.Run(ctx, sandbox.Command{
		Path:    a.path,
		Args:    args,
		Dir:     scope.Dir(),
		Env:     a.desc.Env,
		Timeout: a.desc.Timeout,
		Limits:  scope.Limits(),
	})
	return language.Interpret(out, runErr), nil
}
