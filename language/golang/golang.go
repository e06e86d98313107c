// Package golang runs Go template snippets with the system Go toolchain.
// Each snippet is spliced into a generated main package and executed with
// go run inside the sandbox scope.
package golang

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

//go:embed harness.gotmpl
var harness string

const goMod = "module wumbo-template\n\ngo 1.21\n"

// Building pulls in the toolchain's cold-cache cost, so validation gets a
// generous ceiling compared to the interpreted languages.
const validateTimeout = 120 * time.Second

// Adapter implements language.Adapter for Go templates.
type Adapter struct {
	desc    runtime.Descriptor
	codec   *wire.Codec
	path    string
	version string
}

// New probes the go binary and returns a Go adapter.
func New(desc runtime.Descriptor, codec *wire.Codec) (*Adapter, error) {
	path, err := language.LookupInterpreter(desc)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		desc:    desc,
		codec:   codec,
		path:    path,
		version: language.ProbeVersion(path, "version"),
	}, nil
}

// Factory adapts New to the registry's factory signature.
func Factory(desc runtime.Descriptor, codec *wire.Codec) (language.Adapter, error) {
	return New(desc, codec)
}

func (a *Adapter) Language() runtime.Language     { return runtime.Go }
func (a *Adapter) Descriptor() runtime.Descriptor { return a.desc }
func (a *Adapter) Version() string                { return a.version }

func (a *Adapter) Features() []string {
	return []string{
		"basic_execution",
		"compiled_execution",
		"static_typing",
		"json_serialization",
		"panic_recovery",
	}
}

// Validate compiles the harness-wrapped snippet with an empty packet. A bare
// snippet is not a valid compilation unit on its own, so validation has to
// see it in the same shape execution will.
func (a *Adapter) Validate(ctx context.Context, source string) error {
	prog, err := a.Prepare(source, wire.NewPacket(nil, nil, wire.Context{}))
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "wumbo-check-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	for _, f := range prog.Files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644); err != nil {
			return err
		}
	}

	out, err := sandbox.Run(ctx, sandbox.Command{
		Path:    a.path,
		Args:    []string{"build", "-o", os.DevNull, "."},
		Dir:     dir,
		Env:     a.desc.Env,
		Timeout: validateTimeout,
	})
	if err != nil {
		return fmt.Errorf("go validation: %w", err)
	}
	if out.ExitCode != 0 {
		detail := strings.ReplaceAll(out.Stderr, dir+string(filepath.Separator), "")
		return &language.ValidationError{
			Language: runtime.Go,
			Detail:   strings.TrimSpace(detail),
		}
	}
	return nil
}

// Prepare embeds the packet in the harness as a string literal, splices the
// snippet into main verbatim, and pairs the file with a module definition for
// go run. The snippet is never reindented; raw string literals spanning
// lines keep their exact value.
func (a *Adapter) Prepare(source string, packet wire.Packet) (language.Program, error) {
	payload, err := a.codec.Marshal(packet)
	if err != nil {
		return language.Program{}, err
	}
	text := strings.ReplaceAll(harness, "@@INPUT@@", strconv.Quote(payload))
	text = strings.ReplaceAll(text, "@@TEMPLATE@@", source)
	return language.Program{
		Files: []sandbox.File{
			{Name: "main.go", Data: []byte(text)},
			{Name: "go.mod", Data: []byte(goMod)},
		},
	}, nil
}

func (a *Adapter) Execute(ctx context.Context, scope *sandbox.Scope, prog language.Program) (wire.Result, error) {
	if _, err := scope.Stage(prog.Files...); err != nil {
		return wire.Result{}, err
	}
	args := append(append([]string{"run"}, a.desc.ExtraArgs...), ".")
	// The toolchain's own address-space use dwarfs the snippet's, so the
	// memory ceiling is not applied to the go run parent.
	limits := scope.Limits()
	limits.MaxMemory = 0
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
