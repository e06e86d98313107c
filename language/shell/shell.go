// Package shell runs bash templates. Structured argument access inside the
// harness needs jq; without it the template still runs but WUMBO_ARGS stays
// empty.
package shell

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

//go:embed harness.sh
var harness string

const validateTimeout = 10 * time.Second

// Adapter implements language.Adapter for shell templates.
type Adapter struct {
	desc    runtime.Descriptor
	codec   *wire.Codec
	path    string
	jq      string // empty when not installed
	version string
}

// New probes bash and, best effort, jq.
func New(desc runtime.Descriptor, codec *wire.Codec) (*Adapter, error) {
	path, err := language.LookupInterpreter(desc)
	if err != nil {
		return nil, err
	}
	jq, jqErr := exec.LookPath("jq")
	if jqErr != nil {
		slog.Default().Warn("jq not found, shell templates run without parsed arguments",
			"interpreter", desc.Interpreter)
	}
	return &Adapter{
		desc:    desc,
		codec:   codec,
		path:    path,
		jq:      jq,
		version: language.ProbeVersion(path, "--version"),
	}, nil
}

// Factory adapts New to the registry's factory signature.
func Factory(desc runtime.Descriptor, codec *wire.Codec) (language.Adapter, error) {
	return New(desc, codec)
}

func (a *Adapter) Language() runtime.Language     { return runtime.Shell }
func (a *Adapter) Descriptor() runtime.Descriptor { return a.desc }
func (a *Adapter) Version() string                { return a.version }

func (a *Adapter) Features() []string {
	features := []string{
		"basic_execution",
		"command_execution",
		"pipe_support",
		"error_trapping",
	}
	if a.jq != "" {
		features = append(features, "json_argument_parsing")
	}
	return features
}

// Validate parses the harness-wrapped template with bash -n. Nothing is
// executed in no-exec mode.
func (a *Adapter) Validate(ctx context.Context, source string) error {
	prog, err := a.Prepare(source, wire.NewPacket(nil, nil, wire.Context{}))
	if err != nil {
		return err
	}
	out, err := sandbox.Run(ctx, sandbox.Command{
		Path:    a.path,
		Args:    []string{"-n"},
		Stdin:   string(prog.Files[0].Data),
		Env:     a.desc.Env,
		Timeout: validateTimeout,
	})
	if err != nil {
		return fmt.Errorf("shell validation: %w", err)
	}
	if out.ExitCode != 0 {
		return &language.ValidationError{
			Language: runtime.Shell,
			Detail:   strings.TrimSpace(out.Stderr),
		}
	}
	return nil
}

// Prepare embeds the packet in the harness inside single quotes and appends
// the template after the bindings.
func (a *Adapter) Prepare(source string, packet wire.Packet) (language.Program, error) {
	payload, err := a.codec.Marshal(packet)
	if err != nil {
		return language.Program{}, err
	}
	text := strings.ReplaceAll(harness, "@@INPUT@@", shellQuote(payload))
	text = strings.ReplaceAll(text, "@@TEMPLATE@@", source)
	return language.Program{
		Files: []sandbox.File{{Name: "template.sh", Mode: 0o755, Data: []byte(text)}},
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

// shellQuote escapes s for interpolation inside a single-quoted bash string.
func shellQuote(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}
