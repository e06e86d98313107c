// Package language defines the adapter contract implemented once per
// supported language, and the registry that caches adapter instances.
//
// An adapter knows three things about its language: how to syntax-check a
// snippet without running it, how to wrap a snippet in the harness that
// marshals the wire packet in and the wire result out, and how to read a
// finished subprocess's output back into a result.
package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

// Program is a generated harness ready for staging: one entry file plus any
// support files the toolchain needs (a go.mod, for instance).
type Program struct {
	Files []sandbox.File // Files[0] is the entry point
}

// Adapter executes templates for one language. Implementations are stateless
// beyond their construction-time runtime probe and are safe for concurrent
// use by any number of templates.
type Adapter interface {
	// Language returns the language this adapter serves.
	Language() runtime.Language

	// Descriptor returns the runtime configuration the adapter was built with.
	Descriptor() runtime.Descriptor

	// Validate syntax-checks source without executing it. A failure is a
	// *ValidationError.
	Validate(ctx context.Context, source string) error

	// Prepare wraps source in the language harness with the packet embedded
	// as a literal constant.
	Prepare(source string, packet wire.Packet) (Program, error)

	// Execute stages the program into the scope, runs it under the adapter's
	// runtime, and interprets the output as a wire result. Failures of the
	// foreign program are reported inside the result, not as an error.
	Execute(ctx context.Context, scope *sandbox.Scope, prog Program) (wire.Result, error)

	// Features reports a fixed capability list, for reporting only.
	Features() []string

	// Version reports the probed toolchain version, or "unknown".
	Version() string
}

// Factory constructs an adapter for a descriptor and codec. Construction
// fails with *UnavailableError when the toolchain is not on this host; that
// failure is the authoritative "language unavailable" signal.
type Factory func(desc runtime.Descriptor, codec *wire.Codec) (Adapter, error)

// Failure names an adapter assigns when normalizing terminal states that the
// foreign program did not report itself.
const (
	FailTimeout   = "TimeoutError"
	FailProtocol  = "ProtocolError"
	FailExecution = "ExecutionError"
)

// Interpret normalizes a finished execution into a wire result:
//
//	timeout            -> TimeoutError
//	zero exit + packet -> the packet
//	zero exit, no packet -> ProtocolError (never coerced into a success)
//	nonzero exit       -> the stderr error packet, or ExecutionError
//
// Harness log lines and raw stderr ride along as diagnostics on every
// outcome.
func Interpret(out sandbox.Output, runErr error) wire.Result {
	res := interpret(out, runErr)
	res.Logs = wire.LogLines(out.Stderr)
	res.Stderr = out.Stderr
	return res
}

func interpret(out sandbox.Output, runErr error) wire.Result {
	if runErr != nil {
		if errors.Is(runErr, sandbox.ErrTimeout) {
			return wire.Fail(FailTimeout, runErr.Error())
		}
		return wire.Fail(FailExecution, runErr.Error())
	}

	if out.ExitCode == 0 {
		if res, ok := wire.FromStdout(out.Stdout); ok {
			return res
		}
		return wire.Fail(FailProtocol, fmt.Sprintf(
			"no result packet on stdout (stdout: %s)", snippet(out.Stdout)))
	}

	if f, ok := wire.FailureFromStderr(out.Stderr); ok {
		return wire.Result{Failure: f}
	}
	msg := strings.TrimSpace(out.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("process exited with code %d", out.ExitCode)
	}
	return wire.Fail(FailExecution, msg)
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "…"
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
