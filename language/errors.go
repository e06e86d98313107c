package language

import (
	"fmt"

	"github.com/wumbohq/wumbo/runtime"
)

// UnavailableError reports that a language's toolchain cannot be used on
// this host. It is returned from adapter construction, never from Execute.
type UnavailableError struct {
	Language    runtime.Language
	Interpreter string
	Err         error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s runtime unavailable: %q: %v", e.Language, e.Interpreter, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ValidationError reports that a snippet failed the language's syntax or
// security check. The snippet was not executed.
type ValidationError struct {
	Language runtime.Language
	Detail   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Language, e.Detail)
}
