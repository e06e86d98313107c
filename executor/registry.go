package executor

import (
	"log/slog"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/language/golang"
	"github.com/wumbohq/wumbo/language/javascript"
	"github.com/wumbohq/wumbo/language/python"
	"github.com/wumbohq/wumbo/language/shell"
	"github.com/wumbohq/wumbo/language/typescript"
	"github.com/wumbohq/wumbo/runtime"
)

// DefaultRegistry returns a registry with every supported language bound to
// its adapter. Long-lived callers should build one and share it across
// templates so runtime probes happen once.
func DefaultRegistry(logger *slog.Logger) *language.Registry {
	r := language.NewRegistry(logger)
	// Register cannot conflict on a fresh registry.
	_ = r.Register(runtime.Python, python.Factory)
	_ = r.Register(runtime.JavaScript, javascript.Factory)
	_ = r.Register(runtime.TypeScript, typescript.Factory)
	_ = r.Register(runtime.Go, golang.Factory)
	_ = r.Register(runtime.Shell, shell.Factory)
	return r
}
