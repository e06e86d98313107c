// Package wumbo provides a multi-language template engine: snippets of
// Python, JavaScript, TypeScript, Go, or shell callable from Go with one
// calling convention.
//
// # Overview
//
// A template binds one source snippet to one language runtime. Construction
// probes the runtime and validates the snippet; calls hand arguments to the
// snippet through language-appropriate bindings and read the result back
// over a JSON wire protocol. Every call runs in its own private working
// directory with resource limits applied.
//
// # Basic Usage
//
//	tpl, err := executor.New(runtime.Python,
//	    `wumbo_success([x * 2 for x in wumbo_args])`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doubled, err := tpl.Call(ctx, 1, 2, 3)  // [2, 4, 6]
//
// # Configuring Executions
//
//	tpl, err := executor.New(runtime.Shell, `wumbo_success "$ARG1"`,
//	    executor.WithTimeout(10*time.Second),
//	    executor.WithMaxMemory(256<<20),
//	    executor.WithEnv(map[string]string{"LC_ALL": "C"}))
//
// Long-lived programs should build one adapter registry and share it:
//
//	registry := executor.DefaultRegistry(slog.Default())
//	tpl, err := executor.New(runtime.JavaScript, code,
//	    executor.WithRegistry(registry))
//
// See the [executor], [runtime], [wire], [sandbox], and language adapter
// packages for detailed API documentation.
package wumbo
