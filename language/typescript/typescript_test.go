package typescript

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

func TestHarnessContents(t *testing.T) {
	checks := []string{
		"interface WumboInput",
		"interface WumboAPI",
		"wumboArgs",
		"wumbo.success",
		"__wumbo_result__",
		"__wumbo_error__",
		"[WUMBO_LOG:",
	}
	for _, check := range checks {
		if !strings.Contains(harness, check) {
			t.Errorf("harness missing %q", check)
		}
	}
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	desc, err := runtime.DefaultDescriptor(runtime.TypeScript)
	if err != nil {
		t.Fatal(err)
	}
	codec, err := wire.NewCodec(wire.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(desc, codec)
	if err != nil {
		var ue *language.UnavailableError
		if errors.As(err, &ue) {
			t.Skipf("typescript toolchain unavailable: %v", err)
		}
		t.Fatal(err)
	}
	return a
}

func TestPrepare(t *testing.T) {
	a := newTestAdapter(t)
	packet := wire.NewPacket([]any{"x"}, nil, wire.Context{TemplateName: "t", ExecutionID: "e"})
	prog, err := a.Prepare("wumbo.success(wumboArgs);", packet)
	if err != nil {
		t.Fatal(err)
	}
	if prog.Files[0].Name != "template.ts" {
		t.Fatalf("entry = %q", prog.Files[0].Name)
	}
	text := string(prog.Files[0].Data)
	if strings.Contains(text, "@@") {
		t.Error("unexpanded placeholder in harness")
	}
}

func TestValidate(t *testing.T) {
	a := newTestAdapter(t)
	if a.tsc == "" {
		t.Skip("tsc not installed, validation is a no-op")
	}
	ctx := context.Background()

	if err := a.Validate(ctx, "const total: number = wumboArgs.length; wumbo.success(total);"); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	err := a.Validate(ctx, `const n: number = "not a number";`)
	var ve *language.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError for type mismatch, got %v", err)
	}
}

func runTemplate(t *testing.T, a *Adapter, source string, args []any) wire.Result {
	t.Helper()
	packet := wire.NewPacket(args, nil, wire.Context{TemplateName: "test", ExecutionID: "t1"})
	prog, err := a.Prepare(source, packet)
	if err != nil {
		t.Fatal(err)
	}
	scope, err := sandbox.Enter(runtime.NewEnvironment(a.Descriptor()), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer scope.Close()
	res, err := a.Execute(context.Background(), scope, prog)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestExecuteSuccess(t *testing.T) {
	a := newTestAdapter(t)
	res := runTemplate(t, a, "wumbo.success(wumboArgs.map((x: number) => x * 2));", []any{1, 2, 3})
	if !res.OK {
		t.Fatalf("expected success, got %+v", res.Failure)
	}
	want := []any{int64(2), int64(4), int64(6)}
	if !reflect.DeepEqual(res.Data, want) {
		t.Errorf("data = %#v, want %#v", res.Data, want)
	}
}

func TestExecuteTemplateError(t *testing.T) {
	a := newTestAdapter(t)
	res := runTemplate(t, a, `wumbo.error("broken");`, nil)
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Failure.Name != "WumboTemplateError" {
		t.Errorf("failure name = %q, want WumboTemplateError", res.Failure.Name)
	}
	if !strings.Contains(res.Failure.Message, "Wumbo Template Error: broken") {
		t.Errorf("failure message = %q", res.Failure.Message)
	}
}

func TestValidateWithoutTscIsNoOp(t *testing.T) {
	desc, err := runtime.DefaultDescriptor(runtime.TypeScript)
	if err != nil {
		t.Fatal(err)
	}
	codec, err := wire.NewCodec(wire.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	a := &Adapter{desc: desc, codec: codec, node: "node", tsnode: "ts-node"}
	if err := a.Validate(context.Background(), "not even typescript ((("); err != nil {
		t.Fatalf("validation without tsc must pass: %v", err)
	}
}

func TestNodeEnvHeapCeiling(t *testing.T) {
	base := map[string]string{"NODE_ENV": "production"}

	env := nodeEnv(base, runtime.ResourceLimits{MaxMemory: 512 << 20})
	if env["NODE_OPTIONS"] != "--max-old-space-size=512" {
		t.Errorf("NODE_OPTIONS = %q", env["NODE_OPTIONS"])
	}
	if env["NODE_ENV"] != "production" {
		t.Error("base environment not preserved")
	}

	if got := nodeEnv(base, runtime.ResourceLimits{}); got["NODE_OPTIONS"] != "" {
		t.Errorf("no limit should add no NODE_OPTIONS, got %q", got["NODE_OPTIONS"])
	}
}
