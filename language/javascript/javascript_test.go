package javascript

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
		"wumboArgs",
		"wumboKwargs",
		"wumboContext",
		"wumbo.success",
		"__wumbo_result__",
		"__wumbo_error__",
		"[WUMBO_LOG:",
		"executeTemplate",
	}
	for _, check := range checks {
		if !strings.Contains(harness, check) {
			t.Errorf("harness missing %q", check)
		}
	}
}

func TestJSLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`has "quotes"`, `"has \"quotes\""`},
		{"line\nbreak", `"line\nbreak"`},
	}
	for _, tt := range tests {
		if got := jsLiteral(tt.in); got != tt.want {
			t.Errorf("jsLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	desc, err := runtime.DefaultDescriptor(runtime.JavaScript)
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
			t.Skipf("node unavailable: %v", err)
		}
		t.Fatal(err)
	}
	return a
}

func TestPrepare(t *testing.T) {
	a := newTestAdapter(t)
	packet := wire.NewPacket([]any{1}, nil, wire.Context{TemplateName: "t", ExecutionID: "e"})
	prog, err := a.Prepare("wumbo.success(wumboArgs);", packet)
	if err != nil {
		t.Fatal(err)
	}
	text := string(prog.Files[0].Data)
	if strings.Contains(text, "@@") {
		t.Error("unexpanded placeholder in harness")
	}
	if !strings.Contains(text, "wumbo.success(wumboArgs);") {
		t.Error("template not spliced in")
	}
}

func TestValidate(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.Validate(ctx, "const x = wumboArgs.length; wumbo.success(x);"); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}
	if err := a.Validate(ctx, "const sum = await Promise.resolve(1);"); err != nil {
		t.Fatalf("await inside the wrapper rejected: %v", err)
	}

	err := a.Validate(ctx, "const = broken syntax here")
	var ve *language.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
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
	res := runTemplate(t, a, "wumbo.success(wumboArgs.map((x) => x * 2));", []any{1, 2, 3})
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
	res := runTemplate(t, a, `wumbo.error("nope");`, nil)
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Failure.Name != "WumboTemplateError" {
		t.Errorf("failure name = %q, want WumboTemplateError", res.Failure.Name)
	}
	if !strings.Contains(res.Failure.Message, "Wumbo Template Error: nope") {
		t.Errorf("failure message = %q", res.Failure.Message)
	}
	if res.Failure.Stack == "" {
		t.Error("expected a stack trace")
	}
}

func TestExecuteForeignErrorName(t *testing.T) {
	a := newTestAdapter(t)
	res := runTemplate(t, a, `throw new TypeError("bad type");`, nil)
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Failure.Name != "TypeError" {
		t.Errorf("failure name = %q, want TypeError", res.Failure.Name)
	}
}

func TestExecuteNoPacketIsProtocolError(t *testing.T) {
	a := newTestAdapter(t)
	res := runTemplate(t, a, `console.error("side effect only");`, nil)
	if res.OK || res.Failure.Name != language.FailProtocol {
		t.Fatalf("expected protocol failure, got %+v", res)
	}
}
