package wire

import (
	"reflect"
	"testing"
)

func mustCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"null", nil},
		{"int", int64(42)},
		{"float", 3.25},
		{"string", "hello"},
		{"bool", true},
		{"list", []any{int64(1), int64(2), int64(3)}},
		{"nested", map[string]any{
			"a": []any{int64(1), "two", 3.5},
			"b": map[string]any{"c": nil, "d": false},
		}},
	}

	c := mustCodec(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := c.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := c.Unmarshal(text)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tt.v) {
				t.Errorf("round trip = %#v, want %#v", got, tt.v)
			}
		})
	}
}

func TestMarshalFallback(t *testing.T) {
	c := mustCodec(t)

	// channels have no JSON representation; the codec must stringify rather
	// than fail.
	text, err := c.Marshal(map[string]any{"ch": make(chan int)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := c.Unmarshal(text)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map", got)
	}
	if _, ok := m["ch"].(string); !ok {
		t.Errorf("fallback did not stringify: %#v", m["ch"])
	}
}

func TestMarshalHook(t *testing.T) {
	type point struct{ X, Y int }
	cfg := DefaultConfig()
	cfg.Hooks = append(cfg.Hooks, func(v any) (any, bool) {
		if fn, ok := v.(func() point); ok {
			p := fn()
			return map[string]any{"x": p.X, "y": p.Y}, true
		}
		return nil, false
	})
	c, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	text, err := c.Marshal(func() point { return point{1, 2} })
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := c.Unmarshal(text)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{"x": int64(1), "y": int64(2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("hook output = %#v, want %#v", got, want)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := NewCodec(Config{Format: "msgpack"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseSuccess(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantOK bool
		data   any
	}{
		{"valid", `{"__wumbo_result__": true, "data": [2,4,6], "type": "list"}`, true, []any{int64(2), int64(4), int64(6)}},
		{"marker false", `{"__wumbo_result__": false, "data": 1}`, false, nil},
		{"plain output", `hello world`, false, nil},
		{"plain json", `{"data": 1}`, false, nil},
		{"not json", `{"__wumbo_result__": tru`, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := ParseSuccess(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(res.Data, tt.data) {
				t.Errorf("data = %#v, want %#v", res.Data, tt.data)
			}
		})
	}
}

func TestFromStdoutFinalLine(t *testing.T) {
	stdout := "debug noise\nmore noise\n{\"__wumbo_result__\": true, \"data\": 7, \"type\": \"int\"}\n"
	res, ok := FromStdout(stdout)
	if !ok {
		t.Fatal("expected a result packet")
	}
	if res.Data != int64(7) {
		t.Errorf("data = %#v, want 7", res.Data)
	}

	// a packet buried before ordinary output does not count: only the final
	// line is the wire result
	stdout = "{\"__wumbo_result__\": true, \"data\": 7, \"type\": \"int\"}\ntrailing output\n"
	if _, ok := FromStdout(stdout); ok {
		t.Error("packet on a non-final line must not be recognized")
	}
}

func TestFailureFromStderr(t *testing.T) {
	stderr := "[WUMBO_LOG:INFO] starting\n" +
		`{"__wumbo_error__": true, "message": "Wumbo Template Error: boom", "name": "WumboTemplateError"}` + "\n"
	f, ok := FailureFromStderr(stderr)
	if !ok {
		t.Fatal("expected an error packet")
	}
	if f.Name != "WumboTemplateError" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Message != "Wumbo Template Error: boom" {
		t.Errorf("message = %q", f.Message)
	}

	if _, ok := FailureFromStderr("ordinary stderr garbage"); ok {
		t.Error("plain stderr must not parse as an error packet")
	}
}

func TestLogLines(t *testing.T) {
	stderr := "[WUMBO_LOG:INFO] one\nnoise\n[WUMBO_LOG:ERROR] two\n"
	got := LogLines(stderr)
	if len(got) != 2 || got[0] != "[WUMBO_LOG:INFO] one" || got[1] != "[WUMBO_LOG:ERROR] two" {
		t.Errorf("LogLines = %#v", got)
	}
}

func TestNewPacketNormalizes(t *testing.T) {
	p := NewPacket(nil, nil, Context{TemplateName: "t", ExecutionID: "x"})
	if p.Args == nil || p.Kwargs == nil || p.Context.Metadata == nil {
		t.Error("NewPacket left nil collections")
	}
}
