package language

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

type fakeAdapter struct {
	lang runtime.Language
	desc runtime.Descriptor
}

func (f *fakeAdapter) Language() runtime.Language      { return f.lang }
func (f *fakeAdapter) Descriptor() runtime.Descriptor  { return f.desc }
func (f *fakeAdapter) Features() []string              { return []string{"fake"} }
func (f *fakeAdapter) Version() string                 { return "fake 1.0" }
func (f *fakeAdapter) Validate(context.Context, string) error { return nil }

func (f *fakeAdapter) Prepare(string, wire.Packet) (Program, error) {
	return Program{}, nil
}

func (f *fakeAdapter) Execute(context.Context, *sandbox.Scope, Program) (wire.Result, error) {
	return wire.Success(nil, "NoneType"), nil
}

func fakeFactory(constructed *int) Factory {
	return func(desc runtime.Descriptor, codec *wire.Codec) (Adapter, error) {
		if constructed != nil {
			*constructed++
		}
		return &fakeAdapter{lang: desc.Language, desc: desc}, nil
	}
}

func TestRegistryRegisterConflict(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(runtime.Python, fakeFactory(nil)); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(runtime.Python, fakeFactory(nil)); err == nil {
		t.Fatal("expected conflict on duplicate Register")
	}
	// Replace is the sanctioned override path.
	r.Replace(runtime.Python, fakeFactory(nil))
}

func TestRegistryGetCaches(t *testing.T) {
	r := NewRegistry(nil)
	var constructed int
	if err := r.Register(runtime.Python, fakeFactory(&constructed)); err != nil {
		t.Fatal(err)
	}
	desc, err := runtime.DefaultDescriptor(runtime.Python)
	if err != nil {
		t.Fatal(err)
	}

	a1, err := r.Get(runtime.Python, desc, wire.DefaultConfig())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	a2, err := r.Get(runtime.Python, desc, wire.DefaultConfig())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a1 != a2 {
		t.Error("expected cached adapter on identical key")
	}
	if constructed != 1 {
		t.Errorf("constructed %d times, want 1", constructed)
	}

	// A different descriptor is a different cache entry.
	other := desc
	other.Interpreter = "python3.12"
	if _, err := r.Get(runtime.Python, other, wire.DefaultConfig()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if constructed != 2 {
		t.Errorf("constructed %d times, want 2", constructed)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	r := NewRegistry(nil)
	desc, _ := runtime.DefaultDescriptor(runtime.Go)
	if _, err := r.Get(runtime.Go, desc, wire.DefaultConfig()); err == nil {
		t.Fatal("expected error for unregistered language")
	}
}

func TestRegistryUnavailablePropagates(t *testing.T) {
	r := NewRegistry(nil)
	want := &UnavailableError{Language: runtime.Shell, Interpreter: "bash", Err: errors.New("not found")}
	err := r.Register(runtime.Shell, func(runtime.Descriptor, *wire.Codec) (Adapter, error) {
		return nil, want
	})
	if err != nil {
		t.Fatal(err)
	}
	desc, _ := runtime.DefaultDescriptor(runtime.Shell)
	_, err = r.Get(runtime.Shell, desc, wire.DefaultConfig())
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UnavailableError, got %v", err)
	}
	if len(r.Available()) != 0 {
		t.Error("unavailable language reported as available")
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	r := NewRegistry(nil)
	var constructed int
	if err := r.Register(runtime.JavaScript, fakeFactory(&constructed)); err != nil {
		t.Fatal(err)
	}
	desc, _ := runtime.DefaultDescriptor(runtime.JavaScript)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Get(runtime.JavaScript, desc, wire.DefaultConfig()); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()
	if constructed != 1 {
		t.Errorf("constructed %d times under contention, want 1", constructed)
	}
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(runtime.Python, fakeFactory(nil)); err != nil {
		t.Fatal(err)
	}
	infos := r.Describe()
	if len(infos) != 1 {
		t.Fatalf("got %d infos, want 1", len(infos))
	}
	if !infos[0].Available || infos[0].Version != "fake 1.0" {
		t.Errorf("unexpected info: %+v", infos[0])
	}
}

func TestRegistryDescribeUnavailable(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(runtime.Shell, func(runtime.Descriptor, *wire.Codec) (Adapter, error) {
		return nil, &UnavailableError{
			Language:    runtime.Shell,
			Interpreter: "bash",
			Err:         errors.New("not found"),
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	infos := r.Describe()
	if len(infos) != 1 {
		t.Fatalf("got %d infos, want 1", len(infos))
	}
	info := infos[0]
	if info.Available {
		t.Error("unavailable language reported as available")
	}
	if len(info.Features) != 0 || info.Version != "" {
		t.Errorf("unavailable language should carry no capabilities: %+v", info)
	}
	if info.Detail == "" {
		t.Error("expected a detail explaining the unavailability")
	}
}

func TestInterpret(t *testing.T) {
	success := `{"__wumbo_result__": true, "data": 42, "type": "int"}`
	failure := `{"__wumbo_error__": true, "message": "boom", "name": "ValueError"}`

	tests := []struct {
		name     string
		out      sandbox.Output
		runErr   error
		wantOK   bool
		wantName string
	}{
		{"success packet", sandbox.Output{ExitCode: 0, Stdout: "noise\n" + success + "\n"}, nil, true, ""},
		{"zero exit without packet", sandbox.Output{ExitCode: 0, Stdout: "just prints\n"}, nil, false, FailProtocol},
		{"error packet on stderr", sandbox.Output{ExitCode: 1, Stderr: failure + "\n"}, nil, false, "ValueError"},
		{"bare nonzero exit", sandbox.Output{ExitCode: 2, Stderr: "segfault\n"}, nil, false, FailExecution},
		{"silent nonzero exit", sandbox.Output{ExitCode: 9}, nil, false, FailExecution},
		{"timeout", sandbox.Output{ExitCode: -1}, sandbox.ErrTimeout, false, FailTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Interpret(tt.out, tt.runErr)
			if res.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v", res.OK, tt.wantOK)
			}
			if !tt.wantOK && res.Failure.Name != tt.wantName {
				t.Errorf("failure name = %q, want %q", res.Failure.Name, tt.wantName)
			}
		})
	}
}
