package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/sandbox"
	"github.com/wumbohq/wumbo/wire"
)

// mockAdapter implements language.Adapter for testing executor logic without
// spawning real interpreters. It echoes back whatever result it was
// configured with and records what it saw.
type mockAdapter struct {
	lang        runtime.Language
	desc        runtime.Descriptor
	result      wire.Result
	validateErr error
	executions  atomic.Int64

	mu         sync.Mutex
	lastPacket wire.Packet
}

func (m *mockAdapter) Language() runtime.Language     { return m.lang }
func (m *mockAdapter) Descriptor() runtime.Descriptor { return m.desc }
func (m *mockAdapter) Features() []string             { return []string{"mock"} }
func (m *mockAdapter) Version() string                { return "mock 1.0" }

func (m *mockAdapter) Validate(_ context.Context, source string) error {
	return m.validateErr
}

func (m *mockAdapter) Prepare(source string, packet wire.Packet) (language.Program, error) {
	m.mu.Lock()
	m.lastPacket = packet
	m.mu.Unlock()
	return language.Program{
		Files: []sandbox.File{{Name: "mock.txt", Data: []byte(source)}},
	}, nil
}

func (m *mockAdapter) packet() wire.Packet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPacket
}

func (m *mockAdapter) Execute(_ context.Context, scope *sandbox.Scope, _ language.Program) (wire.Result, error) {
	m.executions.Add(1)
	return m.result, nil
}

// mockRegistry binds the mock adapter to the Python slot so templates can be
// built through the normal path.
func mockRegistry(m *mockAdapter) *language.Registry {
	r := language.NewRegistry(nil)
	_ = r.Register(runtime.Python, func(desc runtime.Descriptor, _ *wire.Codec) (language.Adapter, error) {
		m.lang = runtime.Python
		m.desc = desc
		return m, nil
	})
	return r
}
