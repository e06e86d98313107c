package language

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/wumbohq/wumbo/runtime"
	"github.com/wumbohq/wumbo/wire"
)

// Registry maps languages to adapter factories and caches constructed
// adapters by (language, descriptor, codec config). Call sites construct a
// registry once and pass it by injection; there is no package-level default.
type Registry struct {
	mu        sync.Mutex
	factories map[runtime.Language]Factory
	cache     map[string]Adapter
	logger    *slog.Logger
}

// Info is a point-in-time report on one registered language.
type Info struct {
	Language    runtime.Language `json:"language"`
	Available   bool             `json:"available"`
	Interpreter string           `json:"interpreter"`
	Version     string           `json:"version,omitempty"`
	Features    []string         `json:"features,omitempty"`
	Detail      string           `json:"detail,omitempty"`
}

// NewRegistry returns an empty registry. A nil logger falls back to
// slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: make(map[runtime.Language]Factory),
		cache:     make(map[string]Adapter),
		logger:    logger,
	}
}

// Register binds a factory to a language. Registering a language twice is a
// conflict; use Replace to override deliberately.
func (r *Registry) Register(lang runtime.Language, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[lang]; ok {
		return fmt.Errorf("language %s already registered", lang)
	}
	r.factories[lang] = f
	return nil
}

// Replace binds a factory to a language, overriding any previous binding and
// dropping cached adapters built from it.
func (r *Registry) Replace(lang runtime.Language, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[lang] = f
	for key, a := range r.cache {
		if a.Language() == lang {
			delete(r.cache, key)
		}
	}
}

// Languages lists the registered languages in runtime order.
func (r *Registry) Languages() []runtime.Language {
	r.mu.Lock()
	defer r.mu.Unlock()
	var langs []runtime.Language
	for _, l := range runtime.Languages() {
		if _, ok := r.factories[l]; ok {
			langs = append(langs, l)
		}
	}
	return langs
}

// Get returns the cached adapter for the language, descriptor and codec
// configuration, constructing it on first use. Construction runs the
// availability probe, so a missing toolchain surfaces here as an
// *UnavailableError. The lock is held across construction so concurrent
// callers never probe the same runtime twice.
func (r *Registry) Get(lang runtime.Language, desc runtime.Descriptor, cfg wire.Config) (Adapter, error) {
	key := string(lang) + "|" + desc.Key() + "|" + cfg.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.cache[key]; ok {
		return a, nil
	}
	factory, ok := r.factories[lang]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for language %s", lang)
	}
	codec, err := wire.NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	a, err := factory(desc, codec)
	if err != nil {
		return nil, err
	}
	r.cache[key] = a
	r.logger.Debug("adapter constructed",
		"language", lang, "interpreter", desc.Interpreter, "version", a.Version())
	return a, nil
}

// Available reports which registered languages have a working toolchain on
// this host, probing each with its default descriptor.
func (r *Registry) Available() []runtime.Language {
	var langs []runtime.Language
	for _, l := range r.Languages() {
		desc, err := runtime.DefaultDescriptor(l)
		if err != nil {
			continue
		}
		if _, err := r.Get(l, desc, wire.DefaultConfig()); err == nil {
			langs = append(langs, l)
		}
	}
	return langs
}

// Describe reports per-language status for every registered language.
func (r *Registry) Describe() []Info {
	var infos []Info
	for _, l := range r.Languages() {
		desc, err := runtime.DefaultDescriptor(l)
		if err != nil {
			continue
		}
		info := Info{Language: l, Interpreter: desc.Interpreter}
		a, err := r.Get(l, desc, wire.DefaultConfig())
		if err != nil {
			info.Detail = err.Error()
		} else {
			info.Available = true
			info.Version = a.Version()
			info.Features = a.Features()
		}
		infos = append(infos, info)
	}
	return infos
}
