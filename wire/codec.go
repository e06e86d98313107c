package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Hook converts a value with no native JSON representation into one that has.
// It reports false when the value is not its concern.
type Hook func(v any) (any, bool)

// Config describes how values are serialized across the process boundary.
// Only JSON is supported; the zero value is not usable, call DefaultConfig.
type Config struct {
	Format   string // "json"
	Encoding string // "utf-8"
	Hooks    []Hook // tried in order before the generic fallback
}

// DefaultConfig returns the standard JSON/UTF-8 configuration.
func DefaultConfig() Config {
	return Config{Format: "json", Encoding: "utf-8"}
}

// Key returns a cache identity for the config. Hooks are keyed by count only;
// callers that vary hook behavior should use distinct registries.
func (c Config) Key() string {
	return fmt.Sprintf("%s|%s|%d", c.Format, c.Encoding, len(c.Hooks))
}

// Codec serializes framework values to wire text and back.
type Codec struct {
	cfg Config
}

// NewCodec validates the config and returns a codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Format != "json" {
		return nil, fmt.Errorf("unsupported serialization format %q", cfg.Format)
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "utf-8"
	}
	return &Codec{cfg: cfg}, nil
}

// Config returns the codec's configuration.
func (c *Codec) Config() Config { return c.cfg }

// Marshal serializes a value to wire text. Values without a native JSON
// representation fall back to the configured hooks and finally to their
// string form, so serialization never fails on an exotic value alone.
func (c *Codec) Marshal(v any) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		buf.Reset()
		projected := c.project(v)
		if err := enc.Encode(projected); err != nil {
			return "", fmt.Errorf("marshal wire value: %w", err)
		}
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Unmarshal deserializes wire text into a generic value.
func (c *Codec) Unmarshal(text string) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unmarshal wire value: %w", err)
	}
	return normalizeNumbers(v), nil
}

// project replaces unmarshalable values with hook output or a string form,
// recursing through maps, slices, and arrays.
func (c *Codec) project(v any) any {
	if v == nil {
		return nil
	}
	if _, err := json.Marshal(v); err == nil {
		return v
	}
	for _, hook := range c.cfg.Hooks {
		if out, ok := hook(v); ok {
			return c.project(out)
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = c.project(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = c.project(rv.Index(i).Interface())
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return c.project(rv.Elem().Interface())
	default:
		return fmt.Sprint(v)
	}
}

// normalizeNumbers converts json.Number leaves to int64 where exact, float64
// otherwise, so round-tripped values compare naturally.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}
