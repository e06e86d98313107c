// Package runtime describes language runtimes: which interpreter or compiler
// binary runs a language, with what arguments, environment, and limits.
package runtime

import (
	"fmt"
	"strings"
)

// Language identifies a supported template language. The set is closed;
// each value maps to exactly one adapter implementation.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Go         Language = "go"
	Shell      Language = "shell"
)

// Languages lists every supported language in registration order.
func Languages() []Language {
	return []Language{Python, JavaScript, TypeScript, Go, Shell}
}

// Parse resolves a language name or common alias to a Language.
func Parse(name string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "python", "py":
		return Python, nil
	case "javascript", "js":
		return JavaScript, nil
	case "typescript", "ts":
		return TypeScript, nil
	case "go", "golang":
		return Go, nil
	case "shell", "sh", "bash":
		return Shell, nil
	default:
		return "", fmt.Errorf("unsupported language %q (supported: python, javascript, typescript, go, shell)", name)
	}
}

// String returns the canonical language name.
func (l Language) String() string { return string(l) }

// Extension maps a source file extension (with leading dot) to a Language.
func Extension(ext string) (Language, bool) {
	switch strings.ToLower(ext) {
	case ".py":
		return Python, true
	case ".js", ".mjs":
		return JavaScript, true
	case ".ts":
		return TypeScript, true
	case ".go":
		return Go, true
	case ".sh", ".bash":
		return Shell, true
	default:
		return "", false
	}
}
