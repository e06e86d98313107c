package wire

import (
	"encoding/json"
	"strings"
)

// LogPrefix marks harness log lines on standard error. Log lines are
// diagnostics; they are never part of the result packet.
const LogPrefix = "[WUMBO_LOG:"

// Result is the output side of the wire protocol: exactly one of a success
// value or a failure.
type Result struct {
	OK      bool
	Data    any
	Type    string // declared type name from the foreign language
	Failure *Failure

	// Diagnostics, attached on every outcome.
	Logs   []string // harness log lines from standard error
	Stderr string   // raw standard error
}

// Failure describes a template error in a language-neutral form.
type Failure struct {
	Name    string
	Message string
	Stack   string
}

// Success builds a success result.
func Success(data any, typeName string) Result {
	return Result{OK: true, Data: data, Type: typeName}
}

// Fail builds a failure result.
func Fail(name, message string) Result {
	return Result{Failure: &Failure{Name: name, Message: message}}
}

type successPacket struct {
	Marker bool   `json:"__wumbo_result__"`
	Data   any    `json:"data"`
	Type   string `json:"type"`
}

type errorPacket struct {
	Marker  bool   `json:"__wumbo_error__"`
	Message string `json:"message"`
	Name    string `json:"name"`
	Stack   string `json:"stack"`
}

// ParseSuccess decodes one line as a success packet.
func ParseSuccess(line string) (Result, bool) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, `"__wumbo_result__"`) {
		return Result{}, false
	}
	var pkt successPacket
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&pkt); err != nil || !pkt.Marker {
		return Result{}, false
	}
	return Result{OK: true, Data: normalizeNumbers(pkt.Data), Type: pkt.Type}, true
}

// ParseFailure decodes one line as an error packet.
func ParseFailure(line string) (*Failure, bool) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, `"__wumbo_error__"`) {
		return nil, false
	}
	var pkt errorPacket
	if err := json.Unmarshal([]byte(line), &pkt); err != nil || !pkt.Marker {
		return nil, false
	}
	return &Failure{Name: pkt.Name, Message: pkt.Message, Stack: pkt.Stack}, true
}

// FromStdout interprets the final non-empty line of standard output as a
// success packet.
func FromStdout(stdout string) (Result, bool) {
	line := lastNonEmptyLine(stdout)
	if line == "" {
		return Result{}, false
	}
	return ParseSuccess(line)
}

// FailureFromStderr scans standard error from the end for an error packet,
// skipping log lines and stray diagnostics.
func FailureFromStderr(stderr string) (*Failure, bool) {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if f, ok := ParseFailure(lines[i]); ok {
			return f, true
		}
	}
	return nil, false
}

// LogLines extracts harness log lines from standard error.
func LogLines(stderr string) []string {
	var out []string
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), LogPrefix) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
