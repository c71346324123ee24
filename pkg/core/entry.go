package core

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies a log entry by what produced it.
type Kind string

const (
	// KindDisplay is structured display output (rendered results, tables).
	KindDisplay Kind = "display"
	// KindStream is plain stream text (stdout, tailed lines, journal lines).
	KindStream Kind = "stream"
	// KindError is error output (stderr, tracebacks).
	KindError Kind = "error"
)

// Entry is a single log entry from a source. Immutable once appended.
type Entry struct {
	Source   string `json:"source"`
	TsUnixMs int64  `json:"ts_unix_ms"`
	Kind     Kind   `json:"kind"`
	Line     string `json:"line"`
}

// NewEntry stamps an entry with the current time.
func NewEntry(source string, kind Kind, line string) Entry {
	return Entry{
		Source:   source,
		TsUnixMs: time.Now().UnixMilli(),
		Kind:     kind,
		Line:     line,
	}
}

// SourceID constructs a source identifier from its components.
// Format: kind:name. The buffer and notification layers treat the
// result as opaque.
func SourceID(kind, name string) string {
	return fmt.Sprintf("%s:%s", kind, name)
}

// ParseSourceID splits a source identifier into kind and name.
func ParseSourceID(id string) (kind, name string, err error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid source ID %q: expected kind:name", id)
	}
	return parts[0], parts[1], nil
}
