package parser

import (
	"fmt"
	"strings"
)

// MalformedLineError describes one rejected input line. It is collected in an
// ErrorLog and never returned from Parse.
type MalformedLineError struct {
	Line   int // 1-based
	Raw    string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Raw)
}

// ErrorLog accumulates rejected lines in input order. A nil *ErrorLog is an
// empty log.
type ErrorLog struct {
	entries []*MalformedLineError
}

func (l *ErrorLog) add(line int, raw, reason string) *MalformedLineError {
	e := &MalformedLineError{Line: line, Raw: raw, Reason: reason}
	l.entries = append(l.entries, e)
	return e
}

// Len returns the number of entries.
func (l *ErrorLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of the entries.
func (l *ErrorLog) Entries() []*MalformedLineError {
	if l == nil {
		return nil
	}
	out := make([]*MalformedLineError, len(l.entries))
	copy(out, l.entries)
	return out
}

// String joins every entry, one per line.
func (l *ErrorLog) String() string {
	if l.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range l.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
