package diag

import (
	"fmt"
	"io"
	"strings"
)

// Level classifies a diagnostic message.
type Level int

const (
	Note Level = iota
	Warning
	Error
)

// String renders the level the way every phase's printer expects it.
func (l Level) String() string {
	switch l {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Message is a single leveled diagnostic, optionally located and optionally
// carrying a short machine-readable code (e.g. "E0042") for tooling.
type Message struct {
	Level    Level
	Location *Location // nil when the message has no associated position
	Text     string
	Code     string
}

// note/warn/error builders mirror the level names so call sites read like
// "messages.Append(diag.Errorf(loc, "unknown symbol %q", name))".

// Errorf builds an Error-level message at loc.
func Errorf(loc Location, format string, args ...any) Message {
	return Message{Level: Error, Location: &loc, Text: fmt.Sprintf(format, args...)}
}

// Warnf builds a Warning-level message at loc.
func Warnf(loc Location, format string, args ...any) Message {
	return Message{Level: Warning, Location: &loc, Text: fmt.Sprintf(format, args...)}
}

// Notef builds a Note-level message at loc. Notes are meant to follow an
// Error or Warning to add context, e.g. "previous declaration here".
func Notef(loc Location, format string, args ...any) Message {
	return Message{Level: Note, Location: &loc, Text: fmt.Sprintf(format, args...)}
}

// String renders "level [path:line]: text" or "level: text" if unlocated,
// appending " [code]" when a code is set.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Level.String())
	if m.Location != nil {
		b.WriteString(" ")
		b.WriteString(m.Location.String())
	}
	b.WriteString(": ")
	b.WriteString(m.Text)
	if m.Code != "" {
		b.WriteString(" [")
		b.WriteString(m.Code)
		b.WriteString("]")
	}
	return b.String()
}

// List is an ordered collection of diagnostics. It is the single channel by
// which every pipeline phase reports problems; a phase signals failure by
// appending an Error-level message and the driver checks HasError.
type List struct {
	items []Message
}

// Append records one or more messages, preserving call order.
func (l *List) Append(msgs ...Message) {
	l.items = append(l.items, msgs...)
}

// Error appends an Error-level message at loc. Convenience wrapper.
func (l *List) Error(loc Location, format string, args ...any) {
	l.Append(Errorf(loc, format, args...))
}

// Warn appends a Warning-level message at loc.
func (l *List) Warn(loc Location, format string, args ...any) {
	l.Append(Warnf(loc, format, args...))
}

// Note appends a Note-level message at loc.
func (l *List) Note(loc Location, format string, args ...any) {
	l.Append(Notef(loc, format, args...))
}

// HasError reports whether any Error-level message has been recorded.
func (l *List) HasError() bool {
	for _, m := range l.items {
		if m.Level == Error {
			return true
		}
	}
	return false
}

// Items returns the messages in insertion order. The slice is owned by the
// caller; mutating it does not affect the list.
func (l *List) Items() []Message {
	out := make([]Message, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of recorded messages.
func (l *List) Len() int { return len(l.items) }

// Truncate discards every message after the first n, for a caller
// that speculatively parses ahead (trying one grammar production before
// falling back to another) and needs to undo any errors the abandoned
// attempt logged.
func (l *List) Truncate(n int) {
	l.items = l.items[:n]
}

// Merge appends another list's messages onto this one, preserving the other
// list's internal order.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

// Print writes every message to w, one per line, in insertion order.
func (l *List) Print(w io.Writer) {
	for _, m := range l.items {
		fmt.Fprintln(w, m.String())
	}
}
