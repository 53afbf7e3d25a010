// Package position provides source location primitives shared by every
// stage of the resource verifier. Positions are 1-based for both line and
// column, matching what editors display; a zero Position is invalid and
// marks synthesized nodes that have no textual origin.
package position

import "fmt"

// Position represents a single point in a source file.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// NewPosition creates a position with line/column information.
func NewPosition(filename string, line, column int) Position {
	return Position{Filename: filename, Line: line, Column: column}
}

// IsValid reports whether the position carries real location data.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// String returns a human-readable form such as "main.aeth:3:14".
func (p Position) String() string {
	if !p.IsValid() {
		return "<unknown>"
	}
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Before reports whether p occurs strictly before other in the same file.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// After reports whether p occurs strictly after other in the same file.
func (p Position) After(other Position) bool {
	return other.Before(p)
}

// Span represents a contiguous region of source text.
type Span struct {
	Start Position
	End   Position
}

// NewSpan creates a span from start to end.
func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// PointSpan creates a zero-width span at a single position.
func PointSpan(p Position) Span {
	return Span{Start: p, End: p}
}

// IsValid reports whether both endpoints carry real location data.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid()
}

// String returns a compact rendering. Single-line spans collapse to
// "file:line:col-col"; multi-line spans show both endpoints.
func (s Span) String() string {
	if !s.IsValid() {
		return "<unknown>"
	}
	if s.Start.Line == s.End.Line {
		if s.Start.Column == s.End.Column {
			return s.Start.String()
		}
		return fmt.Sprintf("%s-%d", s.Start.String(), s.End.Column)
	}
	return fmt.Sprintf("%s-%d:%d", s.Start.String(), s.End.Line, s.End.Column)
}

// Contains reports whether the position falls inside the span, inclusive
// of both endpoints.
func (s Span) Contains(p Position) bool {
	if p.Before(s.Start) || p.After(s.End) {
		return false
	}
	return true
}

// Union returns the smallest span covering both s and other. An invalid
// operand is ignored so partially synthesized nodes still merge cleanly.
func (s Span) Union(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	out := s
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if other.End.After(out.End) {
		out.End = other.End
	}
	return out
}
