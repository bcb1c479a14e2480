package errors

import "fmt"

// Kind classifies a lexing or parsing failure. Every Kind is itself an error,
// so the constants below double as sentinels for errors.Is.
type Kind int

const (
	ErrHeader      Kind = iota + 1 // first line is not the header
	ErrTab                         // tab character in a line
	ErrIndentation                 // leading spaces not a multiple of 4, or a flat key indented too deep
	ErrHierarchy                   // section indentation does not match its depth
	ErrBadges                      // section depth without enough open ancestors
	ErrReservedKey                 // key equal to the reserved keyword
	ErrSyntax                      // malformed line or missing structural token
	ErrType                        // value that is not a recognized literal
)

var messages = map[Kind]string{
	ErrHeader:      "Status: Fainted",
	ErrTab:         "Poison Type: Tab character detected",
	ErrIndentation: "The attack missed!",
	ErrHierarchy:   "The attack missed! Evolution must happen one stage at a time",
	ErrBadges:      "Not enough badges!",
	ErrReservedKey: "It burns the bulb",
	ErrSyntax:      "It hurt itself in its confusion!",
	ErrType:        "Target is immune!",
}

func (k Kind) Error() string {
	if msg, ok := messages[k]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error kind %d", int(k))
}

// Error is a failure at a specific source line. Line is 0 when unknown.
type Error struct {
	Kind   Kind
	Line   int
	Detail string
}

// New returns an Error of the given kind at line.
func New(kind Kind, line int, format string, args ...any) *Error {
	e := &Error{Kind: kind, Line: line}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		return fmt.Sprintf("bulba: line %d: %s", e.Line, msg)
	}
	return "bulba: " + msg
}

func (e *Error) Unwrap() error { return e.Kind }
