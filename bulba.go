package bulba

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/KimNorgaard/go-bulba/internal/formatter"
	"github.com/KimNorgaard/go-bulba/internal/lexer"
	"github.com/KimNorgaard/go-bulba/internal/parser"
	"github.com/KimNorgaard/go-bulba/token"
	"github.com/KimNorgaard/go-bulba/value"
)

// maxLineSize bounds a single source line read by ReadLines.
const maxLineSize = 1 << 20

// Marshaler is the interface implemented by types that
// can marshal themselves into valid BULBA.
//
// MarshalBULBA returns either a value literal such as `"text"` or
// `<| 1, 2 |>`, or a complete document starting with the header line,
// which stands for a map.
type Marshaler interface {
	MarshalBULBA() ([]byte, error)
}

// Unmarshaler is the interface implemented by types that can unmarshal a
// BULBA description of themselves. The input is a value literal, or a
// complete document when the value is a map.
type Unmarshaler interface {
	UnmarshalBULBA([]byte) error
}

// Marshal returns the BULBA encoding of v. The top-level value must encode
// as a map: a struct, a string-keyed map, or a *value.Value map.
func Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, opts...)
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the BULBA-encoded data and stores the result
// in the value pointed to by v.
func Unmarshal(data []byte, v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	doc, err := o.parse(data)
	if err != nil {
		return err
	}
	return decodeValue(doc, v, o)
}

// ReadLines splits r into lines without their terminators. A trailing
// carriage return is dropped, so CRLF input reads like LF input.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Lex tokenizes source lines. The token stream ends with an EOF token.
func Lex(lines []string, opts ...Option) ([]token.Token, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return lexer.New(lines, lexer.MaxDepth(o.maxDepth)).Lex()
}

// Parse builds the document tree from a token stream produced by Lex. The
// root of the returned tree is always a map.
func Parse(tokens []token.Token, opts ...Option) (*value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parser.New(tokens, parser.MaxDepth(o.maxDepth)).Parse()
}

// ParseBytes reads, tokenizes and parses a complete document.
func ParseBytes(data []byte, opts ...Option) (*value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return o.parse(data)
}

// ToCanonicalString returns the canonical `key: value` rendering of v.
func ToCanonicalString(v *value.Value) string {
	var sb strings.Builder
	_ = formatter.New(&sb).Canonical(v) // strings.Builder does not fail
	return sb.String()
}

func (o *options) parse(data []byte) (*value.Value, error) {
	lines, err := ReadLines(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.New(lines, lexer.MaxDepth(o.maxDepth)).Lex()
	if err != nil {
		return nil, err
	}
	return parser.New(tokens, parser.MaxDepth(o.maxDepth)).Parse()
}
