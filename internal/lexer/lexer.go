package lexer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	bulbaerrors "github.com/KimNorgaard/go-bulba/errors"
	"github.com/KimNorgaard/go-bulba/token"
)

// DefaultMaxDepth bounds array nesting inside a single value.
const DefaultMaxDepth = 100

// keyValue matches `key ~~~> value`. The value group is tokenized separately.
var keyValue = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*~+>\s*(.*)$`)

// Lexer holds the state for tokenizing BULBA source lines.
type Lexer struct {
	lines    []string
	tokens   []token.Token
	line     int
	maxDepth int
}

// Option configures a Lexer.
type Option func(*Lexer)

// MaxDepth sets the maximum array nesting depth. Values below 1 are ignored.
func MaxDepth(n int) Option {
	return func(l *Lexer) {
		if n > 0 {
			l.maxDepth = n
		}
	}
}

// New creates a Lexer over lines. Lines must not contain their terminators.
func New(lines []string, opts ...Option) *Lexer {
	l := &Lexer{lines: lines, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lex tokenizes every line and returns the token stream, terminated by EOF.
// It stops at the first offending line.
func (l *Lexer) Lex() ([]token.Token, error) {
	if len(l.lines) == 0 {
		return nil, bulbaerrors.New(bulbaerrors.ErrHeader, 0, "empty document")
	}
	l.tokens = make([]token.Token, 0, len(l.lines)*4)
	for i, raw := range l.lines {
		l.line = i + 1
		if i == 0 {
			if raw != token.Header {
				return nil, bulbaerrors.New(bulbaerrors.ErrHeader, l.line, "expected %q, got %q", token.Header, raw)
			}
			l.emit(token.HEADER, raw, 0)
			continue
		}
		if err := l.lexLine(raw); err != nil {
			return nil, err
		}
	}
	l.emit(token.EOF, "", 0)
	return l.tokens, nil
}

func (l *Lexer) emit(typ token.Type, literal string, level int) {
	l.tokens = append(l.tokens, token.Token{Type: typ, Literal: literal, Line: l.line, Level: level})
}

func (l *Lexer) lexLine(line string) error {
	if idx := strings.Index(line, token.CommentMarker); idx >= 0 {
		line = line[:idx]
	}
	if strings.ContainsRune(line, '\t') {
		return bulbaerrors.New(bulbaerrors.ErrTab, l.line, "")
	}
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if line == "" {
		return nil
	}

	// Every leading whitespace character counts by its encoded width.
	indent := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
	if indent%token.IndentWidth != 0 {
		return bulbaerrors.New(bulbaerrors.ErrIndentation, l.line, "%d bytes of leading whitespace is not a multiple of %d", indent, token.IndentWidth)
	}
	l.emit(token.INDENT, "", indent/token.IndentWidth)

	content := strings.TrimSpace(line)
	if l.lexSection(content) {
		return nil
	}
	m := keyValue.FindStringSubmatch(content)
	if m == nil {
		return bulbaerrors.New(bulbaerrors.ErrSyntax, l.line, "cannot read %q", content)
	}
	l.emit(token.IDENT, m[1], 0)
	l.emit(token.ASSIGN, "", 0)
	return l.lexValue(strings.TrimSpace(m[2]), 0)
}

// lexSection emits the three tokens of a section header and reports whether
// content was one.
func (l *Lexer) lexSection(content string) bool {
	const width = 4 // bracket plus one space on each side
	if len(content) < 2*width {
		return false
	}
	depth, ok := token.SectionDepth(content[:width-1])
	if !ok || content[width-1] != ' ' {
		return false
	}
	bracket, _ := token.SectionBracket(depth)
	if !strings.HasSuffix(content, " "+bracket) {
		return false
	}
	l.emit(token.SECTION_OPEN, bracket, depth)
	l.emit(token.IDENT, content[width:len(content)-width], 0)
	l.emit(token.SECTION_CLOSE, bracket, depth)
	return true
}

// lexValue tokenizes a trimmed value. depth is the array nesting so far.
func (l *Lexer) lexValue(text string, depth int) error {
	if text == "" {
		return nil
	}

	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		l.emit(token.STRING, text[1:len(text)-1], 0)
		return nil
	}

	if typ, lit, ok := token.LookupLiteral(text); ok {
		l.emit(typ, lit, 0)
		return nil
	}

	if len(text) >= 4 && strings.HasPrefix(text, token.ArrayOpen) && strings.HasSuffix(text, token.ArrayClose) {
		return l.lexArray(text[2:len(text)-2], depth+1)
	}

	if isDecimal(text) {
		l.emit(token.NUMBER, text, 0)
		return nil
	}

	return bulbaerrors.New(bulbaerrors.ErrType, l.line, "unknown value %q", text)
}

func (l *Lexer) lexArray(inner string, depth int) error {
	if depth > l.maxDepth {
		return bulbaerrors.New(bulbaerrors.ErrSyntax, l.line, "arrays nested deeper than %d", l.maxDepth)
	}
	l.emit(token.ARRAY_START, token.ArrayOpen, 0)
	if inner = strings.TrimSpace(inner); inner != "" {
		for i, elem := range token.SplitElements(inner) {
			if i > 0 {
				l.emit(token.COMMA, token.Separator, 0)
			}
			if err := l.lexValue(strings.TrimSpace(elem), depth); err != nil {
				return err
			}
		}
	}
	l.emit(token.ARRAY_END, token.ArrayClose, 0)
	return nil
}

// isDecimal reports whether text is a decimal float literal, including inf
// and NaN. strconv.ParseFloat also reads hex floats and digit separators,
// which are not numbers here.
func isDecimal(text string) bool {
	digits := strings.TrimLeft(text, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") || strings.Contains(text, "_") {
		return false
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}
