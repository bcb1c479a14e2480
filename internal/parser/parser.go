package parser

import (
	"strconv"

	bulbaerrors "github.com/KimNorgaard/go-bulba/errors"
	"github.com/KimNorgaard/go-bulba/token"
	"github.com/KimNorgaard/go-bulba/value"
)

// DefaultMaxDepth bounds array nesting while parsing values.
const DefaultMaxDepth = 100

// section is an open map in the arena. Entries either hold a finished value
// or point at another section by arena index.
type section struct {
	keys    []string
	entries map[string]entry
}

type entry struct {
	child int // arena index of a nested section, or -1
	value *value.Value
}

func (s *section) set(key string, e entry) {
	if _, ok := s.entries[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = e
}

// Parser holds the state of the parser.
type Parser struct {
	tokens   []token.Token
	pos      int
	maxDepth int

	// arena[0] is the document root. stack holds arena indices of the
	// sections from the root to the innermost one accepting entries.
	arena  []*section
	stack  []int
	cursor int // indentation level of the most recent flat key
}

// Option configures a Parser.
type Option func(*Parser)

// MaxDepth sets the maximum array nesting depth. Values below 1 are ignored.
func MaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// New creates a new parser over a token stream produced by the lexer.
func New(tokens []token.Token, opts ...Option) *Parser {
	p := &Parser{tokens: tokens, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the document. The root is always a map. Parsing stops at the
// first structural violation and no partial document is returned.
func (p *Parser) Parse() (*value.Value, error) {
	p.pos = 0
	p.cursor = 0
	p.arena = []*section{newSection()}
	p.stack = []int{0}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		switch tok.Type {
		case token.EOF:
			return p.finish(), nil
		case token.INDENT:
			if err := p.parseLine(tok); err != nil {
				return nil, err
			}
		default:
			p.pos++
		}
	}
	return p.finish(), nil
}

// finish hands out the document and drops the parse-scoped arena.
func (p *Parser) finish() *value.Value {
	doc := p.materialize(0)
	p.arena, p.stack = nil, nil
	return doc
}

func newSection() *section {
	return &section{entries: make(map[string]entry)}
}

// The contract for the parse functions below is that they are entered with
// p.pos at the first token of the construct and return with p.pos just
// after it.

func (p *Parser) parseLine(indent token.Token) error {
	p.pos++ // consume INDENT
	next, ok := p.peek()
	if !ok {
		return nil
	}
	switch next.Type {
	case token.SECTION_OPEN:
		return p.parseSection(indent)
	case token.IDENT:
		return p.parseAssignment(indent)
	default:
		return bulbaerrors.New(bulbaerrors.ErrSyntax, next.Line, "unexpected %s at start of line", next.Type)
	}
}

func (p *Parser) parseSection(indent token.Token) error {
	open := p.tokens[p.pos]
	depth := open.Level
	if indent.Level != depth-1 {
		return bulbaerrors.New(bulbaerrors.ErrHierarchy, open.Line,
			"%s section indented %d levels, expected %d", open.Literal, indent.Level, depth-1)
	}
	if len(p.stack) < depth {
		return bulbaerrors.New(bulbaerrors.ErrBadges, open.Line,
			"depth %d section needs an open depth %d section", depth, depth-1)
	}
	p.pos++ // consume SECTION_OPEN

	key, err := p.expectKey()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.SECTION_CLOSE); err != nil {
		return err
	}

	p.stack = p.stack[:depth]
	idx := len(p.arena)
	p.arena = append(p.arena, newSection())
	p.current().set(key, entry{child: idx})
	p.stack = append(p.stack, idx)
	p.cursor = depth
	return nil
}

func (p *Parser) parseAssignment(indent token.Token) error {
	level := indent.Level
	if level > p.cursor {
		return bulbaerrors.New(bulbaerrors.ErrIndentation, p.tokens[p.pos].Line,
			"key indented %d levels inside a scope at level %d", level, p.cursor)
	}
	if level < p.cursor {
		p.stack = p.stack[:level+1]
		p.cursor = level
	}

	key, err := p.expectKey()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return err
	}
	v, err := p.parseValue(0)
	if err != nil {
		return err
	}
	p.current().set(key, entry{child: -1, value: v})
	return nil
}

func (p *Parser) parseValue(depth int) (*value.Value, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errEnd("value")
	}
	switch tok.Type {
	case token.STRING:
		p.pos++
		return value.String(tok.Literal), nil
	case token.NUMBER:
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, bulbaerrors.New(bulbaerrors.ErrType, tok.Line, "invalid number %q", tok.Literal)
		}
		p.pos++
		return value.Number(n), nil
	case token.BOOL:
		p.pos++
		return value.Bool(tok.Literal == "true"), nil
	case token.NULL:
		p.pos++
		return value.Null(), nil
	case token.ARRAY_START:
		return p.parseArray(depth + 1)
	default:
		return nil, bulbaerrors.New(bulbaerrors.ErrType, tok.Line, "expected a value, got %s", tok.Type)
	}
}

func (p *Parser) parseArray(depth int) (*value.Value, error) {
	start := p.tokens[p.pos]
	if depth > p.maxDepth {
		return nil, bulbaerrors.New(bulbaerrors.ErrSyntax, start.Line, "arrays nested deeper than %d", p.maxDepth)
	}
	p.pos++ // consume '<|'

	list := value.List()
	for {
		tok, ok := p.peek()
		if !ok || tok.Type == token.EOF {
			return nil, bulbaerrors.New(bulbaerrors.ErrSyntax, start.Line, "unterminated array")
		}
		switch tok.Type {
		case token.ARRAY_END:
			p.pos++
			return list, nil
		case token.COMMA:
			p.pos++
		default:
			elem, err := p.parseValue(depth)
			if err != nil {
				return nil, err
			}
			list.Append(elem)
		}
	}
}

// expectKey reads an IDENT token and rejects the reserved key.
func (p *Parser) expectKey() (string, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return "", err
	}
	if tok.Literal == token.ReservedKey {
		return "", bulbaerrors.New(bulbaerrors.ErrReservedKey, tok.Line, "%q cannot be used as a key", tok.Literal)
	}
	return tok.Literal, nil
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return token.Token{}, p.errEnd(string(t))
	}
	if tok.Type != t {
		return token.Token{}, bulbaerrors.New(bulbaerrors.ErrSyntax, tok.Line, "expected %s, got %s", t, tok.Type)
	}
	p.pos++
	return tok, nil
}

func (p *Parser) peek() (token.Token, bool) {
	if p.pos >= len(p.tokens) {
		return token.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *Parser) errEnd(want string) error {
	line := 0
	if n := len(p.tokens); n > 0 {
		line = p.tokens[n-1].Line
	}
	return bulbaerrors.New(bulbaerrors.ErrSyntax, line, "token stream ended, expected %s", want)
}

func (p *Parser) current() *section {
	return p.arena[p.stack[len(p.stack)-1]]
}

// materialize converts the arena section at idx into an owned value tree.
func (p *Parser) materialize(idx int) *value.Value {
	s := p.arena[idx]
	m := value.NewMap()
	for _, key := range s.keys {
		e := s.entries[key]
		if e.child >= 0 {
			m.Set(key, p.materialize(e.child))
		} else {
			m.Set(key, e.value)
		}
	}
	return m
}
