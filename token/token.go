package token

import (
	"fmt"
	"strings"
)

// Type is the type of a token.
type Type string

// Token represents a lexical token.
type Token struct {
	Type    Type
	Literal string
	Line    int
	// Level is the indentation depth for INDENT and the declared hierarchy
	// depth for SECTION_OPEN and SECTION_CLOSE. It is 0 for everything else.
	Level int
}

const (
	// Structure
	HEADER        Type = "HEADER"        // BULBA!
	INDENT        Type = "INDENT"        // leading whitespace of a line, Level = width/4
	SECTION_OPEN  Type = "SECTION_OPEN"  // (o) (O) (@)
	SECTION_CLOSE Type = "SECTION_CLOSE" // (o) (O) (@)
	EOF           Type = "EOF"

	// Keys and operators
	IDENT  Type = "IDENT"  // app_name
	ASSIGN Type = "ASSIGN" // ~~~>

	// Literals
	STRING Type = "STRING" // "Pokedex_API"
	NUMBER Type = "NUMBER" // 1.5
	BOOL   Type = "BOOL"   // SuperEffective, NotVeryEffective
	NULL   Type = "NULL"   // MissingNo

	// Delimiters
	ARRAY_START Type = "<|"
	ARRAY_END   Type = "|>"
	COMMA       Type = ","
)

// Fixed vocabulary of the format.
const (
	Header        = "BULBA!"
	CommentMarker = "zZz"
	Assign        = "~~>" // written form; the lexer accepts any run of '~'
	True          = "SuperEffective"
	False         = "NotVeryEffective"
	Null          = "MissingNo"
	ReservedKey   = "Charizard"
	ArrayOpen     = "<|"
	ArrayClose    = "|>"
	Separator     = ","
	IndentWidth   = 4
	MaxSection    = 3
)

// sectionBrackets maps a section depth to its bracket.
var sectionBrackets = [MaxSection + 1]string{"", "(o)", "(O)", "(@)"}

var keywords = map[string]Token{
	True:  {Type: BOOL, Literal: "true"},
	False: {Type: BOOL, Literal: "false"},
	Null:  {Type: NULL},
}

// LookupLiteral checks the keyword table for a bare value literal.
// It returns the token type and normalized literal for a keyword,
// and false if the text is not a keyword.
func LookupLiteral(text string) (Type, string, bool) {
	if tok, ok := keywords[text]; ok {
		return tok.Type, tok.Literal, true
	}
	return "", "", false
}

// SectionBracket returns the bracket used for a section of the given depth,
// and false if depth is outside 1..MaxSection.
func SectionBracket(depth int) (string, bool) {
	if depth < 1 || depth > MaxSection {
		return "", false
	}
	return sectionBrackets[depth], true
}

// SectionDepth returns the depth denoted by a section bracket such as "(O)".
func SectionDepth(bracket string) (int, bool) {
	for depth := 1; depth <= MaxSection; depth++ {
		if sectionBrackets[depth] == bracket {
			return depth, true
		}
	}
	return 0, false
}

func (t Token) String() string {
	switch t.Type {
	case INDENT, SECTION_OPEN, SECTION_CLOSE:
		return fmt.Sprintf("%d:%s(%d)", t.Line, t.Type, t.Level)
	case IDENT, STRING, NUMBER, BOOL:
		return fmt.Sprintf("%d:%s(%q)", t.Line, t.Type, t.Literal)
	default:
		return fmt.Sprintf("%d:%s", t.Line, t.Type)
	}
}

// SplitElements splits the content between ArrayOpen and ArrayClose at
// top-level separators. Separators inside a nested array or a quoted string
// belong to that element. Elements are returned untrimmed.
func SplitElements(s string) []string {
	var (
		parts    []string
		start    int
		nesting  int
		inString bool
	)
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inString = !inString
		case inString:
		case strings.HasPrefix(s[i:], ArrayOpen):
			nesting++
			i++
		case strings.HasPrefix(s[i:], ArrayClose) && nesting > 0:
			nesting--
			i++
		case strings.HasPrefix(s[i:], Separator) && nesting == 0:
			parts = append(parts, s[start:i])
			start = i + len(Separator)
		}
	}
	return append(parts, s[start:])
}
