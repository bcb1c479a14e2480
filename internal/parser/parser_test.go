package parser_test

import (
	"testing"

	bulbaerrors "github.com/KimNorgaard/go-bulba/errors"
	"github.com/KimNorgaard/go-bulba/internal/lexer"
	"github.com/KimNorgaard/go-bulba/internal/parser"
	"github.com/KimNorgaard/go-bulba/internal/testutil"
	"github.com/KimNorgaard/go-bulba/token"
	"github.com/KimNorgaard/go-bulba/value"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*value.Value, error) {
	t.Helper()
	tokens, err := lexer.New(testutil.Lines(src)).Lex()
	require.NoError(t, err, "lexing must succeed for parser tests")
	return parser.New(tokens).Parse()
}

func requireString(t *testing.T, doc *value.Value, expected string, path ...string) {
	t.Helper()
	v, ok := doc.Lookup(path...)
	require.True(t, ok, "missing %v", path)
	s, ok := v.Str()
	require.True(t, ok, "%v is %s, not a string", path, v.Kind())
	require.Equal(t, expected, s)
}

func requireNumber(t *testing.T, doc *value.Value, expected float64, path ...string) {
	t.Helper()
	v, ok := doc.Lookup(path...)
	require.True(t, ok, "missing %v", path)
	n, ok := v.Num()
	require.True(t, ok, "%v is %s, not a number", path, v.Kind())
	require.Equal(t, expected, n)
}

func TestParseValidDocument(t *testing.T) {
	lines, err := testutil.ReadTestLines("valid.bson")
	require.NoError(t, err)
	tokens, err := lexer.New(lines).Lex()
	require.NoError(t, err)

	doc, err := parser.New(tokens).Parse()
	require.NoError(t, err)

	expected := map[string]any{
		"app_name":      "Pokedex_API",
		"version":       1.5,
		"is_production": false,
		"missing_data":  nil,
		"database": map[string]any{
			"host": "127.0.0.1",
			"pool": map[string]any{
				"max_connections": float64(100),
				"KERNEL_FLAGS": map[string]any{
					"panic_on_fail": true,
				},
			},
		},
		"whitelist": []any{"Prof_Oak", "Mom"},
	}
	require.Equal(t, expected, doc.Interface())
}

func TestParseEmptyDocument(t *testing.T) {
	doc, err := parse(t, "BULBA!\nzZz nothing here\n")
	require.NoError(t, err)
	require.Equal(t, value.KindMap, doc.Kind())
	require.Equal(t, 0, doc.Len())
}

func TestParseSimpleExample(t *testing.T) {
	doc, err := parse(t, "BULBA!\napp_name ~~~> \"Pokedex_API\"\n(o) database (o)\n    host ~> \"localhost\"\n    port ~> 5432\n")
	require.NoError(t, err)

	requireString(t, doc, "Pokedex_API", "app_name")
	requireString(t, doc, "localhost", "database", "host")
	requireNumber(t, doc, 5432, "database", "port")
}

func TestParseNumericArray(t *testing.T) {
	doc, err := parse(t, "BULBA!\nnums ~> <| 1, 2, 3 |>")
	require.NoError(t, err)

	nums, ok := doc.Get("nums")
	require.True(t, ok)
	require.Equal(t, value.KindList, nums.Kind())
	require.Len(t, nums.Elems(), 3)
	for i, e := range nums.Elems() {
		n, ok := e.Num()
		require.True(t, ok)
		require.Equal(t, float64(i+1), n)
	}
}

func TestParseNestedArrays(t *testing.T) {
	doc, err := parse(t, "BULBA!\ngrid ~> <| <| 1, 2 |>, <||>, <| SuperEffective, MissingNo |> |>")
	require.NoError(t, err)

	grid, _ := doc.Get("grid")
	require.Equal(t, []any{
		[]any{float64(1), float64(2)},
		[]any{},
		[]any{true, nil},
	}, grid.Interface())
}

func TestParseEmptyArray(t *testing.T) {
	doc, err := parse(t, "BULBA!\nnone ~> <||>")
	require.NoError(t, err)
	none, _ := doc.Get("none")
	require.Equal(t, value.KindList, none.Kind())
	require.Equal(t, 0, none.Len())
}

func TestParseDedent(t *testing.T) {
	src := `BULBA!
(o) a (o)
    (O) b (O)
        (@) c (@)
            deep ~> 3
        mid ~> 2
    shallow ~> 1
top ~> 0
(o) d (o)
    x ~> "x"
`
	doc, err := parse(t, src)
	require.NoError(t, err)

	requireNumber(t, doc, 3, "a", "b", "c", "deep")
	requireNumber(t, doc, 2, "a", "b", "mid")
	requireNumber(t, doc, 1, "a", "shallow")
	requireNumber(t, doc, 0, "top")
	requireString(t, doc, "x", "d", "x")
}

func TestParseSiblingSections(t *testing.T) {
	src := `BULBA!
(o) first (o)
    (O) inner (O)
        k ~> 1
    (O) second_inner (O)
        k ~> 2
(o) second (o)
    k ~> 3
`
	doc, err := parse(t, src)
	require.NoError(t, err)

	requireNumber(t, doc, 1, "first", "inner", "k")
	requireNumber(t, doc, 2, "first", "second_inner", "k")
	requireNumber(t, doc, 3, "second", "k")
	_, ok := doc.Lookup("first", "k")
	require.False(t, ok)
}

func TestParseEmptySection(t *testing.T) {
	doc, err := parse(t, "BULBA!\n(o) empty (o)\nafter ~> 1")
	require.NoError(t, err)

	empty, ok := doc.Get("empty")
	require.True(t, ok)
	require.Equal(t, value.KindMap, empty.Kind())
	require.Equal(t, 0, empty.Len())
	requireNumber(t, doc, 1, "after")
}

func TestParseDuplicateKeys(t *testing.T) {
	doc, err := parse(t, "BULBA!\nk ~> 1\nk ~> 2\n(o) s (o)\n    a ~> 1\n(o) s (o)\n    b ~> 2")
	require.NoError(t, err)

	requireNumber(t, doc, 2, "k")
	_, ok := doc.Lookup("s", "a")
	require.False(t, ok, "a repeated section starts from an empty map")
	requireNumber(t, doc, 2, "s", "b")
	require.Equal(t, 2, doc.Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
		line     int
	}{
		{
			name:     "reserved flat key",
			input:    "BULBA!\nCharizard ~> \"Fire\"",
			expected: bulbaerrors.ErrReservedKey,
			line:     2,
		},
		{
			name:     "reserved section name",
			input:    "BULBA!\n(o) Charizard (o)",
			expected: bulbaerrors.ErrReservedKey,
			line:     2,
		},
		{
			name:     "reserved key deep inside",
			input:    "BULBA!\n(o) a (o)\n    (O) b (O)\n        Charizard ~> 1",
			expected: bulbaerrors.ErrReservedKey,
			line:     4,
		},
		{
			name:     "reserved depth 3 section",
			input:    "BULBA!\n(o) a (o)\n    (O) b (O)\n        (@) Charizard (@)",
			expected: bulbaerrors.ErrReservedKey,
			line:     4,
		},
		{
			name:     "not enough badges",
			input:    "BULBA!\n(o) level1 (o)\n        (@) level3 (@)\n            key ~> \"val\"",
			expected: bulbaerrors.ErrBadges,
			line:     3,
		},
		{
			name:     "depth 2 section at top level",
			input:    "BULBA!\n    (O) pool (O)",
			expected: bulbaerrors.ErrBadges,
			line:     2,
		},
		{
			name:     "depth 1 section indented",
			input:    "BULBA!\n    (o) db (o)",
			expected: bulbaerrors.ErrHierarchy,
			line:     2,
		},
		{
			name:     "depth 2 section not indented",
			input:    "BULBA!\n(o) db (o)\n(O) pool (O)",
			expected: bulbaerrors.ErrHierarchy,
			line:     3,
		},
		{
			name:     "flat key indented without section",
			input:    "BULBA!\nkey ~> 1\n    other ~> 2",
			expected: bulbaerrors.ErrIndentation,
			line:     3,
		},
		{
			name:     "flat key two levels too deep",
			input:    "BULBA!\n(o) db (o)\n            host ~> 1",
			expected: bulbaerrors.ErrIndentation,
			line:     3,
		},
		{
			name:     "missing value at end",
			input:    "BULBA!\nkey ~>",
			expected: bulbaerrors.ErrType,
			line:     2,
		},
		{
			name:     "missing value before next line",
			input:    "BULBA!\nkey ~>\nother ~> 1",
			expected: bulbaerrors.ErrType,
			line:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parse(t, tt.input)
			require.Nil(t, doc)
			require.ErrorIs(t, err, tt.expected)

			var parseErr *bulbaerrors.Error
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func tok(typ token.Type, lit string, level int) token.Token {
	return token.Token{Type: typ, Literal: lit, Line: 1, Level: level}
}

func TestParseMalformedTokenStreams(t *testing.T) {
	header := tok(token.HEADER, token.Header, 0)
	eof := tok(token.EOF, "", 0)
	indent := tok(token.INDENT, "", 0)

	tests := []struct {
		name     string
		tokens   []token.Token
		expected error
	}{
		{
			name:     "missing assignment operator",
			tokens:   []token.Token{header, indent, tok(token.IDENT, "k", 0), tok(token.STRING, "v", 0), eof},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name: "missing section close",
			tokens: []token.Token{
				header, indent, tok(token.SECTION_OPEN, "(o)", 1), tok(token.IDENT, "s", 0), indent, eof,
			},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name:     "section without name",
			tokens:   []token.Token{header, indent, tok(token.SECTION_OPEN, "(o)", 1), tok(token.SECTION_CLOSE, "(o)", 1), eof},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name: "unterminated array",
			tokens: []token.Token{
				header, indent, tok(token.IDENT, "k", 0), tok(token.ASSIGN, "", 0),
				tok(token.ARRAY_START, "<|", 0), tok(token.NUMBER, "1", 0), eof,
			},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name: "array runs off the stream",
			tokens: []token.Token{
				header, indent, tok(token.IDENT, "k", 0), tok(token.ASSIGN, "", 0), tok(token.ARRAY_START, "<|", 0),
			},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name:     "stream ends after operator",
			tokens:   []token.Token{header, indent, tok(token.IDENT, "k", 0), tok(token.ASSIGN, "", 0)},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name:     "value token at start of line",
			tokens:   []token.Token{header, indent, tok(token.NUMBER, "1", 0), eof},
			expected: bulbaerrors.ErrSyntax,
		},
		{
			name: "comma at value position",
			tokens: []token.Token{
				header, indent, tok(token.IDENT, "k", 0), tok(token.ASSIGN, "", 0), tok(token.COMMA, ",", 0), eof,
			},
			expected: bulbaerrors.ErrType,
		},
		{
			name: "malformed number literal",
			tokens: []token.Token{
				header, indent, tok(token.IDENT, "k", 0), tok(token.ASSIGN, "", 0), tok(token.NUMBER, "one", 0), eof,
			},
			expected: bulbaerrors.ErrType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.New(tt.tokens).Parse()
			require.Nil(t, doc)
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestParseSkipsStrayTokens(t *testing.T) {
	tokens := []token.Token{
		tok(token.HEADER, token.Header, 0),
		tok(token.COMMA, ",", 0),
		tok(token.INDENT, "", 0), tok(token.IDENT, "k", 0), tok(token.ASSIGN, "", 0), tok(token.BOOL, "true", 0),
		tok(token.ARRAY_END, "|>", 0),
		tok(token.EOF, "", 0),
		tok(token.INDENT, "", 0), tok(token.IDENT, "ignored", 0),
	}
	doc, err := parser.New(tokens).Parse()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"k": true}, doc.Interface())
}

func TestParseMaxDepth(t *testing.T) {
	tokens, err := lexer.New(testutil.Lines("BULBA!\nk ~> <| <| <| 1 |> |> |>")).Lex()
	require.NoError(t, err)

	_, err = parser.New(tokens, parser.MaxDepth(3)).Parse()
	require.NoError(t, err)

	_, err = parser.New(tokens, parser.MaxDepth(2)).Parse()
	require.ErrorIs(t, err, bulbaerrors.ErrSyntax)
}

func TestParseFixtures(t *testing.T) {
	tests := map[string]error{
		"invalid_charizard.bson": bulbaerrors.ErrReservedKey,
		"invalid_nesting.bson":   bulbaerrors.ErrBadges,
	}
	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			lines, err := testutil.ReadTestLines(name)
			require.NoError(t, err)
			tokens, err := lexer.New(lines).Lex()
			require.NoError(t, err)
			_, err = parser.New(tokens).Parse()
			require.ErrorIs(t, err, expected)
		})
	}
}
