package formatter

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/KimNorgaard/go-bulba/token"
	"github.com/KimNorgaard/go-bulba/value"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Formatter writes a document tree to an output stream.
type Formatter struct {
	w      io.Writer
	indent string
	depth  int
	err    error
}

// New returns a new formatter that writes to w.
func New(w io.Writer) *Formatter {
	return &Formatter{w: w, indent: strings.Repeat(" ", token.IndentWidth)}
}

func (f *Formatter) write(s string) {
	if f.err != nil {
		return
	}
	_, f.err = io.WriteString(f.w, s)
}

func (f *Formatter) writeIndent() {
	for i := 0; i < f.depth; i++ {
		f.write(f.indent)
	}
}

// Canonical writes the canonical `key: value` rendering of v. Map keys are
// visited in lexicographic order. The only error returned is a write error.
func (f *Formatter) Canonical(v *value.Value) error {
	f.depth = 0
	f.err = nil
	switch v.Kind() {
	case value.KindMap:
		f.canonicalMap(v)
	case value.KindList:
		f.canonicalList(v)
	default:
		f.write(v.Text() + "\n")
	}
	return f.err
}

func (f *Formatter) canonicalMap(m *value.Value) {
	for _, key := range m.Keys() {
		child, _ := m.Get(key)
		f.writeIndent()
		f.write(key + ":")
		f.canonicalChild(child)
	}
}

// canonicalList writes one `-` line per element at the current depth. A
// nested list continues one level deeper.
func (f *Formatter) canonicalList(l *value.Value) {
	for _, elem := range l.Elems() {
		f.writeIndent()
		f.write("-")
		if elem.Kind() == value.KindList {
			f.write("\n")
			f.depth++
			f.canonicalList(elem)
			f.depth--
			continue
		}
		f.canonicalChild(elem)
	}
}

// canonicalChild finishes a `key:` or `-` line for child.
func (f *Formatter) canonicalChild(child *value.Value) {
	switch child.Kind() {
	case value.KindMap:
		f.write("\n")
		f.depth++
		f.canonicalMap(child)
		f.depth--
	case value.KindList:
		f.write("\n")
		f.canonicalList(child)
	case value.KindNull:
		f.write("\n")
	default:
		f.write(" " + child.Text() + "\n")
	}
}

// Source writes v as a BULBA document that the lexer and parser read back
// into an equal tree. v must be a map. Flat entries of a map are written
// before its nested maps, each group in lexicographic key order.
func (f *Formatter) Source(v *value.Value) error {
	if v.Kind() != value.KindMap {
		return fmt.Errorf("bulba: document root must be a map, got %s", v.Kind())
	}
	f.depth = 0
	f.err = nil
	f.write(token.Header + "\n")
	if err := f.sourceMap(v, nil); err != nil {
		return err
	}
	return f.err
}

func (f *Formatter) sourceMap(m *value.Value, path []string) error {
	var sections []string
	for _, key := range m.Keys() {
		child, _ := m.Get(key)
		if child.Kind() == value.KindMap {
			sections = append(sections, key)
			continue
		}
		if !identifier.MatchString(key) {
			return fmt.Errorf("bulba: %s: key %q is not an identifier", pathString(path, key), key)
		}
		if err := checkKey(path, key); err != nil {
			return err
		}
		lit, err := sourceValue(child, pathString(path, key))
		if err != nil {
			return err
		}
		f.writeIndent()
		f.write(key + " " + token.Assign + " " + lit + "\n")
	}

	for _, key := range sections {
		child, _ := m.Get(key)
		depth := len(path) + 1
		if depth > token.MaxSection {
			return fmt.Errorf("bulba: %s: maps nest at most %d levels deep", pathString(path, key), token.MaxSection)
		}
		if err := checkKey(path, key); err != nil {
			return err
		}
		if err := checkSectionName(path, key); err != nil {
			return err
		}
		bracket, _ := token.SectionBracket(depth)
		f.writeIndent()
		f.write(bracket + " " + key + " " + bracket + "\n")
		f.depth++
		if err := f.sourceMap(child, append(path, key)); err != nil {
			return err
		}
		f.depth--
	}
	return nil
}

// sourceValue renders a non-map value as a value literal.
func sourceValue(v *value.Value, path string) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return token.Null, nil
	case value.KindBool:
		if b, _ := v.Boolean(); b {
			return token.True, nil
		}
		return token.False, nil
	case value.KindNumber:
		n, _ := v.Num()
		return value.FormatNumber(n), nil
	case value.KindString:
		s, _ := v.Str()
		if err := checkText(s); err != nil {
			return "", fmt.Errorf("bulba: %s: string %q %w", path, s, err)
		}
		return `"` + s + `"`, nil
	case value.KindList:
		elems := make([]string, 0, v.Len())
		for i, e := range v.Elems() {
			lit, err := sourceValue(e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return "", err
			}
			elems = append(elems, lit)
		}
		if len(elems) == 0 {
			return token.ArrayOpen + token.ArrayClose, nil
		}
		inner := strings.Join(elems, token.Separator+" ")
		if !splitsBack(inner, elems) {
			return "", fmt.Errorf("bulba: %s: list elements contain quotes that change how the list splits", path)
		}
		return token.ArrayOpen + " " + inner + " " + token.ArrayClose, nil
	default:
		return "", fmt.Errorf("bulba: %s: %s values cannot appear inside a list", path, v.Kind())
	}
}

// Literal renders a non-map value the way it appears after the assignment
// operator.
func Literal(v *value.Value) (string, error) {
	if v.Kind() == value.KindMap {
		return "", errors.New("bulba: a map has no literal form")
	}
	return sourceValue(v, "value")
}

func checkKey(path []string, key string) error {
	if key == token.ReservedKey {
		return fmt.Errorf("bulba: %s: %q cannot be used as a key", pathString(path, key), key)
	}
	return nil
}

// checkSectionName rejects names the lexer would read differently. Names are
// written verbatim between the brackets, so surrounding spaces survive.
func checkSectionName(path []string, key string) error {
	if err := checkText(key); err != nil {
		return fmt.Errorf("bulba: %s: section name %q %w", pathString(path, key), key, err)
	}
	return nil
}

// checkText rejects text that cannot survive a line of BULBA source.
func checkText(s string) error {
	switch {
	case strings.ContainsAny(s, "\t\n"):
		return errors.New("contains a tab or newline")
	case strings.Contains(s, token.CommentMarker):
		return fmt.Errorf("contains the comment marker %q", token.CommentMarker)
	}
	return nil
}

// splitsBack reports whether the lexer splits inner into exactly elems.
// Quotes inside string elements can otherwise swallow a separator.
func splitsBack(inner string, elems []string) bool {
	parts := token.SplitElements(inner)
	if len(parts) != len(elems) {
		return false
	}
	for i, p := range parts {
		if strings.TrimSpace(p) != elems[i] {
			return false
		}
	}
	return true
}

func pathString(path []string, key string) string {
	return strings.Join(append(path[:len(path):len(path)], key), ".")
}
