package bulba

import (
	"bytes"
	"io"

	"github.com/KimNorgaard/go-bulba/internal/formatter"
	"github.com/KimNorgaard/go-bulba/value"
)

// Format parses src and re-emits it in the normal source layout: flat
// entries before sections, keys sorted, `~~>` as the operator and comments
// removed. The result parses to a tree equal to the one parsed from src.
func Format(src []byte, opts ...Option) ([]byte, error) {
	doc, err := ParseBytes(src, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := formatter.New(&buf).Source(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCanonical writes the canonical `key: value` rendering of v to w.
func WriteCanonical(w io.Writer, v *value.Value) error {
	return formatter.New(w).Canonical(v)
}
