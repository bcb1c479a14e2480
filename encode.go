package bulba

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/KimNorgaard/go-bulba/internal/formatter"
	"github.com/KimNorgaard/go-bulba/internal/lexer"
	"github.com/KimNorgaard/go-bulba/internal/mapper"
	"github.com/KimNorgaard/go-bulba/internal/parser"
	"github.com/KimNorgaard/go-bulba/token"
	"github.com/KimNorgaard/go-bulba/value"
)

// fragmentKey names the single entry of the document a value literal is
// wrapped in while it is parsed.
const fragmentKey = "value"

// Encoder writes BULBA documents to an output stream.
type Encoder struct {
	w    io.Writer
	opts []Option
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the BULBA encoding of v to the stream.
func (e *Encoder) Encode(v any) error {
	o, err := newOptions(e.opts)
	if err != nil {
		return err
	}
	es := &encodeState{opts: o}
	doc, err := es.marshalValue(reflect.ValueOf(v))
	if err != nil {
		var me *MarshalerError
		if errors.As(err, &me) {
			return err
		}
		return fmt.Errorf("bulba: %w", err)
	}
	return formatter.New(e.w).Source(doc)
}

type encodeState struct {
	opts *options
}

func (e *encodeState) marshalCustom(v reflect.Value, u Marshaler) (*value.Value, error) {
	b, err := u.MarshalBULBA()
	if err != nil {
		return nil, &MarshalerError{Type: v.Type(), Err: err}
	}
	node, err := parseFragment(b, e.opts)
	if err != nil {
		return nil, &MarshalerError{Type: v.Type(), Err: fmt.Errorf("invalid BULBA output: %w", err)}
	}
	return node, nil
}

// fragment renders v the way a Marshaler returns it: a complete document
// for a map, a value literal for anything else.
func fragment(v *value.Value) ([]byte, error) {
	if v.Kind() == value.KindMap {
		var buf bytes.Buffer
		if err := formatter.New(&buf).Source(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	lit, err := formatter.Literal(v)
	if err != nil {
		return nil, err
	}
	return []byte(lit), nil
}

// parseFragment reads the output of a Marshaler. Empty output is null.
func parseFragment(data []byte, o *options) (*value.Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return value.Null(), nil
	}
	if first, _, _ := bytes.Cut(data, []byte("\n")); string(bytes.TrimSuffix(first, []byte("\r"))) == token.Header {
		return o.parse(data)
	}
	if bytes.ContainsAny(data, "\r\n") {
		return nil, fmt.Errorf("a value literal must fit on one line")
	}
	lines := []string{token.Header, fragmentKey + " " + token.Assign + " " + string(data)}
	tokens, err := lexer.New(lines, lexer.MaxDepth(o.maxDepth)).Lex()
	if err != nil {
		return nil, err
	}
	doc, err := parser.New(tokens, parser.MaxDepth(o.maxDepth)).Parse()
	if err != nil {
		return nil, err
	}
	node, ok := doc.Get(fragmentKey)
	if !ok {
		// Everything after the operator was a comment.
		return value.Null(), nil
	}
	return node, nil
}

// isEmptyValue reports whether the value v is empty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

var (
	marshalerType     = reflect.TypeFor[Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

func (e *encodeState) marshalValue(v reflect.Value) (*value.Value, error) { //nolint:gocyclo,funlen
	// Handle nil interfaces explicitly to avoid panics.
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
		return value.Null(), nil
	}
	if v.Type() == valueType {
		if v.IsNil() {
			return value.Null(), nil
		}
		return v.Interface().(*value.Value), nil
	}

	// Check the value itself and a pointer to it, so that both value and
	// pointer receivers are found.
	if node, ok, err := e.tryCustomMarshal(v); ok {
		return node, err
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface && v.CanInterface() {
		var pv reflect.Value
		if v.CanAddr() {
			pv = v.Addr()
		} else {
			// For non-addressable values (like struct literals),
			// create a pointer to a copy to check for the interface.
			pv = reflect.New(v.Type())
			pv.Elem().Set(v)
		}
		if node, ok, err := e.tryCustomMarshal(pv); ok {
			return node, err
		}
	}

	// Follow pointers and interfaces to find the concrete value.
	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return value.Null(), nil
		}
		return e.marshalValue(v.Elem())
	}

	switch v.Kind() {
	case reflect.String:
		return value.String(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if f := float64(i); f >= math.MaxInt64 || int64(f) != i {
			return nil, fmt.Errorf("integer %d cannot be represented exactly as a number", i)
		}
		return value.Number(float64(i)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if f := float64(u); f >= math.MaxUint64 || uint64(f) != u {
			return nil, fmt.Errorf("integer %d cannot be represented exactly as a number", u)
		}
		return value.Number(float64(u)), nil
	case reflect.Float32, reflect.Float64:
		return value.Number(v.Float()), nil
	case reflect.Bool:
		return value.Bool(v.Bool()), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return value.Null(), nil
		}
		list := value.List()
		for i := 0; i < v.Len(); i++ {
			elem, err := e.marshalValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			list.Append(elem)
		}
		return list, nil
	case reflect.Map:
		if v.IsNil() {
			return value.Null(), nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type must be a string, got %s", v.Type().Key())
		}
		m := value.NewMap()
		iter := v.MapRange()
		for iter.Next() {
			child, err := e.marshalValue(iter.Value())
			if err != nil {
				return nil, err
			}
			m.Set(iter.Key().String(), child)
		}
		return m, nil
	case reflect.Struct:
		m := value.NewMap()
		for _, f := range mapper.Fields(v.Type()) {
			fieldValue, err := v.FieldByIndexErr(f.Index)
			if err != nil {
				// Promoted through a nil embedded pointer.
				continue
			}
			if f.OmitEmpty && isEmptyValue(fieldValue) {
				continue
			}
			child, err := e.marshalValue(fieldValue)
			if err != nil {
				return nil, err
			}
			m.Set(f.Name, child)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported type for marshaling: %s", v.Type())
	}
}

// tryCustomMarshal uses a Marshaler or encoding.TextMarshaler implemented
// by v. It reports whether one was found.
func (e *encodeState) tryCustomMarshal(v reflect.Value) (*value.Value, bool, error) {
	if !v.CanInterface() {
		return nil, false, nil
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false, nil
	}
	switch {
	case v.Type().Implements(marshalerType):
		node, err := e.marshalCustom(v, v.Interface().(Marshaler))
		return node, true, err
	case v.Type().Implements(textMarshalerType):
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, true, &MarshalerError{Type: v.Type(), Err: err}
		}
		return value.String(string(text)), true, nil
	}
	return nil, false, nil
}
