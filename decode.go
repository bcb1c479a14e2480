package bulba

import (
	"encoding"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/KimNorgaard/go-bulba/internal/mapper"
	"github.com/KimNorgaard/go-bulba/value"
)

// Decoder reads and decodes BULBA documents from an input stream.
type Decoder struct {
	r    io.Reader
	opts []Option
}

const defaultMaxDepth = 1000

var valueType = reflect.TypeOf((*value.Value)(nil))

// NewDecoder returns a new decoder that reads from r.
//
// Functional options can be provided to configure the decoding process,
// such as setting a maximum decoding depth with the MaxDepth option.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads the whole input as one document and stores it in the value
// pointed to by v. See Unmarshal for the conversion rules.
func (d *Decoder) Decode(v any) error {
	if d.r == nil {
		return fmt.Errorf("bulba: Decode(nil reader)")
	}
	o, err := newOptions(d.opts)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	doc, err := o.parse(data)
	if err != nil {
		return err
	}
	return decodeValue(doc, v, o)
}

func decodeValue(doc *value.Value, v any, o *options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("bulba: Unmarshal(non-pointer %T or nil)", v)
	}
	depth := defaultMaxDepth
	if o.maxDepth > 0 {
		depth = o.maxDepth
	}
	ds := &decodeState{depth: depth}
	return ds.mapValue(doc, rv.Elem())
}

type decodeState struct {
	depth int
}

func (ds *decodeState) mapValue(v *value.Value, rv reflect.Value) error { //nolint:gocyclo
	ds.depth--
	if ds.depth <= 0 {
		return fmt.Errorf("bulba: reached max recursion depth")
	}
	defer func() { ds.depth++ }()

	if rv.Type() == valueType {
		rv.Set(reflect.ValueOf(v))
		return nil
	}

	if v.IsNull() {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	handled, err := ds.tryCustomUnmarshal(v, rv)
	if err != nil || handled {
		return err
	}

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return ds.mapValue(v, rv.Elem())
	}

	if rv.Kind() == reflect.Interface {
		if rv.NumMethod() != 0 {
			return fmt.Errorf("bulba: cannot unmarshal into non-empty interface %s", rv.Type())
		}
		if v.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		rv.Set(reflect.ValueOf(v.Interface()))
		return nil
	}
	if !rv.CanSet() {
		return fmt.Errorf("bulba: cannot set value of type %s", rv.Type())
	}

	switch v.Kind() {
	case value.KindNull:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case value.KindString:
		return ds.mapString(v, rv)
	case value.KindNumber:
		return ds.mapNumber(v, rv)
	case value.KindBool:
		return ds.mapBool(v, rv)
	case value.KindList:
		switch rv.Kind() {
		case reflect.Slice:
			return ds.mapSlice(v, rv)
		case reflect.Array:
			return ds.mapArray(v, rv)
		default:
			return fmt.Errorf("bulba: cannot unmarshal list into Go value of type %s", rv.Type())
		}
	case value.KindMap:
		switch rv.Kind() {
		case reflect.Struct:
			return ds.mapStruct(v, rv)
		case reflect.Map:
			return ds.mapMap(v, rv)
		default:
			return fmt.Errorf("bulba: cannot unmarshal map into Go value of type %s", rv.Type())
		}
	default:
		return fmt.Errorf("bulba: cannot unmarshal %s into Go value of type %s", v.Kind(), rv.Type())
	}
}

// tryCustomUnmarshal attempts to use a custom unmarshaler (bulba.Unmarshaler
// or encoding.TextUnmarshaler) on the given reflect.Value. It returns true if
// a custom unmarshaler was found and used, in which case the caller should
// not proceed with default unmarshaling.
func (ds *decodeState) tryCustomUnmarshal(v *value.Value, rv reflect.Value) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if u, ok := pv.Interface().(Unmarshaler); ok {
		data, err := fragment(v)
		if err != nil {
			return true, fmt.Errorf("bulba: failed to re-marshal value for custom unmarshaler: %w", err)
		}
		if err := u.UnmarshalBULBA(data); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(encoding.TextUnmarshaler); ok {
		s, isString := v.Str()
		if !isString {
			// TextUnmarshaler can only be used on string values.
			return false, nil
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func (ds *decodeState) mapString(v *value.Value, rv reflect.Value) error {
	if rv.Kind() != reflect.String {
		return fmt.Errorf("bulba: cannot unmarshal string into Go value of type %s", rv.Type())
	}
	s, _ := v.Str()
	rv.SetString(s)
	return nil
}

func (ds *decodeState) mapNumber(v *value.Value, rv reflect.Value) error {
	n, _ := v.Num()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return fmt.Errorf("bulba: cannot unmarshal number %s into Go value of type %s", value.FormatNumber(n), rv.Type())
		}
		if n < math.MinInt64 || n >= math.MaxInt64 || rv.OverflowInt(int64(n)) {
			return fmt.Errorf("bulba: number %s overflows Go value of type %s", value.FormatNumber(n), rv.Type())
		}
		rv.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return fmt.Errorf("bulba: cannot unmarshal number %s into Go value of type %s", value.FormatNumber(n), rv.Type())
		}
		if n < 0 || n >= math.MaxUint64 || rv.OverflowUint(uint64(n)) {
			return fmt.Errorf("bulba: number %s overflows Go value of type %s", value.FormatNumber(n), rv.Type())
		}
		rv.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		if !math.IsInf(n, 0) && !math.IsNaN(n) && rv.OverflowFloat(n) {
			return fmt.Errorf("bulba: number %s overflows Go value of type %s", value.FormatNumber(n), rv.Type())
		}
		rv.SetFloat(n)
		return nil
	default:
		return fmt.Errorf("bulba: cannot unmarshal number into Go value of type %s", rv.Type())
	}
}

func (ds *decodeState) mapBool(v *value.Value, rv reflect.Value) error {
	if rv.Kind() != reflect.Bool {
		return fmt.Errorf("bulba: cannot unmarshal bool into Go value of type %s", rv.Type())
	}
	b, _ := v.Boolean()
	rv.SetBool(b)
	return nil
}

func (ds *decodeState) mapSlice(v *value.Value, rv reflect.Value) error {
	elems := v.Elems()
	newSlice := reflect.MakeSlice(rv.Type(), len(elems), len(elems))
	for i, elem := range elems {
		if err := ds.mapValue(elem, newSlice.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(newSlice)
	return nil
}

func (ds *decodeState) mapArray(v *value.Value, rv reflect.Value) error {
	elems := v.Elems()
	if rv.Len() != len(elems) {
		return fmt.Errorf("bulba: cannot unmarshal list of length %d into Go array of length %d", len(elems), rv.Len())
	}
	for i, elem := range elems {
		if err := ds.mapValue(elem, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) mapMap(v *value.Value, rv reflect.Value) error {
	mapType := rv.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("bulba: cannot unmarshal map into map with non-string key type %s", mapType.Key())
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(mapType))
	} else {
		rv.Clear()
	}
	elemType := mapType.Elem()
	for _, key := range v.Keys() {
		child, _ := v.Get(key)
		newVal := reflect.New(elemType).Elem()
		if err := ds.mapValue(child, newVal); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), newVal)
	}
	return nil
}

func (ds *decodeState) mapStruct(v *value.Value, rv reflect.Value) error {
	for _, key := range v.Keys() {
		f, ok := mapper.Find(rv.Type(), key)
		if !ok {
			continue
		}
		child, _ := v.Get(key)
		fieldVal, err := fieldByIndexAlloc(rv, f.Index)
		if err != nil {
			return err
		}
		if err := ds.mapValue(child, fieldVal); err != nil {
			return fmt.Errorf("%w (field %s.%s)", err, rv.Type(), f.Name)
		}
	}
	return nil
}

// fieldByIndexAlloc is reflect.Value.FieldByIndex that allocates nil
// embedded struct pointers on the way.
func fieldByIndexAlloc(rv reflect.Value, idx []int) (reflect.Value, error) {
	for i, x := range idx {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				if !rv.CanSet() {
					return reflect.Value{}, fmt.Errorf("bulba: cannot set embedded pointer to unexported struct %s", rv.Type().Elem())
				}
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, nil
}
