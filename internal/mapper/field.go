package mapper

import (
	"reflect"
	"strings"
	"sync"
)

// Field is a struct field reachable by a document key.
type Field struct {
	Name      string
	Index     []int
	OmitEmpty bool
}

type structFields struct {
	list   []Field
	byName map[string]int
	byFold map[string]int
}

// fieldCache caches the fields of a struct type.
var fieldCache sync.Map // map[reflect.Type]*structFields

// Fields returns the fields of struct type t in declaration order. Fields of
// embedded structs are promoted unless an outer field has the same name.
// Unexported fields and fields tagged `bulba:"-"` are skipped.
func Fields(t reflect.Type) []Field {
	return cachedFields(t).list
}

// Find looks up the field for a document key. It tries an exact match on
// the tag or field name first and falls back to a case-insensitive match.
func Find(t reflect.Type, key string) (Field, bool) {
	sf := cachedFields(t)
	if i, ok := sf.byName[key]; ok {
		return sf.list[i], true
	}
	if i, ok := sf.byFold[strings.ToLower(key)]; ok {
		return sf.list[i], true
	}
	return Field{}, false
}

func cachedFields(t reflect.Type) *structFields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*structFields)
	}

	sf := &structFields{byName: make(map[string]int), byFold: make(map[string]int)}
	visiting := make(map[reflect.Type]bool)
	var walk func(t reflect.Type, idx []int)
	walk = func(t reflect.Type, idx []int) {
		visiting[t] = true
		defer delete(visiting, t)
		var embedded []reflect.StructField
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := f.Tag.Get("bulba")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			if f.Anonymous && name == "" && isStruct(f) {
				embedded = append(embedded, f)
				continue
			}
			if !f.IsExported() {
				continue
			}
			if name == "" {
				name = f.Name
			}
			if _, taken := sf.byName[name]; taken {
				continue
			}

			field := Field{Name: name, Index: append(idx[:len(idx):len(idx)], i)}
			for opts != "" {
				var opt string
				opt, opts, _ = strings.Cut(opts, ",")
				if strings.TrimSpace(opt) == "omitempty" {
					field.OmitEmpty = true
				}
			}
			sf.byName[name] = len(sf.list)
			if _, ok := sf.byFold[strings.ToLower(name)]; !ok {
				sf.byFold[strings.ToLower(name)] = len(sf.list)
			}
			sf.list = append(sf.list, field)
		}
		// Embedded fields come last so outer fields shadow promoted ones.
		for _, f := range embedded {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if visiting[ft] {
				continue
			}
			walk(ft, append(idx[:len(idx):len(idx)], f.Index[0]))
		}
	}
	walk(t, nil)

	actual, _ := fieldCache.LoadOrStore(t, sf)
	return actual.(*structFields)
}

// isStruct reports whether an embedded field can have its fields promoted.
// Pointers to unexported struct types cannot be allocated while decoding.
func isStruct(f reflect.StructField) bool {
	switch {
	case f.Type.Kind() == reflect.Struct:
		return true
	case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
		return f.IsExported()
	}
	return false
}
