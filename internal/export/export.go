// Package export writes document trees in other configuration formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/KimNorgaard/go-bulba/value"
)

// Format names an output format.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, YAML, TOML}

// ParseFormat returns the format named by s, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("export: unknown format %q (want one of %s)", s, formatList())
	}
	return f, nil
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Write encodes v to w in format f. Numbers without a fractional part are
// written as integers.
//
// JSON has no representation for NaN or infinities. TOML has none for null:
// null map entries are left out and null list elements are an error.
func Write(w io.Writer, v *value.Value, f Format) error {
	doc := plain(v)
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export: json: %w", err)
		}
		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(4)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export: yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("export: yaml: %w", err)
		}
		return nil
	case TOML:
		if v.Kind() != value.KindMap {
			return fmt.Errorf("export: toml: document root must be a map, got %s", v.Kind())
		}
		enc := toml.NewEncoder(w)
		enc.Indent = "    "
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export: toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("export: unknown format %q", f)
	}
}

// plain is value.Interface with integral numbers narrowed to int64.
func plain(v *value.Value) any {
	switch v.Kind() {
	case value.KindNumber:
		n, _ := v.Num()
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case value.KindList:
		out := make([]any, 0, v.Len())
		for _, e := range v.Elems() {
			out = append(out, plain(e))
		}
		return out
	case value.KindMap:
		out := make(map[string]any, v.Len())
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			out[k] = plain(child)
		}
		return out
	}
	return v.Interface()
}
