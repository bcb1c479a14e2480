package testutil

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

// TestdataFS holds the embedded test data files.
//
//go:embed testdata
var TestdataFS embed.FS

// ReadTestData reads and returns the content of an embedded test file.
func ReadTestData(name string) ([]byte, error) {
	path := fmt.Sprintf("testdata/%s", name)
	data, err := fs.ReadFile(TestdataFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test data file '%s': %w", name, err)
	}
	return data, nil
}

// ReadTestLines reads an embedded test file and splits it into lines
// without their terminators. A final newline does not produce an empty line.
func ReadTestLines(name string) ([]string, error) {
	data, err := ReadTestData(name)
	if err != nil {
		return nil, err
	}
	return Lines(string(data)), nil
}

// Lines splits s into lines the way a line scanner would.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
