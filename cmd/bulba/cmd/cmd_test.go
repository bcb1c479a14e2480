package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KimNorgaard/go-bulba/cmd/bulba/cmd"
)

const trainer = `BULBA!
zZz starter config
name ~~> "Ash"
badges ~~> 8
(o) team (o)
    lead ~~> "Pikachu"
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cmd.NewRootCmd()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	path := writeFile(t, "trainer.bson", trainer)
	out, _, err := run(t, "", "parse", path)
	require.NoError(t, err)
	require.Equal(t, "badges: 8\nname: Ash\nteam:\n    lead: Pikachu\n", out)
}

func TestParseStdin(t *testing.T) {
	out, _, err := run(t, trainer, "parse", "-")
	require.NoError(t, err)
	require.Equal(t, "badges: 8\nname: Ash\nteam:\n    lead: Pikachu\n", out)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"bad header", "BULBASAUR\n", "Status: Fainted"},
		{"tab", "BULBA!\n\tname ~~> 1\n", "Poison Type"},
		{"reserved", "BULBA!\nCharizard ~~> 1\n", "It burns the bulb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.input, "parse", "-")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, _, err := run(t, "", "parse", filepath.Join(t.TempDir(), "nope.bson"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseNeedsOneArg(t *testing.T) {
	_, _, err := run(t, "", "parse")
	require.Error(t, err)
}

func TestTokens(t *testing.T) {
	out, _, err := run(t, "BULBA!\nname ~~> \"Pika\"\n", "tokens", "-")
	require.NoError(t, err)
	require.Equal(t, `1:HEADER
2:INDENT(0)
2:IDENT("name")
2:ASSIGN
2:STRING("Pika")
2:EOF
`, out)
}

func TestFmt(t *testing.T) {
	expected := `BULBA!
badges ~~> 8
name ~~> "Ash"
(o) team (o)
    lead ~~> "Pikachu"
`
	out, _, err := run(t, trainer, "fmt", "-")
	require.NoError(t, err)
	require.Equal(t, expected, out)
}

func TestFmtWrite(t *testing.T) {
	path := writeFile(t, "trainer.bson", trainer)
	out, _, err := run(t, "", "fmt", "-w", path)
	require.NoError(t, err)
	require.Empty(t, out)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(got), "BULBA!\nbadges ~~> 8\n"))
	require.NotContains(t, string(got), "zZz")
}

func TestFmtWriteStdin(t *testing.T) {
	_, _, err := run(t, trainer, "fmt", "-w", "-")
	require.EqualError(t, err, "cannot use -w with standard input")
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"json", []string{"--to", "json"}, "{\n    \"badges\": 8,\n    \"name\": \"Ash\",\n    \"team\": {\n        \"lead\": \"Pikachu\"\n    }\n}\n"},
		{"default is json", nil, "{\n    \"badges\": 8,\n"},
		{"yaml", []string{"-t", "yaml"}, "badges: 8\nname: Ash\nteam:\n    lead: Pikachu\n"},
		{"toml", []string{"--to", "TOML"}, "badges = 8\nname = \"Ash\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"convert", "-"}, tt.args...)
			out, _, err := run(t, trainer, args...)
			require.NoError(t, err)
			require.Contains(t, out, tt.expected)
		})
	}
}

func TestConvertUnknownFormat(t *testing.T) {
	_, _, err := run(t, trainer, "convert", "-", "--to", "xml")
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestConfigFile(t *testing.T) {
	cfg := writeFile(t, "bulba.toml", "format = \"yaml\"\nmax_depth = 2\n")

	out, _, err := run(t, trainer, "--config", cfg, "convert", "-")
	require.NoError(t, err)
	require.Equal(t, "badges: 8\nname: Ash\nteam:\n    lead: Pikachu\n", out)

	_, _, err = run(t, "BULBA!\nx ~~> <| <| <| 1 |> |> |>\n", "--config", cfg, "parse", "-")
	require.Error(t, err)
	require.Contains(t, err.Error(), "It hurt itself in its confusion!")
}

func TestConfigFileErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"unknown key", "colour = \"red\"\n", `unknown settings key "colour"`},
		{"bad format", "format = \"xml\"\n", `unknown format "xml"`},
		{"negative depth", "max_depth = -1\n", "max_depth must not be negative"},
		{"not toml", "format = \n", "failed to load settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFile(t, "bulba.toml", tt.content)
			_, _, err := run(t, trainer, "--config", cfg, "parse", "-")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	out, stderr, err := run(t, trainer, "-v", "parse", "-")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Contains(t, stderr, "parsed document")
	require.Contains(t, stderr, "keys=3")

	_, stderr, err = run(t, trainer, "parse", "-")
	require.NoError(t, err)
	require.Empty(t, stderr)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "bulba v"+cmd.Version+"\n"))
	require.Contains(t, out, "Go Version:")
}
