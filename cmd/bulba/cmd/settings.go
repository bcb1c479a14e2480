package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/KimNorgaard/go-bulba/internal/export"
)

// Settings holds defaults read from the --config file.
type Settings struct {
	// Format is the default target of convert.
	Format string `toml:"format"`
	// MaxDepth bounds array nesting while parsing. 0 keeps the default.
	MaxDepth int `toml:"max_depth"`
}

// DefaultSettings returns the settings used without a config file.
func DefaultSettings() Settings {
	return Settings{Format: string(export.JSON)}
}

// LoadSettings reads a TOML settings file. Keys missing from the file keep
// their defaults.
func LoadSettings(path string) (Settings, error) {
	path = os.ExpandEnv(path)
	s := DefaultSettings()
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("unknown settings key %q in %s", undecoded[0].String(), path)
	}
	if _, err := export.ParseFormat(s.Format); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	if s.MaxDepth < 0 {
		return Settings{}, fmt.Errorf("invalid settings in %s: max_depth must not be negative", path)
	}
	return s, nil
}
