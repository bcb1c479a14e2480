// Package cmd implements the bulba command line tool.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-bulba"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	cfgFile  string
	verbose  bool
	settings Settings
	log      *slog.Logger
}

// Execute runs the root command with the process arguments and prints any
// error to stderr.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// NewRootCmd returns a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{settings: DefaultSettings(), log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	root := &cobra.Command{
		Use:   "bulba",
		Short: "Read, format and convert BULBA documents",
		Long: `bulba reads documents in the BULBA configuration format.

A document starts with the header line BULBA!, assigns values with ~~>,
and groups keys in sections (o) name (o), (O) name (O) and (@) name (@).

Commands:
  parse    - print the canonical key: value form
  tokens   - print the token stream
  fmt      - rewrite a document in normalized BULBA source
  convert  - convert a document to JSON, YAML or TOML`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "settings file (TOML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newParseCmd(a),
		newTokensCmd(a),
		newFmtCmd(a),
		newConvertCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if a.cfgFile == "" {
		return nil
	}
	s, err := LoadSettings(a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = s
	a.log.Debug("loaded settings", "path", a.cfgFile, "format", s.Format, "max_depth", s.MaxDepth)
	return nil
}

// options turns the settings into parse options.
func (a *app) options() []bulba.Option {
	if a.settings.MaxDepth > 0 {
		return []bulba.Option{bulba.MaxDepth(a.settings.MaxDepth)}
	}
	return nil
}

// readInput reads the named file, or standard input for "-".
func (a *app) readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	a.log.Debug("read input", "path", name, "bytes", len(data))
	return data, nil
}
