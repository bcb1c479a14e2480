package cmd

import (
	"bytes"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-bulba"
)

func newFmtCmd(a *app) *cobra.Command {
	var write bool
	c := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a document in normalized BULBA source",
		Long: `Parse FILE and print it as normalized BULBA source: comments and blank
lines are dropped, flat keys come before sections and keys are sorted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if write && name == "-" {
				return errors.New("cannot use -w with standard input")
			}
			data, err := a.readInput(cmd, name)
			if err != nil {
				return err
			}
			out, err := bulba.Format(data, a.options()...)
			if err != nil {
				return err
			}
			if !write {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if bytes.Equal(data, out) {
				a.log.Debug("already formatted", "path", name)
				return nil
			}
			info, err := os.Stat(name)
			if err != nil {
				return err
			}
			a.log.Debug("rewriting", "path", name)
			return os.WriteFile(name, out, info.Mode().Perm())
		},
	}
	c.Flags().BoolVarP(&write, "write", "w", false, "write result to FILE instead of stdout")
	return c
}
