package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-bulba"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the canonical form of a document",
		Long:  "Parse FILE (or - for stdin) and print it in the canonical key: value form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := bulba.ParseBytes(data, a.options()...)
			if err != nil {
				return err
			}
			a.log.Debug("parsed document", "keys", doc.Len())
			return bulba.WriteCanonical(cmd.OutOrStdout(), doc)
		},
	}
}

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			lines, err := bulba.ReadLines(bytes.NewReader(data))
			if err != nil {
				return err
			}
			tokens, err := bulba.Lex(lines, a.options()...)
			if err != nil {
				return err
			}
			a.log.Debug("lexed document", "lines", len(lines), "tokens", len(tokens))
			out := cmd.OutOrStdout()
			for _, tok := range tokens {
				if _, err := fmt.Fprintln(out, tok); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
