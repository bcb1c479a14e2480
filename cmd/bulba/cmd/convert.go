package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-bulba"
	"github.com/KimNorgaard/go-bulba/internal/export"
)

func newConvertCmd(a *app) *cobra.Command {
	var to string
	c := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a document to JSON, YAML or TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = a.settings.Format
			}
			format, err := export.ParseFormat(to)
			if err != nil {
				return err
			}
			data, err := a.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := bulba.ParseBytes(data, a.options()...)
			if err != nil {
				return err
			}
			a.log.Debug("converting", "format", format)
			return export.Write(cmd.OutOrStdout(), doc, format)
		},
	}
	c.Flags().StringVarP(&to, "to", "t", "", "output format: json, yaml or toml (default from settings, else json)")
	return c
}
