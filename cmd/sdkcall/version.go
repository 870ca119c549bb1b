package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanata-php/sdk-utils/version"
)

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := version.Get().Format(output)
			if err != nil {
				return &exitError{code: exitConfig, err: err}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", version.FormatText, "output format (text, json, short)")
	return cmd
}
