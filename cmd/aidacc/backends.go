package main

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"aidacc/internal/driver"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available code generators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := driver.Backends().All()
		width := 0
		for _, b := range all {
			width = max(width, runewidth.StringWidth(b.Name))
		}
		for _, b := range all {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", runewidth.FillRight(b.Name, width), b.Doc); err != nil {
				return err
			}
		}
		return nil
	},
}
