package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shouni/cineprompt-kit/pkg/catalog"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tMODEL\tNAME\tDESCRIPTION")
		for _, cat := range catalog.Categories {
			for _, m := range cat.Models {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cat.ID, m.ID, m.Name, m.Description)
			}
		}
		return tw.Flush()
	},
}
