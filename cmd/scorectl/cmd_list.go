package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tVERSION\tQUESTIONS\tDIMENSIONS")
			for _, info := range reg.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					info.Type, info.Name, info.Version, info.QuestionCount, strings.Join(info.Dimensions, ", "))
			}
			return tw.Flush()
		},
	}
}
