package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/assessiq/backend/internal/models"
)

func newDescribeCmd() *cobra.Command {
	var format string
	var full bool
	cmd := &cobra.Command{
		Use:   "describe TYPE",
		Short: "Show an assessment's dimensions, levels and questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			def, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			if full {
				return writeOutput(cmd.OutOrStdout(), def, format)
			}
			return describe(cmd.OutOrStdout(), def)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the complete definition")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Format for --full: json or yaml")
	return cmd
}

func describe(w io.Writer, def *models.Definition) error {
	fmt.Fprintf(w, "%s (%s) v%s\n", def.Name, def.Type, def.Version)
	fmt.Fprintf(w, "Scale:      %g-%g\n", def.Scale.Min, def.Scale.Max)
	basis := def.LevelBasis
	if basis == "" {
		basis = models.BasisPercentile
	}
	fmt.Fprintf(w, "Levels on:  %s\n", basis)
	fmt.Fprintf(w, "Smoothing:  %t\n", def.Smoothing.Enabled)
	if def.Experience != nil {
		fmt.Fprintf(w, "Experience: baseline %g years, %g points/year, cap %g\n",
			def.Experience.BaselineYears, def.Experience.PointsPerYear, def.Experience.Cap)
	}

	counts := map[string]int{}
	for _, q := range def.Questions {
		if dim, ok := def.DimensionFor(q); ok {
			counts[dim]++
		}
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tNAME\tWEIGHT\tQUESTIONS\tNORMS")
	for _, d := range def.Dimensions {
		norms := "-"
		if d.Norms != nil {
			norms = fmt.Sprintf("mean %g sd %g", d.Norms.Mean, d.Norms.StdDev)
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%d\t%s\n", d.Key, d.Name, d.Weight, counts[d.Key], norms)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	levels := def.Levels
	if len(levels) == 0 {
		levels = models.DefaultLevels
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Levels:")
	for _, l := range levels {
		fmt.Fprintf(w, "  >= %-5g %s\n", l.Min, l.Label)
	}
	return nil
}
