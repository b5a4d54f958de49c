package main

import (
	"github.com/spf13/cobra"

	"github.com/assessiq/backend/internal/assessments"
	"github.com/assessiq/backend/internal/scoring"
)

// version is set at build time via -ldflags.
var version = "dev"

type scoreFlags struct {
	assessmentType string
	format         string
	noSmoothing    bool
	noDemographics bool
	noExperience   bool
}

func (f *scoreFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.assessmentType, "type", "t", "", "Assessment type when the input does not name one")
	fl.StringVarP(&f.format, "format", "f", "json", "Output format: json or yaml")
	fl.BoolVar(&f.noSmoothing, "no-smoothing", false, "Skip balance smoothing")
	fl.BoolVar(&f.noDemographics, "no-demographics", false, "Skip demographic adjustment")
	fl.BoolVar(&f.noExperience, "no-experience", false, "Skip the experience level shift")
}

func (f *scoreFlags) options() scoring.Options {
	return scoring.Options{
		DisableSmoothing:    f.noSmoothing,
		DisableDemographics: f.noDemographics,
		DisableExperience:   f.noExperience,
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scorectl",
		Short: "Score psychometric assessment submissions offline",
		Long: "scorectl scores candidate submissions against the built-in assessment\n" +
			"definitions without a server or database. Inputs are JSON or YAML.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}
	root.AddCommand(newScoreCmd(), newBatchCmd(), newListCmd(), newDescribeCmd())
	return root
}

func loadRegistry() (*assessments.Registry, error) {
	return assessments.Load()
}
