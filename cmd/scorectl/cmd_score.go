package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assessiq/backend/internal/assessments"
	"github.com/assessiq/backend/internal/models"
)

func newScoreCmd() *cobra.Command {
	var flags scoreFlags
	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score a single submission file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			res, err := scoreFile(reg, args[0], &flags)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), res, flags.format)
		},
	}
	flags.register(cmd)
	return cmd
}

func scoreFile(reg *assessments.Registry, path string, flags *scoreFlags) (*models.AssessmentResult, error) {
	sub, err := readSubmission(path)
	if err != nil {
		return nil, err
	}
	if sub.AssessmentType == "" {
		sub.AssessmentType = flags.assessmentType
	}
	if sub.AssessmentType == "" {
		return nil, fmt.Errorf("%s: no assessment_type in file and no --type given", path)
	}
	res, err := reg.Score(sub, flags.options())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
