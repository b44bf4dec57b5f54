package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"langpredict/internal/domain/models"
	"langpredict/internal/domain/services"
)

func newBatchTestCmd(opts *options) *cobra.Command {
	var baseline bool

	cmd := &cobra.Command{
		Use:   "batchtest FILE...",
		Short: "Measure accuracy on labelled samples",
		Long:  `Each line of the input files is a language code, a tab and a text. Accuracy is reported per labelled language.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd)
			svc, err := opts.detectionService(cmd.Context(), cmd, log)
			if err != nil {
				return err
			}

			var samples []models.EvaluationSample
			for _, path := range args {
				s, err := readSampleFile(path)
				if err != nil {
					return err
				}
				samples = append(samples, s...)
			}

			report, err := services.NewEvaluator(svc, baseline, log).Evaluate(cmd.Context(), samples)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&baseline, "baseline", false, "Also score samples with whatlanggo for comparison")
	return cmd
}

func readSampleFile(path string) ([]models.EvaluationSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.ReadSamples(f)
}

func printReport(cmd *cobra.Command, report *models.EvaluationReport) {
	out := cmd.OutOrStdout()
	for _, l := range report.Languages {
		fmt.Fprintf(out, "%s (%d/%d=%.2f): %v\n", l.Language, l.Correct, l.Total, l.Accuracy, l.Detected)
		if report.BaselineUsed {
			fmt.Fprintf(out, "  baseline %d/%d\n", l.Baseline, l.Total)
		}
	}
	fmt.Fprintf(out, "total: %d/%d = %.3f\n", report.Correct, report.Total, report.Accuracy)
	if report.Failed > 0 {
		fmt.Fprintf(out, "failed: %d\n", report.Failed)
	}
	if report.BaselineUsed {
		fmt.Fprintf(out, "baseline total: %d/%d\n", report.BaselineTotal, report.Total)
	}
}
