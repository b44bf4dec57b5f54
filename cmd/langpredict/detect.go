package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"langpredict/internal/detection/detector"
	"langpredict/internal/detection/profile"
	"langpredict/internal/textio"
	"langpredict/pkg/logger"
)

func newDetectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Detect the language of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd)
			set, err := opts.loadSet(cmd.Context(), cmd, log)
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				probs, err := detectFile(set, path, opts, log)
				if err != nil {
					log.Error().Err(err).Str("file", path).Msg("detection failed")
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", path, formatLanguages(probs))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func detectFile(set *profile.Set, path string, opts *options, log *logger.Logger) ([]detector.Language, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := detector.New(set,
		detector.WithAlpha(opts.alpha),
		detector.WithVerbose(opts.debug),
		detector.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	if err := d.AppendReader(textio.ToUTF8Reader(f)); err != nil {
		return nil, err
	}
	return d.Probabilities()
}

func formatLanguages(langs []detector.Language) string {
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = l.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
