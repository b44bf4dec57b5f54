package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"langpredict/internal/detection/profile"
	"langpredict/internal/detection/training"
)

func newGenProfileCmd(opts *options) *cobra.Command {
	prune := profile.DefaultPruneOptions()

	cmd := &cobra.Command{
		Use:   "genprofile LANG...",
		Short: "Train profiles from Wikipedia abstract dumps",
		Long: `For every language the directory given by --directory is searched for an
abstract dump named <lang>wiki-*-abstract.xml (optionally gzipped). The trained
profile is written to <directory>/profiles/<lang>.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd)
			trainer := training.NewTrainer(log)
			outDir := filepath.Join(opts.directory, "profiles")
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			for _, lang := range args {
				dump, err := findAbstractDump(opts.directory, lang)
				if err != nil {
					return err
				}
				if dump == "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Not found abstract xml: lang = %s\n", lang)
					continue
				}

				p, err := trainer.FromWikipediaAbstract(cmd.Context(), lang, dump)
				if err != nil {
					return err
				}
				p.Prune(prune)
				if err := writeProfile(filepath.Join(outDir, lang), p); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addPruneFlags(cmd, &prune)
	return cmd
}

func newGenProfileTextCmd(opts *options) *cobra.Command {
	var lang, output string
	prune := profile.DefaultPruneOptions()

	cmd := &cobra.Command{
		Use:   "genprofile-text -l LANG FILE",
		Short: "Train a profile from a plain text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := training.NewTrainer(opts.logger(cmd)).FromText(cmd.Context(), lang, args[0])
			if err != nil {
				return err
			}
			p.Prune(prune)
			if output == "" {
				output = lang
			}
			return writeProfile(output, p)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language code of the text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to LANG in the working directory)")
	cmd.MarkFlagRequired("lang")
	addPruneFlags(cmd, &prune)
	return cmd
}

func addPruneFlags(cmd *cobra.Command, prune *profile.PruneOptions) {
	cmd.Flags().IntVar(&prune.MinimumFreq, "min-freq", prune.MinimumFreq, "Drop n-grams seen at most this often")
	cmd.Flags().IntVar(&prune.LessFreqRatio, "less-freq-ratio", prune.LessFreqRatio, "Raise the drop threshold to unigram total / ratio")
}

// findAbstractDump returns the first file in dir that looks like the abstract
// dump of lang, or "" when there is none.
func findAbstractDump(dir, lang string) (string, error) {
	pattern, err := regexp.Compile(`^` + regexp.QuoteMeta(lang) + `wiki-.*-abstract\.xml.*$`)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && pattern.MatchString(e.Name()) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", nil
}

func writeProfile(path string, p *profile.Profile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := profile.Encode(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
