package main

import (
	"context"

	"github.com/spf13/cobra"

	"langpredict/internal/config"
	"langpredict/internal/detection/detector"
	"langpredict/internal/detection/profile"
	"langpredict/internal/domain/services"
	"langpredict/pkg/logger"
)

// options holds the flags shared by every command
type options struct {
	directory string
	alpha     float64
	seed      int64
	debug     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "langpredict",
		Short:         "Identify the language of text",
		Long:          `langpredict detects the natural language of text files, evaluates language profiles against labelled samples and trains new profiles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.directory, "directory", "d", "profiles", "Profile directory (abstract dumps for genprofile)")
	root.PersistentFlags().Float64VarP(&opts.alpha, "alpha", "a", detector.DefaultAlpha, "Smoothing parameter")
	root.PersistentFlags().Int64VarP(&opts.seed, "seed", "s", 0, "Random seed for reproducible results")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Print per-feature scoring traces")

	root.AddCommand(
		newDetectCmd(opts),
		newBatchTestCmd(opts),
		newGenProfileCmd(opts),
		newGenProfileTextCmd(opts),
		newProfilesCmd(opts),
	)
	return root
}

func (o *options) logger(cmd *cobra.Command) *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "warn"
	if o.debug {
		cfg.Level = "debug"
	}
	cfg.Output = cmd.ErrOrStderr()
	return logger.New(cfg)
}

// seedOption returns the seed when --seed was given on the command line
func (o *options) seedOption(cmd *cobra.Command) (int64, bool) {
	if cmd.Flags().Changed("seed") {
		return o.seed, true
	}
	return 0, false
}

// loadSet loads the profile set from --directory
func (o *options) loadSet(ctx context.Context, cmd *cobra.Command, log *logger.Logger) (*profile.Set, error) {
	var setOpts []profile.SetOption
	if seed, ok := o.seedOption(cmd); ok {
		setOpts = append(setOpts, profile.WithSeed(seed))
	}
	return profile.LoadSet(ctx, profile.NewLoader(log).Directory(o.directory), setOpts...)
}

// detectionService builds a detection service over the profiles in --directory
func (o *options) detectionService(ctx context.Context, cmd *cobra.Command, log *logger.Logger) (*services.DetectionService, error) {
	var setOpts []profile.SetOption
	if seed, ok := o.seedOption(cmd); ok {
		setOpts = append(setOpts, profile.WithSeed(seed))
	}
	registry := services.NewProfileRegistry(profile.NewLoader(log).Directory(o.directory), "dir:"+o.directory, nil, log, setOpts...)
	if _, err := registry.Reload(ctx); err != nil {
		return nil, err
	}
	cfg := config.DetectorConfig{
		Alpha:         o.alpha,
		MaxTextLength: detector.DefaultMaxTextLength,
		Verbose:       o.debug,
		BatchWorkers:  4,
	}
	return services.NewDetectionService(registry, cfg, nil, nil, nil, log), nil
}
