package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"langpredict/internal/config"
	"langpredict/internal/detection/profile"
	"langpredict/internal/infrastructure/database"
	"langpredict/internal/infrastructure/database/repository"
)

func newProfilesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect and manage language profiles",
	}
	cmd.AddCommand(newProfilesListCmd(opts), newProfilesImportCmd(opts))
	return cmd
}

func newProfilesListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the profiles in --directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.loadSet(cmd.Context(), cmd, opts.logger(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range set.Summaries() {
				fmt.Fprintf(out, "%-8s vocabulary=%d ngrams=%v\n", s.Name, s.Vocabulary, s.NGramCounts)
			}
			fmt.Fprintf(out, "fingerprint %s\n", set.Fingerprint())
			return nil
		},
	}
}

func newProfilesImportCmd(opts *options) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Store the profiles of DIR in PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("LANGPREDICT_CONFIG")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := opts.logger(cmd)

			profiles, err := profile.NewLoader(log).LoadDirectory(args[0])
			if err != nil {
				return err
			}
			// rejects duplicate or too few profiles before anything is written
			if _, err := profile.NewSet(profiles); err != nil {
				return err
			}

			db, err := database.NewPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.SaveAll(cmd.Context(), db, profiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d profiles\n", len(profiles))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file with the database settings")
	return cmd
}
