package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"merchingest/internal/config"
	"merchingest/internal/db"
	"merchingest/internal/objectstore"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Creates the Postgres tables and the MinIO bucket used by self-hosted backends.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL", config.ErrMissingCredentials)
		}
		if err := db.ApplySchema(cmd.Context(), cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")

		if cfg.ObjectBackend != config.BackendMinio {
			return nil
		}
		store, err := objectstore.New(minioConfig(cfg))
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bucket %s ready\n", cfg.MinioBucket)
		return nil
	},
}
