package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"auditdna/internal/app"
	"auditdna/internal/db"
	"auditdna/internal/db/repository"
)

func newSeedCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default namespace with demo data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			ns, err := db.OpenNamespace(filepath.Join(cfg.DataDir, "default.sqlite"))
			if err != nil {
				return err
			}
			defer ns.Close() //nolint:errcheck

			if err := app.SeedDemoData(cmd.Context(), repository.NewStores(ns)); err != nil {
				return err
			}
			logger.Info("demo data seeded", "path", filepath.Join(cfg.DataDir, "default.sqlite"))
			return nil
		},
	}
}
