package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/iliyamo/movieweb/internal/config"
	"github.com/iliyamo/movieweb/internal/database"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage != config.StorageMySQL {
		log.Printf("migrate: storage is %q, nothing to do", cfg.Storage)
		return nil
	}

	db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	log.Printf("migrate: schema is up to date on %s/%s", cfg.DB.Host, cfg.DB.Name)
	return nil
}
