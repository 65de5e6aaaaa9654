package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/cache"
	"github.com/jon4hz/neurofit/internal/database"
	"github.com/spf13/cobra"
)

var resetCmdFlags struct {
	Yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate all tables",
	Long:  `This command deletes all users and health samples by dropping and recreating every table. The schema stays intact.`,
	Run:   reset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetCmdFlags.Yes, "yes", "y", false, "Confirm that all data should be deleted")

	rootCmd.AddCommand(resetCmd)
}

func reset(cmd *cobra.Command, _ []string) {
	if !resetCmdFlags.Yes {
		log.Fatal("refusing to reset the database without --yes")
	}

	cfg := loadConfig()

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	log.Info("Resetting database...")

	if err := db.Reset(cmd.Context()); err != nil {
		log.Fatalf("failed to reset database: %v", err)
	}

	// sessions of deleted users must not be served from a shared redis cache
	cache.NewUserCache(cfg.Cache).Clear(cmd.Context())

	log.Info("Successfully reset the database!")
}
