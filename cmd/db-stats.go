package cmd

import (
	"fmt"
	"os"

	"github.com/ccoveille/go-safecast"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database"
	"github.com/jon4hz/neurofit/internal/diskusage"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display statistics about registered users and stored health samples.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Driver: %s\n", cfg.Database.Driver)
		if size, ok := databaseFileSize(cfg.Database); ok {
			fmt.Printf("Database Size: %s\n", humanize.Bytes(size))
		}
		fmt.Printf("Users: %s\n", humanize.Comma(stats.Users))
		fmt.Printf("Health Samples: %s\n", humanize.Comma(stats.HealthSamples))

		if usage, err := diskusage.Highest(cmd.Context(), diskusage.Paths(cfg)); err == nil {
			fmt.Printf("Data Volume: %.1f%% used, %s free of %s (%s)\n",
				usage.UsedPercent, humanize.Bytes(usage.Free), humanize.Bytes(usage.Total), usage.Path)
		}

		if stats.LastSampleTime != nil {
			fmt.Printf("Last Sample: %s (%s)\n", stats.LastSampleTime.Format("2006-01-02 15:04:05"), timediff.TimeDiff(*stats.LastSampleTime))
		} else {
			fmt.Println("Last Sample: never")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}

func databaseFileSize(cfg *config.DatabaseConfig) (uint64, bool) {
	if cfg.Driver != config.DatabaseDriverSQLite {
		return 0, false
	}
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return 0, false
	}
	size, err := safecast.Convert[uint64](info.Size())
	if err != nil {
		return 0, false
	}
	return size, true
}
