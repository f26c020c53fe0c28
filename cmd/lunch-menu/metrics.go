package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"lunch-menu/internal/config"
	"lunch-menu/internal/database"
	"lunch-menu/internal/metrics"

	"github.com/spf13/cobra"
)

var (
	metricsDays int
	cleanupDays int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show recorded backend calls and process health",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, dataDir, err := openMetrics()
		if err != nil {
			return err
		}
		defer db.Close()

		daily, err := store.GetDailyUsage(metricsDays)
		if err != nil {
			return err
		}
		endpoints, err := store.GetEndpointUsage(metricsDays)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tCALLS\tFAILED\tAVG MS")
		for _, d := range daily {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.Date, d.Calls, d.Failures, d.AvgLatencyMS)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ENDPOINT\tCALLS\tFAILED\tAVG MS")
		for _, e := range endpoints {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", e.Endpoint, e.Calls, e.Failures, e.AvgLatencyMS)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		h := metrics.GetSysHealth(dataDir)
		fmt.Fprintf(cmd.OutOrStdout(), "\nData on disk: %s\n", h.DataDiskSize)
		return nil
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Delete recorded backend calls older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, _, err := openMetrics()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := store.Cleanup(cleanupDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records older than %d days\n", n, cleanupDays)
		return nil
	},
}

// openMetrics opens the metrics database without requiring a backend URL.
func openMetrics() (*metrics.Store, *database.DB, string, error) {
	path := config.DefaultDatabasePath
	if cfg, err := loadConfig(); err == nil {
		path = cfg.DatabasePath
	}

	db, err := database.NewDB(path, metrics.Migrations())
	if err != nil {
		return nil, nil, "", fmt.Errorf("opening database: %w", err)
	}
	return metrics.NewStore(db.SQL), db, filepath.Dir(path), nil
}

func init() {
	metricsCmd.Flags().IntVar(&metricsDays, "days", 7, "number of days to report")
	metricsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "delete records older than this many days")
	rootCmd.AddCommand(metricsCmd, metricsCleanupCmd)
}
