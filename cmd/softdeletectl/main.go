// softdeletectl runs maintenance tasks against the soft-delete store:
// schema migrations, collection inspection and retention sweeps.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-soft-delete/internal/app"
	"go-soft-delete/internal/config"
	"go-soft-delete/internal/database"
	"go-soft-delete/internal/logger"
	"go-soft-delete/internal/registry"
)

var (
	jsonOutput bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "softdeletectl",
	Short: "Maintenance commands for the soft-delete service",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))
		return nil
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		down, _ := cmd.Flags().GetInt("down")
		return database.Migrate(cfg.DatabaseURL, -down)
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections and their soft-delete state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadFile(cfg.CollectionsFile)
		if err != nil {
			return err
		}
		if len(cfg.EnabledCollections) > 0 {
			reg.Allow(cfg.EnabledCollections)
		}
		reg.Annotate()

		type row struct {
			UID        string `json:"uid"`
			Kind       string `json:"kind"`
			Name       string `json:"displayName"`
			SoftDelete bool   `json:"softDelete"`
		}
		rows := make([]row, 0)
		for _, c := range reg.All() {
			_, enabled := reg.Enabled(c.UID)
			rows = append(rows, row{UID: c.UID, Kind: string(c.Kind), Name: c.DisplayName, SoftDelete: enabled})
		}

		if jsonOutput {
			return printJSON(rows)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UID\tKIND\tNAME\tSOFT DELETE")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", r.UID, r.Kind, r.Name, r.SoftDelete)
		}
		return w.Flush()
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge records soft-deleted longer than RETENTION_DAYS",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.RetentionDays <= 0 {
			return fmt.Errorf("RETENTION_DAYS must be positive to sweep")
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		core, err := app.Bootstrap(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer core.Close()

		result, err := core.Retention.Sweep(cmd.Context(), dryRun)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}
		out := cmd.OutOrStdout()
		verb := "purged"
		if result.DryRun {
			verb = "would purge"
		}
		fmt.Fprintf(out, "%s %d record(s) deleted before %s\n", verb, result.Purged, result.Cutoff.Format("2006-01-02 15:04:05Z07:00"))
		uids := make([]string, 0, len(result.ByCollection))
		for uid := range result.ByCollection {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		for _, uid := range uids {
			fmt.Fprintf(out, "  %s: %d\n", uid, result.ByCollection[uid])
		}
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON output")
	migrateCmd.Flags().Int("down", 0, "roll back this many migrations instead of migrating up")
	sweepCmd.Flags().Bool("dry-run", false, "count expired records without purging")

	rootCmd.AddCommand(migrateCmd, collectionsCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
