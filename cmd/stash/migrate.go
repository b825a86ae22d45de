package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidwry/stash/internal/config"
	"github.com/davidwry/stash/internal/migrate"
	"github.com/spf13/cobra"
)

var (
	migrateLegacyPath   string
	migrateBackupFirst  bool
	migrateRemoveLegacy bool
	migrateYes          bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateLegacyPath, "legacy", "", "Path to the legacy store (defaults to .stash/legacy.db)")
	migrateCmd.Flags().BoolVar(&migrateBackupFirst, "backup", false, "Write a JSON backup of the legacy store before migrating")
	migrateCmd.Flags().BoolVar(&migrateRemoveLegacy, "remove-legacy", false, "Drop the legacy tables after a successful migration")
	migrateCmd.Flags().BoolVarP(&migrateYes, "yes", "y", false, "Skip the confirmation prompt for --remove-legacy")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate entries from a legacy store",
	Long: `Migrate entries, tags, and metadata from a legacy SQLite store into a new
landing collection.

The migration runs in a single transaction. Individual bad records are
skipped and reported; tag usage counts are replayed from the legacy store
authoritatively. With no legacy store present the command reports no_data
and changes nothing.

--remove-legacy drops the legacy tables after the data is copied. This is
destructive and requires --yes.`,
	RunE: runMigrate,
}

// MigrateResult is the response for the migrate command.
type MigrateResult struct {
	*migrate.Outcome
	BackupPath    string   `json:"backup_path,omitempty"`
	TablesRemoved []string `json:"tables_removed,omitempty"`
}

func runMigrate(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	legacyPath := migrateLegacyPath
	if legacyPath == "" {
		legacyPath = config.LegacyDBPath(repoRoot)
	}
	legacyPath = config.ExpandTilde(legacyPath)

	if migrateRemoveLegacy && !migrateYes {
		exitWithError(ExitDataError, "--remove-legacy is destructive; re-run with --yes to confirm")
	}

	db := mustOpenStore(repoRoot)
	defer db.Close()
	svc := migrate.NewService(db)

	result := &MigrateResult{}

	if migrateBackupFirst {
		name := fmt.Sprintf("legacy-backup-%s.json", time.Now().Format("20060102-150405"))
		backupPath := filepath.Join(config.StashPath(repoRoot), name)
		if svc.BackupLegacyData(legacyPath, backupPath) {
			result.BackupPath = backupPath
		}
	}

	result.Outcome = svc.MigrateFromLegacy(legacyPath)

	if migrateRemoveLegacy && result.Status == migrate.StatusSuccess {
		removal := svc.RemoveLegacySystem(legacyPath)
		result.TablesRemoved = removal.TablesRemoved
		result.Errors = append(result.Errors, removal.Errors...)
	}

	if humanOutput {
		outputHuman("Migration: %s\n", result.Status)
		if result.Message != "" {
			outputHuman("%s\n", result.Message)
		}
		outputHuman("Entries: %d  Tags: %d  Collections: %d\n",
			result.EntriesMigrated, result.TagsMigrated, result.CollectionsCreated)
		if result.BackupPath != "" {
			outputHuman("Backup: %s\n", result.BackupPath)
		}
		if len(result.TablesRemoved) > 0 {
			outputHuman("Removed legacy tables: %s\n", strings.Join(result.TablesRemoved, ", "))
		}
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
	} else {
		outputJSON(result)
	}

	if result.Status == migrate.StatusError {
		os.Exit(ExitDataError)
	}
	return nil
}
