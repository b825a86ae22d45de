package main

import (
	"github.com/davidwry/stash/internal/config"
	"github.com/davidwry/stash/internal/migrate"
	"github.com/spf13/cobra"
)

var backupLegacyPath string

func init() {
	backupCmd.Flags().StringVar(&backupLegacyPath, "legacy", "", "Path to the legacy store (defaults to .stash/legacy.db)")
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup <output.json>",
	Short: "Write a JSON backup of a legacy store",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	legacyPath := backupLegacyPath
	if legacyPath == "" {
		legacyPath = config.LegacyDBPath(repoRoot)
	}
	legacyPath = config.ExpandTilde(legacyPath)

	db := mustOpenStore(repoRoot)
	defer db.Close()

	if !migrate.NewService(db).BackupLegacyData(legacyPath, args[0]) {
		exitWithError(ExitDataError, "no legacy data found at %s", legacyPath)
	}

	if humanOutput {
		outputHuman("Backup written to %s\n", args[0])
	} else {
		outputJSON(StatusResponse{Status: "backed_up", Path: args[0]})
	}
	return nil
}
