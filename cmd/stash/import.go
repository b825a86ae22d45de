package main

import (
	"fmt"
	"os"

	"github.com/davidwry/stash/internal/migrate"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <backup.json>",
	Short: "Import entries from a JSON backup or export file",
	Long: `Import entries from a JSON backup or export file into a new landing
collection. The import runs in a single transaction; individual bad records
are skipped and reported without aborting the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	outcome := migrate.NewService(db).ImportFromBackup(args[0])
	printOutcome(outcome, "Import")
	return nil
}

// printOutcome renders a migration outcome and exits non-zero on failure.
func printOutcome(outcome *migrate.Outcome, label string) {
	if humanOutput {
		outputHuman("%s: %s\n", label, outcome.Status)
		if outcome.Message != "" {
			outputHuman("%s\n", outcome.Message)
		}
		outputHuman("Entries: %d  Tags: %d  Collections: %d\n",
			outcome.EntriesMigrated, outcome.TagsMigrated, outcome.CollectionsCreated)
		for _, e := range outcome.Errors {
			fmt.Printf("  error: %s\n", e)
		}
	} else {
		outputJSON(outcome)
	}
	if outcome.Status == migrate.StatusError {
		os.Exit(ExitDataError)
	}
}
