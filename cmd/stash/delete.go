package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an entry and its tags, metadata, and relationships",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithError(ExitDataError, "invalid entry id %q", args[0])
	}

	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	deleted, err := db.DeleteEntry(id)
	if err != nil {
		exitWithError(ExitError, "deleting entry: %v", err)
	}
	if !deleted {
		exitWithError(ExitDataError, "entry %d not found", id)
	}

	if humanOutput {
		outputHuman("Deleted entry #%d\n", id)
	} else {
		outputJSON(StatusResponse{Status: "deleted"})
	}
	return nil
}
