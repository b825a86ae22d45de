package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(unrelateCmd)
}

var unrelateCmd = &cobra.Command{
	Use:   "unrelate <relationship-id>",
	Short: "Remove a relationship by id (one direction only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnrelate,
}

func runUnrelate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithError(ExitDataError, "invalid relationship id %q", args[0])
	}

	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	deleted, err := db.DeleteRelationship(id)
	if err != nil {
		exitWithError(ExitError, "deleting relationship: %v", err)
	}
	if !deleted {
		exitWithError(ExitDataError, "relationship %d not found", id)
	}

	if humanOutput {
		outputHuman("Removed relationship #%d\n", id)
	} else {
		outputJSON(StatusResponse{Status: "unrelated"})
	}
	return nil
}
