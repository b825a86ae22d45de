package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an entry with its tags, metadata, and related entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithError(ExitDataError, "invalid entry id %q", args[0])
	}

	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	svc := newService(db)
	entry, err := svc.GetEntry(context.Background(), id)
	if err != nil {
		if errors.Is(err, knowledge.ErrNotFound) {
			exitWithError(ExitDataError, "entry %d not found", id)
		}
		exitWithError(ExitError, "getting entry: %v", err)
	}

	if humanOutput {
		printEntryDetail(entry)
	} else {
		outputJSON(entry)
	}
	return nil
}
