package main

import (
	"context"
	"errors"
	"strings"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	addTags       []string
	addMeta       []string
	addCollection int64
)

func init() {
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag to attach (can be repeated)")
	addCmd.Flags().StringArrayVarP(&addMeta, "meta", "m", nil, "Metadata as key=value (can be repeated)")
	addCmd.Flags().Int64VarP(&addCollection, "collection", "c", 0, "Collection id to file the entry under")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Add a knowledge entry",
	Long: `Add a knowledge entry with optional tags and metadata.

The entry is stamped with the current git context (repo, branch, commit,
author) when available. Content-based tags are auto-suggested alongside any
explicit tags; only explicit tags count toward tag usage.

Examples:
  stash add "Fix login bug" -t bug -t auth
  stash add "Deploy requires VPN" -m priority=high -m status=open
  stash add "API notes" -c 2`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

// AddResult is the response for the add command.
type AddResult struct {
	ID     int64    `json:"id"`
	Tags   []string `json:"tags,omitempty"`
	Status string   `json:"status"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	repoRoot := mustFindRepository()
	checkFirstRun(repoRoot)

	db := mustOpenStore(repoRoot)
	defer db.Close()

	meta, err := parseMetaPairs(addMeta)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	svc := newService(db)
	id, err := svc.AddEntry(context.Background(), args[0], addTags, meta, addCollection)
	if err != nil {
		if errors.Is(err, knowledge.ErrEmptyContent) {
			exitWithError(ExitDataError, "adding entry: %v", err)
		}
		exitWithError(ExitError, "adding entry: %v", err)
	}

	entry, err := db.GetEntry(id)
	if err != nil || entry == nil {
		// The entry committed; fall back to a minimal result.
		entry = &knowledge.Entry{ID: id}
	}

	if humanOutput {
		outputHuman("Added entry #%d\n", id)
		if len(entry.Tags) > 0 {
			outputHuman("Tags: %s\n", strings.Join(entry.TagNames(), ", "))
		}
	} else {
		outputJSON(AddResult{ID: id, Tags: entry.TagNames(), Status: "added"})
	}
	return nil
}
