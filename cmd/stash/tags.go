package main

import (
	"fmt"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/spf13/cobra"
)

var tagsLimit int

func init() {
	tagsPopularCmd.Flags().IntVarP(&tagsLimit, "limit", "n", 20, "Maximum tags to show")
	tagsCmd.AddCommand(tagsPopularCmd)
	rootCmd.AddCommand(tagsCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags",
	RunE:  runTags,
}

var tagsPopularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List tags ordered by usage",
	RunE:  runTagsPopular,
}

// TagsResult is the response for the tags commands.
type TagsResult struct {
	Count int             `json:"count"`
	Tags  []knowledge.Tag `json:"tags"`
}

func runTags(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	tags, err := db.AllTags()
	if err != nil {
		exitWithError(ExitError, "listing tags: %v", err)
	}
	printTags(tags)
	return nil
}

func runTagsPopular(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	tags, err := db.PopularTags(tagsLimit)
	if err != nil {
		exitWithError(ExitError, "listing popular tags: %v", err)
	}
	printTags(tags)
	return nil
}

func printTags(tags []knowledge.Tag) {
	if humanOutput {
		if len(tags) == 0 {
			outputHuman("No tags\n")
			return
		}
		for _, tag := range tags {
			fmt.Printf("%-24s %d\n", tag.Name, tag.UsageCount)
		}
		return
	}
	outputJSON(TagsResult{Count: len(tags), Tags: tags})
}
