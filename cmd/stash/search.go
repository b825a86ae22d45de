package main

import (
	"context"
	"fmt"

	"github.com/davidwry/stash/internal/storage"
	"github.com/spf13/cobra"
)

var (
	searchRepo        string
	searchCollection  int64
	searchBranch      string
	searchAuthor      string
	searchProjectType string
	searchTags        []string
	searchTodo        bool
	searchPriority    string
	searchStatus      string
	searchRecent      int
	searchContext     bool
	searchLimit       int
)

func init() {
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "Filter by repository (substring match)")
	searchCmd.Flags().Int64VarP(&searchCollection, "collection", "c", 0, "Filter by collection id")
	searchCmd.Flags().StringVar(&searchBranch, "branch", "", "Filter by branch (exact match)")
	searchCmd.Flags().StringVar(&searchAuthor, "author", "", "Filter by author (substring match)")
	searchCmd.Flags().StringVar(&searchProjectType, "project-type", "", "Filter by project type (exact match)")
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "Require tag (can be repeated; all must match)")
	searchCmd.Flags().BoolVar(&searchTodo, "todo", false, "Only entries carrying the todo tag")
	searchCmd.Flags().StringVar(&searchPriority, "priority", "", "Filter by priority metadata")
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "Filter by status metadata")
	searchCmd.Flags().IntVar(&searchRecent, "recent", 0, "Only entries created in the last N days")
	searchCmd.Flags().BoolVar(&searchContext, "context", false, "Rank entries from the current repo first")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", storage.DefaultSearchLimit, "Maximum results")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search entries with filters",
	Long: `Search entries by content and tag text, narrowed by filters.

All filters AND together. With a query and embeddings enabled, results are
ranked by semantic similarity; otherwise by context relevance (current repo
first with --context) then recency.

Examples:
  stash search "login bug"
  stash search -t bug -t auth --recent 7
  stash search --todo --priority high
  stash search --context --repo myorg/api`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

// SearchResult is the response for the search command.
type SearchResult struct {
	Query   string           `json:"query,omitempty"`
	Count   int              `json:"count"`
	Entries []*searchedEntry `json:"entries"`
}

type searchedEntry struct {
	ID        int64             `json:"id"`
	Content   string            `json:"content"`
	Repo      string            `json:"repo,omitempty"`
	Branch    string            `json:"branch,omitempty"`
	Tags      []string          `json:"tags"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	svc := newService(db)
	filters := storage.SearchFilters{
		Repo:         searchRepo,
		CollectionID: searchCollection,
		Branch:       searchBranch,
		Author:       searchAuthor,
		ProjectType:  searchProjectType,
		Tags:         searchTags,
		TodoOnly:     searchTodo,
		Priority:     searchPriority,
		Status:       searchStatus,
		RecentDays:   searchRecent,
		Limit:        searchLimit,
	}
	if searchContext {
		filters.CurrentRepo = svc.CurrentRepo()
	}

	entries, err := svc.Search(context.Background(), query, filters)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if humanOutput {
		if len(entries) == 0 {
			outputHuman("No entries found\n")
			return nil
		}
		for _, entry := range entries {
			printEntrySummary(entry)
		}
		fmt.Printf("\n%d entries\n", len(entries))
		return nil
	}

	result := SearchResult{Query: query, Count: len(entries), Entries: make([]*searchedEntry, 0, len(entries))}
	for _, entry := range entries {
		meta := make(map[string]string, len(entry.Metadata))
		for _, m := range entry.Metadata {
			meta[m.Key] = m.Value
		}
		result.Entries = append(result.Entries, &searchedEntry{
			ID:        entry.ID,
			Content:   entry.Content,
			Repo:      entry.Repo,
			Branch:    entry.Branch,
			Tags:      entry.TagNames(),
			Metadata:  meta,
			CreatedAt: entry.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	outputJSON(result)
	return nil
}
