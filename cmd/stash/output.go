package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/davidwry/stash/internal/knowledge"
)

// Constants for output formatting.
const (
	// ContentMaxLen truncates entry content in list output.
	ContentMaxLen = 70
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON)
// and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// printEntrySummary prints one entry as a human-readable list item.
func printEntrySummary(e knowledge.Entry) {
	fmt.Printf("#%d %s\n", e.ID, truncateString(e.Content, ContentMaxLen))
	if len(e.Tags) > 0 {
		fmt.Printf("   tags: %s\n", strings.Join(e.TagNames(), ", "))
	}
	if e.Repo != "" {
		fmt.Printf("   repo: %s", e.Repo)
		if e.Branch != "" {
			fmt.Printf(" (%s)", e.Branch)
		}
		fmt.Println()
	}
	fmt.Printf("   created: %s\n\n", e.CreatedAt.Format("2006-01-02 15:04"))
}

// printEntryDetail prints a full entry view.
func printEntryDetail(e *knowledge.Entry) {
	fmt.Printf("#%d\n", e.ID)
	fmt.Println(strings.Repeat("=", ContentMaxLen))
	fmt.Println(e.Content)
	fmt.Println()

	if len(e.Tags) > 0 {
		fmt.Printf("Tags:       %s\n", strings.Join(e.TagNames(), ", "))
	}
	for _, m := range e.Metadata {
		fmt.Printf("Meta:       %s = %s (%s)\n", m.Key, m.Value, m.Type)
	}
	if e.Collection != nil {
		fmt.Printf("Collection: %s\n", e.Collection.Name)
	}
	if e.Repo != "" {
		fmt.Printf("Repo:       %s\n", e.Repo)
	}
	if e.Branch != "" {
		fmt.Printf("Branch:     %s\n", e.Branch)
	}
	if e.CommitSHA != "" {
		fmt.Printf("Commit:     %s\n", e.CommitSHA)
	}
	if e.Author != "" {
		fmt.Printf("Author:     %s\n", e.Author)
	}
	fmt.Printf("Created:    %s\n", e.CreatedAt.Format("2006-01-02 15:04"))

	if len(e.TagRelated) > 0 {
		fmt.Println("\nRelated by tags:")
		for _, r := range e.TagRelated {
			fmt.Printf("  #%d %s\n", r.ID, truncateString(r.Content, ContentMaxLen-8))
		}
	}
	if len(e.SemanticallySimilar) > 0 {
		fmt.Println("\nSimilar:")
		for _, r := range e.SemanticallySimilar {
			fmt.Printf("  #%d %s\n", r.ID, truncateString(r.Content, ContentMaxLen-8))
		}
	}
	if len(e.Outgoing) > 0 {
		fmt.Println("\nLinks to:")
		for _, r := range e.Outgoing {
			fmt.Printf("  [%d] %s #%d\n", r.ID, r.TypeDisplay(), r.ToEntryID)
		}
	}
	if len(e.Incoming) > 0 {
		fmt.Println("\nLinked from:")
		for _, r := range e.Incoming {
			fmt.Printf("  [%d] %s #%d\n", r.ID, r.TypeDisplay(), r.FromEntryID)
		}
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
