// Package main provides the stash CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/davidwry/stash/internal/config"
	"github.com/davidwry/stash/internal/embedding"
	"github.com/davidwry/stash/internal/service"
	"github.com/davidwry/stash/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stash",
	Short: "Git-aware personal knowledge store CLI",
	Long: `stash is a git-aware knowledge store for short notes and learnings.

Core features:
  - Entries with tags, typed metadata, and collection grouping
  - Directed relationships between entries (depends_on, extends, ...)
  - Filtered search with optional semantic ranking via embeddings
  - Git provenance (repo, branch, commit, author) stamped on every entry
  - Migration and import from legacy stores and JSON backups

Data is stored in a single SQLite database under .stash/.
All commands output JSON by default for scripting and agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a
// repository. Checks global config stash_path first, then the working
// directory.
func getStartingDirectory() (string, int) {
	if root := config.GetStashPath(); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustOpenStore opens the knowledge database, exits on error. The caller is
// responsible for calling Close() on the returned DB.
func mustOpenStore(repoRoot string) *storage.DB {
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// checkFirstRun prints a one-time notice when the repository has not been
// used within the TTL window. Best effort; never fails the command.
func checkFirstRun(repoRoot string) {
	if config.FirstRunChecked(repoRoot) {
		return
	}
	if humanOutput {
		fmt.Fprintf(os.Stderr, "Using knowledge store at %s\n", config.StashPath(repoRoot))
	}
	_ = config.MarkFirstRunChecked(repoRoot)
}

// newService wires the store with its collaborators according to the
// global config. Embeddings stay off unless enabled there.
func newService(db *storage.DB) *service.Service {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	var embedder embedding.Provider
	if cfg, err := config.LoadGlobalConfig(); err == nil && cfg.EmbeddingEnabled {
		var opts []embedding.OllamaOption
		if cfg.OllamaURL != "" {
			opts = append(opts, embedding.WithBaseURL(cfg.OllamaURL))
		}
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embedding.WithModel(cfg.EmbeddingModel))
		}
		if cfg.EmbeddingDimensions > 0 {
			opts = append(opts, embedding.WithDimensions(cfg.EmbeddingDimensions))
		}
		embedder = embedding.NewOllamaProvider(opts...)
	}

	return service.New(db, embedder, cwd)
}
