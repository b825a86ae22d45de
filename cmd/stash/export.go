package main

import (
	"encoding/json"
	"os"

	"github.com/davidwry/stash/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportRepo   string
	exportTags   []string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().StringVar(&exportRepo, "repo", "", "Only entries matching repository (substring match)")
	exportCmd.Flags().StringSliceVarP(&exportTags, "tag", "t", nil, "Only entries with tag (can be repeated)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries as a portable JSON document",
	Long: `Export entries as a versioned JSON document with tags, metadata, and git
context. The document can be re-imported with "stash import".`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	data, err := db.Export(storage.SearchFilters{Repo: exportRepo, Tags: exportTags})
	if err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if exportOutput != "" {
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			exitWithError(ExitError, "encoding export: %v", err)
		}
		if err := os.WriteFile(exportOutput, raw, 0644); err != nil {
			exitWithError(ExitError, "writing export: %v", err)
		}
		if humanOutput {
			outputHuman("Exported %d entries to %s\n", len(data.Entries), exportOutput)
		} else {
			outputJSON(StatusResponse{Status: "exported"})
		}
		return nil
	}

	outputJSON(data)
	return nil
}
