package main

import (
	"os"

	"github.com/davidwry/stash/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a stash repository in the current directory",
	Long: `Initialize a stash repository.

Creates the .stash/ directory and an empty knowledge database.

Example:
  stash init`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsRepository(cwd) {
		exitWithError(ExitError, "already a stash repository: %s", config.StashPath(cwd))
	}

	if err := config.InitRepository(cwd); err != nil {
		exitWithError(ExitError, "initializing repository: %v", err)
	}

	db := mustOpenStore(cwd)
	db.Close()

	if humanOutput {
		outputHuman("Initialized stash repository at %s\n", config.StashPath(cwd))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.StashPath(cwd)})
	}
	return nil
}
