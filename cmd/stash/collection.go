package main

import (
	"fmt"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/spf13/cobra"
)

var (
	collectionDescription string
	collectionColor       string
	collectionIcon        string
)

func init() {
	collectionCreateCmd.Flags().StringVarP(&collectionDescription, "description", "d", "", "Collection description")
	collectionCreateCmd.Flags().StringVar(&collectionColor, "color", "", "Display color (hex, defaults to "+knowledge.DefaultCollectionColor+")")
	collectionCreateCmd.Flags().StringVar(&collectionIcon, "icon", "", "Display icon (defaults to "+knowledge.DefaultCollectionIcon+")")
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionListCmd)
	rootCmd.AddCommand(collectionCmd)
}

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"collections"},
	Short:   "Manage collections",
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionCreate,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections with entry counts",
	RunE:  runCollectionList,
}

// CollectionsResult is the response for collection list.
type CollectionsResult struct {
	Count       int                    `json:"count"`
	Collections []knowledge.Collection `json:"collections"`
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	coll, err := db.CreateCollection(knowledge.Collection{
		Name:        args[0],
		Description: collectionDescription,
		Color:       collectionColor,
		Icon:        collectionIcon,
	})
	if err != nil {
		exitWithError(ExitError, "creating collection: %v", err)
	}

	if humanOutput {
		outputHuman("Created collection #%d %q\n", coll.ID, coll.Name)
	} else {
		outputJSON(coll)
	}
	return nil
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	collections, err := db.ListCollections()
	if err != nil {
		exitWithError(ExitError, "listing collections: %v", err)
	}

	if humanOutput {
		if len(collections) == 0 {
			outputHuman("No collections\n")
			return nil
		}
		for _, coll := range collections {
			fmt.Printf("#%-4d %-24s %d entries\n", coll.ID, coll.Name, coll.EntryCount)
		}
		return nil
	}
	outputJSON(CollectionsResult{Count: len(collections), Collections: collections})
	return nil
}
