package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/spf13/cobra"
)

var (
	relateType          string
	relateStrength      float64
	relateMeta          []string
	relateBidirectional bool
)

func init() {
	relateCmd.Flags().StringVarP(&relateType, "type", "T", knowledge.RelRelatesTo, "Relationship type")
	relateCmd.Flags().Float64Var(&relateStrength, "strength", 1.0, "Relationship strength (0.0 to 1.0)")
	relateCmd.Flags().StringArrayVarP(&relateMeta, "meta", "m", nil, "Relationship metadata as key=value")
	relateCmd.Flags().BoolVarP(&relateBidirectional, "bidirectional", "b", false, "Also create the reverse relationship")
	rootCmd.AddCommand(relateCmd)
	rootCmd.AddCommand(relTypesCmd)
}

var relateCmd = &cobra.Command{
	Use:   "relate <from-id> <to-id>",
	Short: "Create a relationship between two entries",
	Long: `Create a directed relationship between two entries.

Use --bidirectional to also create the mirror edge; the two edges are
independent and can be deleted separately. Run "stash relate-types" for the
known relationship types.

Examples:
  stash relate 1 2 -T depends_on
  stash relate 3 4 -T similar_to --strength 0.8 -b`,
	Args: cobra.ExactArgs(2),
	RunE: runRelate,
}

var relTypesCmd = &cobra.Command{
	Use:   "relate-types",
	Short: "List known relationship types",
	RunE:  runRelateTypes,
}

// RelateResult is the response for the relate command.
type RelateResult struct {
	Relationships []*knowledge.Relationship `json:"relationships"`
	Status        string                    `json:"status"`
}

func runRelate(cmd *cobra.Command, args []string) error {
	fromID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithError(ExitDataError, "invalid entry id %q", args[0])
	}
	toID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		exitWithError(ExitDataError, "invalid entry id %q", args[1])
	}

	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	meta, err := parseMetaPairs(relateMeta)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	rel := knowledge.Relationship{
		FromEntryID: fromID,
		ToEntryID:   toID,
		Type:        relateType,
		Strength:    relateStrength,
		Metadata:    meta,
	}

	var created []*knowledge.Relationship
	if relateBidirectional {
		forward, reverse, berr := db.CreateBidirectional(rel)
		err = berr
		created = []*knowledge.Relationship{forward, reverse}
	} else {
		var single *knowledge.Relationship
		single, err = db.CreateRelationship(rel)
		created = []*knowledge.Relationship{single}
	}
	if err != nil {
		switch {
		case errors.Is(err, knowledge.ErrInvalidRelType),
			errors.Is(err, knowledge.ErrSelfRelationship),
			errors.Is(err, knowledge.ErrNotFound):
			exitWithError(ExitDataError, "creating relationship: %v", err)
		default:
			exitWithError(ExitError, "creating relationship: %v", err)
		}
	}

	if humanOutput {
		for _, r := range created {
			outputHuman("#%d %s #%d\n", r.FromEntryID, r.TypeDisplay(), r.ToEntryID)
		}
	} else {
		outputJSON(RelateResult{Relationships: created, Status: "created"})
	}
	return nil
}

func runRelateTypes(cmd *cobra.Command, args []string) error {
	types := make([]string, 0, len(knowledge.RelationshipTypes))
	for t := range knowledge.RelationshipTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	if humanOutput {
		for _, t := range types {
			fmt.Printf("%-16s %s\n", t, knowledge.RelationshipTypes[t])
		}
		return nil
	}
	outputJSON(knowledge.RelationshipTypes)
	return nil
}

func parseMetaPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q (expected key=value)", kv)
		}
		meta[key] = value
	}
	return meta, nil
}
