package semantic

import (
	"sort"
	"strings"
	"unicode"
)

// tagKeywords maps each suggestible tag to the content keywords that
// trigger it.
var tagKeywords = map[string][]string{
	"bug":         {"bug", "issue", "error"},
	"feature":     {"feature", "enhancement", "add"},
	"performance": {"slow", "fast", "optimize", "performance"},
	"security":    {"security", "auth", "token", "password"},
	"database":    {"database", "sql", "query", "table"},
	"api":         {"api", "endpoint", "rest", "graphql"},
}

// SuggestTags proposes tag names for content by keyword matching. Results
// are deduplicated and sorted for stable output.
func SuggestTags(content string) []string {
	lower := strings.ToLower(content)

	var suggestions []string
	for tag, words := range tagKeywords {
		for _, word := range words {
			if strings.Contains(lower, word) {
				suggestions = append(suggestions, tag)
				break
			}
		}
	}

	sort.Strings(suggestions)
	return suggestions
}

// Similarity computes the Jaccard similarity of the word sets of two
// texts: the size of the intersection over the size of the union.
func Similarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}

	union := len(wordsB)
	for w := range wordsA {
		if !wordsB[w] {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// wordSet splits text into a set of lowercased words.
func wordSet(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
