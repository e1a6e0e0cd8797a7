// Package categorizer maps free text onto category slugs using keyword
// vocabularies, with a fuzzy near-miss pass for misspelled keywords.
package categorizer

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"hishab/internal/logging"
	"hishab/internal/models"
	"hishab/internal/vocab"
)

// maxFuzzyDistance bounds the Levenshtein distance accepted by the near-miss
// pass. Anything further is treated as a different word entirely.
const maxFuzzyDistance = 1

// minFuzzyKeywordLen guards against fuzzy-matching very short keywords, where
// a distance of 1 covers half the word.
const minFuzzyKeywordLen = 5

type keywordEntry struct {
	keyword string
	slug    string
}

// Categorizer resolves text to a slug from a fixed vocabulary. Matching is
// case-insensitive substring containment; when several keywords hit, the
// longest keyword wins so "electricity bill" beats "bill".
type Categorizer struct {
	keywords []keywordEntry
	logger   logging.Logger
}

// New builds a Categorizer over the given vocabulary. Keywords are sorted
// longest-first once so every Categorize call resolves ties deterministically.
func New(v vocab.Vocabulary, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}

	var keywords []keywordEntry
	for _, entry := range v.Entries {
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			keywords = append(keywords, keywordEntry{keyword: kw, slug: entry.Slug})
		}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i].keyword) > len(keywords[j].keyword)
	})

	return &Categorizer{keywords: keywords, logger: logger}
}

// Categorize returns the slug for the first (longest) keyword contained in
// text, falling back to a fuzzy scan over individual words, then to "other".
func (c *Categorizer) Categorize(text string) string {
	lowered := strings.ToLower(text)

	for _, entry := range c.keywords {
		if strings.Contains(lowered, entry.keyword) {
			return entry.slug
		}
	}

	if slug, ok := c.fuzzyMatch(lowered); ok {
		return slug
	}

	return models.CategoryOther
}

// fuzzyMatch compares each word of the text against the keyword table,
// tolerating a single-character typo ("grocries" still lands on groceries).
func (c *Categorizer) fuzzyMatch(lowered string) (string, bool) {
	words := strings.Fields(lowered)
	for _, entry := range c.keywords {
		if len(entry.keyword) < minFuzzyKeywordLen {
			continue
		}
		for _, word := range words {
			// RankMatch only fires when its first argument is a subsequence
			// of the second, so check both directions to cover dropped and
			// inserted characters.
			rank := fuzzy.RankMatch(word, entry.keyword)
			if rank < 0 {
				rank = fuzzy.RankMatch(entry.keyword, word)
			}
			if rank >= 0 && rank <= maxFuzzyDistance {
				c.logger.WithFields(
					logging.Field{Key: "keyword", Value: entry.keyword},
					logging.Field{Key: "word", Value: word},
					logging.Field{Key: logging.FieldCategory, Value: entry.slug},
				).Debug("fuzzy keyword match")
				return entry.slug, true
			}
		}
	}
	return "", false
}
