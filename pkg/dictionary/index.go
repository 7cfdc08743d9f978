package dictionary

import (
	"encoding/json"
	"sort"
	"strings"
)

// Index is an in-memory lookup table over JMdict entries keyed by kanji and kana
// spellings. It is read-only after NewIndex and safe for concurrent lookups.
type Index struct {
	index map[string][]JMdictEntry
}

// NewIndex builds an index of the provided dictionary.
func NewIndex(entries []JMdictEntry) *Index {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, s := range e.Spellings() {
			idx[s] = append(idx[s], e)
		}
	}
	return &Index{index: idx}
}

// Len is the number of indexed spellings.
func (ix *Index) Len() int { return len(ix.index) }

// Lookup finds matching entries for a given word, lemma, and pronunciation.
// The result is ordered by entry ID; nil means no match.
func (ix *Index) Lookup(word, lemma, pronunciation string) []JMdictEntry {
	candidates := make(map[string]JMdictEntry) // dedupe by entry ID
	search := func(term string) {
		if term == "" {
			return
		}
		for _, e := range ix.index[term] {
			candidates[e.Id] = e
		}
	}
	search(word)
	search(lemma)

	var results []JMdictEntry
	for _, entry := range candidates {
		// The word or its lemma must be a spelling, and a known reading must match.
		if entry.Spelled(word, lemma) && (pronunciation == "" || entry.ReadAs(pronunciation)) {
			results = append(results, entry)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Id < results[j].Id
	})
	return results
}

// DefinitionsJSON returns the JSON list of definitions for the given word details,
// or "" when nothing matches.
func (ix *Index) DefinitionsJSON(word, lemma, pronunciation string) (string, error) {
	matches := ix.Lookup(word, lemma, pronunciation)
	if len(matches) == 0 {
		return "", nil
	}
	return FormatDefinitions(matches)
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// FormatDefinitions flattens the entries into a JSON list of glosses and POS tags.
func FormatDefinitions(entries []JMdictEntry) (string, error) {
	var defs []DefinitionEntry
	for _, e := range entries {
		var poses []string
		for _, s := range e.Sense {
			poses = append(poses, s.PartOfSpeech...)
		}
		defs = append(defs, DefinitionEntry{Senses: e.Glosses(), POS: poses})
	}
	b, err := json.Marshal(defs)
	return string(b), err
}

// FormatGlosses joins up to max glosses of the first matching entry with "; ".
func FormatGlosses(entries []JMdictEntry, max int) string {
	if len(entries) == 0 {
		return ""
	}
	glosses := entries[0].Glosses()
	if max > 0 && len(glosses) > max {
		glosses = glosses[:max]
	}
	return strings.Join(glosses, "; ")
}
