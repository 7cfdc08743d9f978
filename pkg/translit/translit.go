// Package translit renders words phonetically in Latin script.
package translit

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Transliterator renders a word in Latin script. Words that are already Latin, or
// that cannot be rendered, are reported with ok == false.
type Transliterator interface {
	Transliterate(word string) (string, bool)
}

// Unidecode transliterates with the unidecode tables. Kana become Hepburn-like
// romaji, Hangul is romanized and Cyrillic or Greek letters are mapped one by one.
type Unidecode struct{}

func (Unidecode) Transliterate(word string) (string, bool) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", false
	}
	out := strings.Join(strings.Fields(unidecode.Unidecode(word)), " ")
	if out == "" || out == word || strings.Trim(out, "?[]") == "" {
		return "", false
	}
	return out, true
}
