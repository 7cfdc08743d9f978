package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/japaniel/talkwords/pkg/config"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface string // The text as it appears (e.g. "Lord", "行っ")
	// Lemma is the dictionary form when the analyzer knows it (kagome does, prose does not).
	Lemma string
	// Reading is the pronunciation in katakana for Japanese, empty otherwise.
	Reading string
	POS     string
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyzer splits a paragraph into sentences and each sentence into word tokens.
type Analyzer interface {
	AnalyzeDocument(text string) ([]Sentence, error)
}

// New returns the analyzer for the given archive language. pos asks for
// part-of-speech tags where tagging has a cost of its own (English).
func New(lang config.Language, pos bool) (Analyzer, error) {
	switch lang.Code {
	case "jpn":
		return NewJapanese()
	case "eng":
		return NewEnglish(pos)
	default:
		return NewSegmenter(), nil
	}
}

// HasPOS reports whether the analyzer for lang assigns part-of-speech tags.
func HasPOS(lang config.Language) bool {
	return lang.Code == "jpn" || lang.Code == "eng"
}

// Normalize applies NFC so that composed and decomposed spellings count as one word.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// IsWord reports whether a token should be counted. Whitespace and tokens made only of
// punctuation or symbols (".", "—", "...") are dropped.
func IsWord(surface string) bool {
	s := strings.TrimSpace(surface)
	if s == "" {
		return false
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return isWordRune(r)
	}
	for _, r := range s {
		if isWordRune(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
