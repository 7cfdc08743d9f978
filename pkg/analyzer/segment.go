package analyzer

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Segmenter splits text on Unicode sentence and word boundaries (UAX #29).
// It is used for every language without a dedicated morphological analyzer.
type Segmenter struct{}

func NewSegmenter() *Segmenter { return &Segmenter{} }

func (s *Segmenter) AnalyzeDocument(text string) ([]Sentence, error) {
	var result []Sentence
	rest := Normalize(text)
	state := -1
	for len(rest) > 0 {
		var sentence string
		sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		result = append(result, Sentence{Text: sentence, Tokens: Words(sentence)})
	}
	return result, nil
}

// Words returns the word tokens of a sentence.
func Words(sentence string) []Token {
	var tokens []Token
	rest := sentence
	state := -1
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if IsWord(word) {
			tokens = append(tokens, Token{Surface: word})
		}
	}
	return tokens
}
