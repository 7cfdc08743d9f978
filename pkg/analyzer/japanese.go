package analyzer

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Japanese segments text with kagome and the IPA dictionary.
type Japanese struct {
	t *tokenizer.Tokenizer
}

// NewJapanese creates a new tokenizer instance.
func NewJapanese() (*Japanese, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Japanese{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Japanese) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if !IsWord(token.Surface) {
			continue
		}

		// IPA features:
		// 0: Part of Speech, 1-3: Sub-POS, 4: Conjugation Type, 5: Conjugation Form,
		// 6: Base Form, 7: Reading, 8: Pronunciation
		features := token.Features()

		lemma := ""
		if len(features) > 6 && features[6] != "*" {
			lemma = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		pos := ""
		if len(features) > 0 {
			pos = features[0]
		}

		result = append(result, Token{
			Surface: token.Surface,
			Lemma:   lemma,
			Reading: reading,
			POS:     pos,
		})
	}
	return result
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Japanese) AnalyzeDocument(text string) ([]Sentence, error) {
	var result []Sentence
	for _, s := range splitJapaneseSentences(Normalize(text)) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		result = append(result, Sentence{
			Text:   s,
			Tokens: a.Analyze(s),
		})
	}
	return result, nil
}

func splitJapaneseSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		// 。(3002), ！(FF01), ？(FF1F)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
