package analyzer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// English splits sentences with the punkt tokenizer prose is built on, and
// tokenizes with prose, adding Penn Treebank tags when tagging is enabled.
type English struct {
	punkt *sentences.DefaultSentenceTokenizer
	// model holds the perceptron tagger. It is loaded once because prose
	// rebuilds it for every document that does not bring its own.
	model *prose.Model
}

// NewEnglish returns an English analyzer. Tagging loads the tagger model up front;
// without it tokens carry no POS.
func NewEnglish(tagging bool) (*English, error) {
	punkt, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence model: %w", err)
	}
	punkt.Storage.AbbrevTypes.Add("mt")

	e := &English{punkt: punkt}
	if tagging {
		doc, _ := prose.NewDocument("",
			prose.WithExtraction(false),
			prose.WithSegmentation(false))
		e.model = doc.Model
	}
	return e, nil
}

// quoteSanitizer mirrors the quote folding prose applies before tokenizing, so
// token text can be found again inside a sentence.
var quoteSanitizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"&rsquo;", "'")

// AnalyzeDocument segments and tokenizes the paragraph in one pass each, then
// hands every token to the sentence it was found in.
func (e *English) AnalyzeDocument(text string) ([]Sentence, error) {
	text = Normalize(text)

	opts := []prose.DocOpt{
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
		prose.WithTagging(e.model != nil),
	}
	if e.model != nil {
		opts = append(opts, prose.UsingModel(e.model))
	}
	tok, err := prose.NewDocument(text, opts...)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	var result []Sentence
	var folded []string
	for _, s := range e.punkt.Tokenize(text) {
		st := strings.TrimSpace(s.Text)
		if st == "" {
			continue
		}
		result = append(result, Sentence{Text: st})
		folded = append(folded, quoteSanitizer.Replace(st))
	}
	if len(result) == 0 {
		return nil, nil
	}

	cur, cursor := 0, 0
	for _, t := range tok.Tokens() {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		cur, cursor = locate(folded, cur, cursor, t.Text)
		for _, w := range SplitWord(t.Text) {
			result[cur].Tokens = append(result[cur].Tokens, Token{Surface: w, POS: t.Tag})
		}
	}
	return result, nil
}

// locate finds token at or after (cur, cursor) and returns the position just
// past it. Tokens come in text order, so a token missing from the rest of the
// current sentence belongs to a later one. A token found nowhere stays in the
// current sentence.
func locate(sentences []string, cur, cursor int, token string) (int, int) {
	for i := cur; i < len(sentences); i++ {
		from := 0
		if i == cur {
			from = cursor
		}
		if j := strings.Index(sentences[i][from:], token); j >= 0 {
			return i, from + j + len(token)
		}
	}
	return cur, cursor
}

// clitics are the contraction pieces prose splits off a word; they keep their
// leading apostrophe.
var clitics = map[string]bool{"'s": true, "'ll": true, "'re": true, "'m": true, "'ve": true, "'d": true, "n't": true}

// SplitWord breaks a tokenizer token into the words it contains. Punctuation
// inside the token ("faith—real") separates words and punctuation at its edges
// ("Ran.") is dropped. Apostrophes and hyphens between letters stay part of the
// word.
func SplitWord(token string) []string {
	if clitics[strings.ToLower(token)] {
		return []string{token}
	}
	var words []string
	for _, part := range strings.FieldsFunc(token, isSeparator) {
		part = strings.TrimFunc(part, isJoiner)
		if IsWord(part) {
			words = append(words, part)
		}
	}
	return words
}

func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '-', '‐', '‑':
		return true
	}
	return false
}

func isSeparator(r rune) bool {
	if isJoiner(r) || isWordRune(r) {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
}
