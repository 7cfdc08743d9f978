// Package aggregate accumulates per-word statistics over a stream of paragraphs.
package aggregate

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"

	"github.com/japaniel/talkwords/pkg/analyzer"
	"github.com/japaniel/talkwords/pkg/config"
	"github.com/japaniel/talkwords/pkg/lemma"
	"github.com/japaniel/talkwords/pkg/translit"
)

// WordRecord holds everything known about one lowercased word.
type WordRecord struct {
	Word  string
	Count int
	// Forms are the distinct surface spellings in order of first sighting.
	Forms []string
	// Sentences are the distinct sentences containing the word in order of first sighting.
	Sentences []string

	Lemma           string
	POS             string
	Transliteration string

	// Order is the discovery index, used to break ties when sorting.
	Order int

	forms     map[string]struct{}
	sentences map[string]struct{}
}

func (r *WordRecord) addForm(form string) {
	if _, ok := r.forms[form]; ok {
		return
	}
	r.forms[form] = struct{}{}
	r.Forms = append(r.Forms, form)
}

func (r *WordRecord) addSentence(s string) {
	if _, ok := r.sentences[s]; ok {
		return
	}
	r.sentences[s] = struct{}{}
	r.Sentences = append(r.Sentences, s)
}

// Options selects the enrichment computed on a word's first sighting.
type Options struct {
	Language config.Language

	Lemma      bool
	Lemmatizer lemma.Lemmatizer

	Transliteration bool
	Transliterator  translit.Transliterator

	POS bool

	// Logger receives skipped-paragraph warnings. nil means slog.Default().
	Logger *slog.Logger
}

// Stats counts the work done by an Aggregator.
type Stats struct {
	Paragraphs int
	Skipped    int
	Sentences  int
	Tokens     int
}

// Aggregator owns the running word table. It is not safe for concurrent use.
type Aggregator struct {
	analyzer analyzer.Analyzer
	opts     Options
	lower    cases.Caser

	words map[string]*WordRecord
	order []*WordRecord
	stats Stats
}

// New creates an Aggregator that tokenizes paragraphs with a.
func New(a analyzer.Analyzer, opts Options) *Aggregator {
	if opts.Lemmatizer == nil {
		opts.Lemmatizer = lemma.None{}
	}
	if opts.Transliterator == nil {
		opts.Transliterator = translit.Unidecode{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{
		analyzer: a,
		opts:     opts,
		lower:    cases.Lower(opts.Language.Tag),
		words:    make(map[string]*WordRecord),
	}
}

// AddParagraph tokenizes p and records every word in it. An analyzer failure leaves
// the table untouched and is returned to the caller.
func (ag *Aggregator) AddParagraph(p string) (err error) {
	ag.stats.Paragraphs++
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
		if err != nil {
			ag.stats.Skipped++
		}
	}()

	sentences, err := ag.analyzer.AnalyzeDocument(p)
	if err != nil {
		return fmt.Errorf("analyze paragraph: %w", err)
	}
	for _, s := range sentences {
		ag.AddSentence(s)
	}
	return nil
}

// AddParagraphs records each paragraph, logging and skipping the ones that fail.
// It returns the number of skipped paragraphs.
func (ag *Aggregator) AddParagraphs(source string, paragraphs []string) int {
	skipped := 0
	for i, p := range paragraphs {
		if err := ag.AddParagraph(p); err != nil {
			skipped++
			ag.opts.Logger.Warn("skipping paragraph", "source", source, "index", i, "err", err)
		}
	}
	return skipped
}

// AddSentence records every token of an analyzed sentence.
func (ag *Aggregator) AddSentence(s analyzer.Sentence) {
	ag.stats.Sentences++
	for _, tok := range s.Tokens {
		ag.Observe(tok, s.Text)
	}
}

// Observe records one sighting of tok inside sentence.
func (ag *Aggregator) Observe(tok analyzer.Token, sentence string) {
	if !analyzer.IsWord(tok.Surface) {
		return
	}
	ag.stats.Tokens++
	key := ag.lower.String(tok.Surface)

	rec, ok := ag.words[key]
	if !ok {
		rec = ag.firstSighting(key, tok)
		ag.words[key] = rec
		ag.order = append(ag.order, rec)
	} else {
		rec.Count++
	}
	rec.addForm(tok.Surface)
	rec.addSentence(sentence)
}

func (ag *Aggregator) firstSighting(key string, tok analyzer.Token) *WordRecord {
	rec := &WordRecord{
		Word:      key,
		Count:     1,
		Order:     len(ag.order),
		forms:     make(map[string]struct{}),
		sentences: make(map[string]struct{}),
	}
	if ag.opts.Lemma {
		if tok.Lemma != "" {
			rec.Lemma = tok.Lemma
		} else if l, ok := ag.opts.Lemmatizer.Lemma(key); ok {
			rec.Lemma = l
		}
	}
	if ag.opts.Transliteration {
		src := tok.Reading
		if src == "" {
			src = key
		}
		if t, ok := ag.opts.Transliterator.Transliterate(src); ok {
			rec.Transliteration = t
		}
	}
	if ag.opts.POS {
		rec.POS = tok.POS
	}
	return rec
}

// Records returns the word records in discovery order.
func (ag *Aggregator) Records() []*WordRecord {
	out := make([]*WordRecord, len(ag.order))
	copy(out, ag.order)
	return out
}

// Get returns the record for a lowercased word.
func (ag *Aggregator) Get(word string) (*WordRecord, bool) {
	rec, ok := ag.words[word]
	return rec, ok
}

// Len is the number of distinct words.
func (ag *Aggregator) Len() int { return len(ag.order) }

func (ag *Aggregator) Stats() Stats { return ag.stats }
