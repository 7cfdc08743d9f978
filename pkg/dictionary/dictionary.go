// Package dictionary provides the JMdict data behind Japanese runs: English
// glosses for the jmdict translator and the definitions column of the export
// database. Entries come from the jmdict-simplified JSON release.
package dictionary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// JMdictEntry is one jmdict-simplified word.
type JMdictEntry struct {
	Id    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

// JMdictElement is a kanji or kana spelling.
type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

// JMdictGloss is a translation of a sense. An empty Lang means English.
type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// English reports whether the gloss is an English translation.
func (g JMdictGloss) English() bool { return g.Lang == "" || g.Lang == "eng" }

// Spellings returns the kanji spellings followed by the kana ones.
func (e JMdictEntry) Spellings() []string {
	out := make([]string, 0, len(e.Kanji)+len(e.Kana))
	for _, k := range e.Kanji {
		out = append(out, k.Text)
	}
	for _, k := range e.Kana {
		out = append(out, k.Text)
	}
	return out
}

// Spelled reports whether any non-empty term is one of the entry's spellings.
func (e JMdictEntry) Spelled(terms ...string) bool {
	for _, s := range e.Spellings() {
		for _, t := range terms {
			if t != "" && s == t {
				return true
			}
		}
	}
	return false
}

// ReadAs reports whether the entry has a kana spelling pronounced reading.
// Katakana and hiragana compare equal.
func (e JMdictEntry) ReadAs(reading string) bool {
	want := ToHiragana(reading)
	for _, k := range e.Kana {
		if ToHiragana(k.Text) == want {
			return true
		}
	}
	return false
}

// Glosses returns the English glosses of every sense in order.
func (e JMdictEntry) Glosses() []string {
	var out []string
	for _, s := range e.Sense {
		for _, g := range s.Gloss {
			if g.English() {
				out = append(out, g.Text)
			}
		}
	}
	return out
}

// DefinitionEntry is one element of the JSON list stored in the words.definitions column.
type DefinitionEntry struct {
	Senses []string `json:"senses"`
	POS    []string `json:"pos"`
}

// LoadJMdictSimplified reads a release file ({"words": [...]}) or a bare array
// of entries.
func LoadJMdictSimplified(path string) ([]JMdictEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	first, err := firstNonSpace(r)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}

	dec := json.NewDecoder(r)
	switch first {
	case '{':
		var release struct {
			Words []JMdictEntry `json:"words"`
		}
		if err := dec.Decode(&release); err != nil {
			return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
		}
		return release.Words, nil
	case '[':
		var entries []JMdictEntry
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("parse dictionary %s: unexpected %q at start", path, first)
	}
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, r.UnreadByte()
	}
}
