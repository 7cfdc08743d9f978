// Package lemma maps inflected words to their dictionary forms.
package lemma

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Lemmatizer returns the lemma of a lowercased word. A missing lemma is reported with
// ok == false, never as an error.
type Lemmatizer interface {
	Lemma(word string) (lemma string, ok bool)
}

// None is the lemmatizer for languages without dictionary support.
type None struct{}

func (None) Lemma(string) (string, bool) { return "", false }

// Dictionary looks words up in a golem language pack.
type Dictionary struct {
	lem *golem.Lemmatizer
}

func (d *Dictionary) Lemma(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || !d.lem.InDict(word) {
		return "", false
	}
	return d.lem.LemmaLower(word), true
}

// New returns the lemmatizer for an archive language code. Languages without a
// dictionary get None. Loading a dictionary takes a moment and some memory, so
// callers only ask for one when the lemma column is enabled.
func New(code string) (Lemmatizer, error) {
	var pack golem.LanguagePack
	switch code {
	case "eng":
		pack = en.New()
	default:
		return None{}, nil
	}
	lem, err := golem.New(pack)
	if err != nil {
		return nil, fmt.Errorf("load %s lemma dictionary: %w", code, err)
	}
	return &Dictionary{lem: lem}, nil
}

// Supported reports whether New returns a dictionary-backed lemmatizer for code.
func Supported(code string) bool {
	return code == "eng"
}
