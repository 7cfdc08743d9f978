package translate

import (
	"context"

	"github.com/japaniel/talkwords/pkg/dictionary"
)

// JMdict translates Japanese words offline with the JMdict index.
type JMdict struct {
	index *dictionary.Index
	// MaxGlosses bounds the glosses joined into one translation.
	MaxGlosses int
}

func NewJMdict(index *dictionary.Index) *JMdict {
	return &JMdict{index: index, MaxGlosses: 3}
}

func (j *JMdict) Translate(_ context.Context, word string) (string, error) {
	out := dictionary.FormatGlosses(j.index.Lookup(word, word, ""), j.MaxGlosses)
	if out == "" {
		return "", ErrNoTranslation
	}
	return out, nil
}
