package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWord(t *testing.T) {
	tests := []struct {
		token string
		want  []string
	}{
		{"Faith—real", []string{"Faith", "real"}},
		{"faith—matters.", []string{"faith", "matters"}},
		{"Ran.", []string{"Ran"}},
		{"(Alma", []string{"Alma"}},
		{"don't", []string{"don't"}},
		{"well-being", []string{"well-being"}},
		{"'s", []string{"'s"}},
		{"n't", []string{"n't"}},
		{"'tis-", []string{"tis"}},
		{"—", nil},
		{"...", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitWord(tt.token), "%q", tt.token)
	}
}

func TestEnglishSplitsPunctuationOutOfWords(t *testing.T) {
	en, err := NewEnglish(false)
	require.NoError(t, err)

	sentences, err := en.AnalyzeDocument("Faith—real faith—matters.")
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, []string{"Faith", "real", "faith", "matters"}, surfaces(sentences[0].Tokens))

	sentences, err = en.AnalyzeDocument("Ran.")
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, []string{"Ran"}, surfaces(sentences[0].Tokens))
}

func TestEnglishAssignsTokensToTheirSentence(t *testing.T) {
	en, err := NewEnglish(false)
	require.NoError(t, err)

	sentences, err := en.AnalyzeDocument("The “word” of the Lord is sure. It stands.")
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, "The “word” of the Lord is sure.", sentences[0].Text)
	assert.Equal(t, []string{"The", "word", "of", "the", "Lord", "is", "sure"}, surfaces(sentences[0].Tokens))
	assert.Equal(t, []string{"It", "stands"}, surfaces(sentences[1].Tokens))
	for _, tok := range sentences[0].Tokens {
		assert.Empty(t, tok.POS, "untagged analyzer set a tag on %q", tok.Surface)
	}
}

func TestEnglishWithoutTaggingIsFast(t *testing.T) {
	en, err := NewEnglish(false)
	require.NoError(t, err)

	paragraph := strings.Repeat("The Lord is good and His mercy endures forever. ", 10)
	start := time.Now()
	for i := 0; i < 50; i++ {
		sentences, err := en.AnalyzeDocument(paragraph)
		require.NoError(t, err)
		require.Len(t, sentences, 10)
	}
	// Loading a tagger model costs a few hundred milliseconds, so this bound
	// fails as soon as any paragraph or sentence builds one.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEnglishTaggerLoadedOnce(t *testing.T) {
	en, err := NewEnglish(true)
	require.NoError(t, err)

	paragraph := strings.Repeat("The Lord is good and His mercy endures forever. ", 10)
	start := time.Now()
	for i := 0; i < 20; i++ {
		sentences, err := en.AnalyzeDocument(paragraph)
		require.NoError(t, err)
		require.Len(t, sentences, 10)
		require.NotEmpty(t, sentences[9].Tokens[0].POS)
	}
	assert.Less(t, time.Since(start), 3*time.Second)
}
