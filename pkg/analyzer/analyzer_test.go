package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/talkwords/pkg/config"
)

func surfaces(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Surface)
	}
	return out
}

func TestIsWord(t *testing.T) {
	for _, w := range []string{"a", "Lord", "7", "ñ", "猫", "don't", "well-being"} {
		assert.True(t, IsWord(w), w)
	}
	for _, w := range []string{"", " ", "\n", ".", ",", "—", "...", "“", "。"} {
		assert.False(t, IsWord(w), "%q", w)
	}
}

func TestNormalize(t *testing.T) {
	// "é" as e + combining acute becomes the precomposed rune.
	assert.Equal(t, "caf\u00e9", Normalize("cafe\u0301"))
}

func TestSegmenter(t *testing.T) {
	sentences, err := NewSegmenter().AnalyzeDocument("El Señor es bueno. El Señor nos ayudará.")
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, "El Señor es bueno.", sentences[0].Text)
	assert.Equal(t, []string{"El", "Señor", "es", "bueno"}, surfaces(sentences[0].Tokens))
	assert.Equal(t, "El Señor nos ayudará.", sentences[1].Text)
	assert.Equal(t, []string{"El", "Señor", "nos", "ayudará"}, surfaces(sentences[1].Tokens))
}

func TestSegmenterEmpty(t *testing.T) {
	sentences, err := NewSegmenter().AnalyzeDocument("   ")
	require.NoError(t, err)
	assert.Empty(t, sentences)
}

func TestEnglishTagsParts(t *testing.T) {
	en, err := NewEnglish(true)
	require.NoError(t, err)
	sentences, err := en.AnalyzeDocument("The Lord is good. The Lord will help.")
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, []string{"The", "Lord", "is", "good"}, surfaces(sentences[0].Tokens))
	for _, tok := range sentences[0].Tokens {
		assert.NotEmpty(t, tok.POS, "token %q has no tag", tok.Surface)
	}
}

func TestNewPicksAnalyzer(t *testing.T) {
	for code, want := range map[string]any{"eng": &English{}, "spa": &Segmenter{}, "rus": &Segmenter{}} {
		lang, err := config.LookupLanguage(code)
		require.NoError(t, err)
		a, err := New(lang, false)
		require.NoError(t, err)
		assert.IsType(t, want, a, code)
	}

	jpn, _ := config.LookupLanguage("jpn")
	a, err := New(jpn, false)
	require.NoError(t, err)
	assert.IsType(t, &Japanese{}, a)
	assert.True(t, HasPOS(jpn))
}
