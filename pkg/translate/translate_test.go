package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/talkwords/pkg/dictionary"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "apple", clean("  apple \n"))
	assert.Equal(t, "apple", clean(`"apple."`))
	assert.Equal(t, "Lord", clean("Lord\nExplanation: ..."))
	assert.Equal(t, "", clean("  "))
}

func openAIServer(t *testing.T, answer string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Messages, 1) {
			assert.Contains(t, req.Messages[0].Content, "Spanish word 'señor'")
			assert.Contains(t, req.Messages[0].Content, "to English")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: answer}}},
		})
	}))
}

func TestOpenAITranslate(t *testing.T) {
	var hits int32
	srv := openAIServer(t, " lord\n", &hits)
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	tr := NewOpenAIWithConfig("test-key", cfg, "Spanish", "English")

	got, err := tr.Translate(context.Background(), "señor")
	require.NoError(t, err)
	assert.Equal(t, "lord", got)
	assert.EqualValues(t, 1, hits)
}

func TestOpenAIEmptyAnswerIsAbsent(t *testing.T) {
	var hits int32
	srv := openAIServer(t, "   ", &hits)
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	_, err := NewOpenAIWithConfig("test-key", cfg, "Spanish", "English").Translate(context.Background(), "señor")
	assert.ErrorIs(t, err, ErrNoTranslation)
}

func TestOpenAINoAPIKey(t *testing.T) {
	_, err := NewOpenAI("", "Spanish", "English").Translate(context.Background(), "señor")
	require.Error(t, err)
	assert.Equal(t, "OpenAI API key not found", err.Error())
}

func TestOpenAIIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}
	got, err := NewOpenAI(apiKey, "Spanish", "English").Translate(context.Background(), "manzana")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(got), "apple")
}

type memStore struct {
	data map[string]string
	puts int
}

func (m *memStore) GetTranslation(source, target, word string) (string, bool, error) {
	v, ok := m.data[source+"|"+target+"|"+word]
	return v, ok, nil
}

func (m *memStore) PutTranslation(source, target, word, tr string) error {
	m.puts++
	m.data[source+"|"+target+"|"+word] = tr
	return nil
}

func TestCachedMemoizes(t *testing.T) {
	var calls int
	next := Func(func(_ context.Context, w string) (string, error) {
		calls++
		if w == "xyzzy" {
			return "", ErrNoTranslation
		}
		return strings.ToUpper(w), nil
	})
	store := &memStore{data: map[string]string{"spa|eng|fe": "faith"}}
	c, err := NewCached(next, 16, "spa", "eng", WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := c.Translate(ctx, "fe")
	require.NoError(t, err)
	assert.Equal(t, "faith", got, "served from the store")

	for i := 0; i < 3; i++ {
		got, err = c.Translate(ctx, "luz")
		require.NoError(t, err)
		assert.Equal(t, "LUZ", got)

		_, err = c.Translate(ctx, "xyzzy")
		assert.ErrorIs(t, err, ErrNoTranslation)
	}
	assert.Equal(t, 2, calls, "each word reaches the provider once")
	assert.Equal(t, 2, store.puts)
	assert.Equal(t, "LUZ", store.data["spa|eng|luz"])
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	var calls int
	next := Func(func(context.Context, string) (string, error) {
		calls++
		return "", errors.New("rate limited")
	})
	c, err := NewCached(next, 4, "spa", "eng")
	require.NoError(t, err)
	_, err = c.Translate(context.Background(), "luz")
	require.Error(t, err)
	_, err = c.Translate(context.Background(), "luz")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuardedOpensAfterFailures(t *testing.T) {
	var calls int
	next := Func(func(context.Context, string) (string, error) {
		calls++
		return "", errors.New("service unavailable")
	})
	g := NewGuarded(next, BreakerSettings{Name: "test", MaxFailures: 3, OpenTimeout: time.Minute})
	for i := 0; i < 10; i++ {
		_, err := g.Translate(context.Background(), "word")
		require.Error(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.True(t, g.Open())
}

func TestGuardedAbsenceIsNotFailure(t *testing.T) {
	next := Func(func(context.Context, string) (string, error) {
		return "", ErrNoTranslation
	})
	g := NewGuarded(next, BreakerSettings{Name: "test", MaxFailures: 1, OpenTimeout: time.Minute})
	for i := 0; i < 5; i++ {
		_, err := g.Translate(context.Background(), "word")
		assert.ErrorIs(t, err, ErrNoTranslation)
	}
	assert.False(t, g.Open())
}

func TestJMdict(t *testing.T) {
	ix := dictionary.NewIndex([]dictionary.JMdictEntry{{
		Id:    "1",
		Kanji: []dictionary.JMdictElement{{Text: "主"}},
		Kana:  []dictionary.JMdictElement{{Text: "しゅ"}},
		Sense: []dictionary.JMdictSense{{Gloss: []dictionary.JMdictGloss{{Text: "lord"}, {Text: "master"}}}},
	}})
	tr := NewJMdict(ix)
	got, err := tr.Translate(context.Background(), "主")
	require.NoError(t, err)
	assert.Equal(t, "lord; master", got)

	_, err = tr.Translate(context.Background(), "猫")
	assert.ErrorIs(t, err, ErrNoTranslation)
}
