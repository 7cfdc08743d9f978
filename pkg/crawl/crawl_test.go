package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/talkwords/pkg/config"
	"github.com/japaniel/talkwords/pkg/ingest"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return body
}

// archive serves the April 2020 listing and its talks.
func archive(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	listing := fixture(t, "listing.html")
	talk := fixture(t, "talk.html")
	plain := fixture(t, "talk_plain.html")
	var hits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/study/general-conference/2020/04", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "eng", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(listing)
	})
	mux.HandleFunc("/study/general-conference/2020/04/11nelson", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(talk)
	})
	mux.HandleFunc("/study/general-conference/2020/04/12ballard", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(plain)
	})
	mux.HandleFunc("/study/general-conference/2020/04/13broken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/study/general-conference/2020/10", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestListingURL(t *testing.T) {
	assert.Equal(t,
		"https://www.churchofjesuschrist.org/study/general-conference/2019/04?lang=spa",
		ListingURL("https://www.churchofjesuschrist.org/", 2019, "04", "spa"))
}

func TestParseListing(t *testing.T) {
	page := "https://example.com/study/general-conference/2020/04?lang=eng"
	links, err := ParseListing(fixture(t, "listing.html"), page, 2020, "04")
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "https://example.com/study/general-conference/2020/04/11nelson?lang=eng", links[0].URL)
	assert.Equal(t, "Opening Message Russell M. Nelson", links[0].Title)
	assert.Equal(t, "https://example.com/study/general-conference/2020/04/12ballard?lang=eng", links[1].URL)
	assert.Equal(t, "https://example.com/study/general-conference/2020/04/13broken?lang=eng", links[2].URL)
	for _, l := range links {
		assert.NotContains(t, l.URL, "session")
	}
}

func TestExtractTalkBodyBlock(t *testing.T) {
	talk, err := ExtractTalk(fixture(t, "talk.html"), "https://example.com/t")
	require.NoError(t, err)
	assert.Equal(t, "Opening Message", talk.Title)
	assert.Equal(t, []string{"The Lord is good.", "The Lord will help."}, talk.Paragraphs)
}

func TestExtractTalkStripsFurigana(t *testing.T) {
	talk, err := ExtractTalk(fixture(t, "talk_ruby.html"), "https://example.com/ja")
	require.NoError(t, err)
	require.Len(t, talk.Paragraphs, 1)
	assert.Equal(t, "主は良い方です。", talk.Paragraphs[0])
}

func TestExtractTalkReadabilityFallback(t *testing.T) {
	talk, err := ExtractTalk(fixture(t, "talk_plain.html"), "https://example.com/plain")
	require.NoError(t, err)
	assert.Equal(t, "Ponder the Path", talk.Title)
	require.NotEmpty(t, talk.Paragraphs)
	assert.Contains(t, strings.Join(talk.Paragraphs, " "), "ponder the path before us")
}

func TestExtractTalkEmpty(t *testing.T) {
	_, err := ExtractTalk([]byte("<html><body><h1>Nothing</h1></body></html>"), "https://example.com/empty")
	assert.ErrorIs(t, err, ErrNoParagraphs)
}

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple Ruby", "<ruby>漢字<rt>かんじ</rt></ruby>", "<ruby>漢字</ruby>"},
		{"Ruby with RP", "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>", "<ruby>漢字</ruby>"},
		{"Multiple Ruby", "<ruby>私<rt>わたし</rt></ruby>は<ruby>猫<rt>ねこ</rt></ruby>である", "<ruby>私</ruby>は<ruby>猫</ruby>である"},
		{"Attributes in tags", "<ruby class='test'>漢字<rt class='reading'>かんじ</rt></ruby>", "<ruby class='test'>漢字</ruby>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(SanitizeRuby([]byte(tt.input))))
		})
	}
}

func newTestCrawler(srv *httptest.Server, workers int) *Crawler {
	return &Crawler{
		Fetcher:  NewFetcher(0),
		BaseURL:  srv.URL,
		Language: "eng",
		Workers:  workers,
	}
}

func TestCrawlerVisitsTalksInOrder(t *testing.T) {
	for _, workers := range []int{1, 4} {
		srv, _ := archive(t)
		c := newTestCrawler(srv, workers)

		var titles []string
		stats, err := c.Run(context.Background(),
			[]config.Conference{{Year: 2020, Month: "04"}, {Year: 2020, Month: "10"}},
			func(talk Talk) error {
				titles = append(titles, talk.Title)
				assert.Equal(t, config.Conference{Year: 2020, Month: "04"}, talk.Conference)
				return nil
			})
		require.NoError(t, err, "workers=%d", workers)

		assert.Equal(t, []string{"Opening Message", "Ponder the Path"}, titles, "workers=%d", workers)
		assert.Equal(t, Stats{Listings: 1, FailedListings: 1, Talks: 2, FailedTalks: 1}, stats)
	}
}

func TestCrawlerStopsOnVisitError(t *testing.T) {
	srv, _ := archive(t)
	c := newTestCrawler(srv, 2)
	boom := errors.New("sink full")
	calls := 0
	_, err := c.Run(context.Background(), []config.Conference{{Year: 2020, Month: "04"}}, func(Talk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestCrawlerCanceled(t *testing.T) {
	srv, hits := archive(t)
	c := newTestCrawler(srv, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Run(ctx, []config.Conference{{Year: 2020, Month: "04"}}, func(Talk) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(hits))
}

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context)                   {}
func (f *failingPool) Submit(job ingest.Job) error                 { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(context.Context, ingest.Job) error { return errors.New("submit failed") }
func (f *failingPool) Close()                                      {}

func TestCrawlerHandlesSubmitError(t *testing.T) {
	srv, _ := archive(t)
	c := newTestCrawler(srv, 2)
	c.PoolFactory = func(workers, queue int) ingest.WorkerPoolInterface { return &failingPool{} }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Run(ctx, []config.Conference{{Year: 2020, Month: "04"}}, func(Talk) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit failed")
}

type memCache struct {
	mu    sync.Mutex
	pages map[string][]byte
}

func (m *memCache) GetPage(url string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.pages[url]
	return b, ok, nil
}

func (m *memCache) PutPage(url string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[url] = body
	return nil
}

func TestFetcherUsesPageCache(t *testing.T) {
	srv, hits := archive(t)
	cache := &memCache{pages: map[string][]byte{}}
	f := NewFetcher(0, WithPageCache(cache))
	url := ListingURL(srv.URL, 2020, "04", "eng")

	first, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFetcherRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	f := NewFetcher(3, WithRetryWait(time.Millisecond, 5*time.Millisecond))
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(2, WithRetryWait(time.Millisecond, time.Millisecond)).Fetch(context.Background(), srv.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}
