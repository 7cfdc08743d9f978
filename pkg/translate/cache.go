package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store persists translations between runs. The db package implements it.
type Store interface {
	GetTranslation(source, target, word string) (string, bool, error)
	PutTranslation(source, target, word, translation string) error
}

// Cached memoizes a Translator in memory and, when a Store is set, on disk.
// Absent translations are memoized too so a word is asked for at most once per run.
type Cached struct {
	next   Translator
	mem    *lru.Cache[string, string]
	store  Store
	source string
	target string
	logger *slog.Logger
}

type CacheOption func(*Cached)

// WithStore adds a persistent store behind the in-memory cache.
func WithStore(s Store) CacheOption { return func(c *Cached) { c.store = s } }

func WithLogger(l *slog.Logger) CacheOption { return func(c *Cached) { c.logger = l } }

// NewCached wraps next with an LRU of the given size. source and target scope the
// persistent entries so one cache file can hold several language pairs.
func NewCached(next Translator, size int, source, target string, opts ...CacheOption) (*Cached, error) {
	mem, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("translation cache: %w", err)
	}
	c := &Cached{next: next, mem: mem, source: source, target: target, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Cached) Translate(ctx context.Context, word string) (string, error) {
	if v, ok := c.mem.Get(word); ok {
		return found(v)
	}
	if c.store != nil {
		v, ok, err := c.store.GetTranslation(c.source, c.target, word)
		if err != nil {
			c.logger.Warn("translation cache read failed", "word", word, "err", err)
		} else if ok {
			c.mem.Add(word, v)
			return found(v)
		}
	}

	v, err := c.next.Translate(ctx, word)
	if err != nil && !errors.Is(err, ErrNoTranslation) {
		// Failures are not cached; the next run may succeed.
		return "", err
	}
	c.mem.Add(word, v)
	if c.store != nil {
		if err := c.store.PutTranslation(c.source, c.target, word, v); err != nil {
			c.logger.Warn("translation cache write failed", "word", word, "err", err)
		}
	}
	return found(v)
}

func found(v string) (string, error) {
	if v == "" {
		return "", ErrNoTranslation
	}
	return v, nil
}
