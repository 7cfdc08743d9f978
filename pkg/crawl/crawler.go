// Package crawl walks the conference archive and extracts talk text.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/japaniel/talkwords/pkg/config"
	"github.com/japaniel/talkwords/pkg/ingest"
)

// Stats summarizes a crawl.
type Stats struct {
	Listings       int
	FailedListings int
	Talks          int
	FailedTalks    int
}

// Crawler fetches every talk of the requested conferences.
type Crawler struct {
	Fetcher  Getter
	BaseURL  string
	Language string
	// Workers is the number of concurrent talk fetches.
	Workers int
	Logger  *slog.Logger

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) ingest.WorkerPoolInterface
}

// New creates a Crawler for the run's language, archive and concurrency.
func New(f Getter, cfg config.RunConfig, logger *slog.Logger) *Crawler {
	return &Crawler{
		Fetcher:  f,
		BaseURL:  cfg.BaseURL,
		Language: cfg.Language.Code,
		Workers:  cfg.Workers,
		Logger:   logger,
	}
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Run crawls the conferences in order and calls visit once per extracted talk,
// in listing order and never concurrently. Listings and talks that fail are
// logged and skipped. An error from visit stops the crawl and is returned.
func (c *Crawler) Run(ctx context.Context, conferences []config.Conference, visit func(Talk) error) (Stats, error) {
	var stats Stats
	for _, conf := range conferences {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		listing := ListingURL(c.BaseURL, conf.Year, conf.Month, c.Language)
		body, err := c.Fetcher.Fetch(ctx, listing)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.FailedListings++
			c.logger().Warn("skipping conference", "conference", conf.String(), "url", listing, "error", err)
			continue
		}
		links, err := ParseListing(body, listing, conf.Year, conf.Month)
		if err != nil {
			stats.FailedListings++
			c.logger().Warn("skipping conference", "conference", conf.String(), "url", listing, "error", err)
			continue
		}
		stats.Listings++
		if len(links) == 0 {
			c.logger().Warn("no talks found", "conference", conf.String(), "url", listing)
			continue
		}
		c.logger().Info("crawling conference", "conference", conf.String(), "talks", len(links))

		if err := c.fetchTalks(ctx, conf, links, visit, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

type fetched struct {
	index int
	talk  Talk
	err   error
}

// fetchTalks downloads links on the worker pool and hands them to visit in order.
func (c *Crawler) fetchTalks(ctx context.Context, conf config.Conference, links []TalkLink, visit func(Talk) error, stats *Stats) error {
	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	var wp ingest.WorkerPoolInterface
	if c.PoolFactory != nil {
		wp = c.PoolFactory(workers, workers*2)
	} else {
		wp = ingest.NewWorkerPool(workers, workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	// Buffered for every link so workers never block on a stopped consumer.
	results := make(chan fetched, len(links))
	var submitErr error
	go func() {
		defer close(results)
		for i, link := range links {
			idx, link := i, link
			job := func(ctx context.Context) error {
				talk, err := c.fetchTalk(ctx, conf, link)
				results <- fetched{index: idx, talk: talk, err: err}
				return nil
			}
			if err := wp.SubmitCtx(ctx, job); err != nil {
				if !errors.Is(err, context.Canceled) {
					submitErr = err
				}
				break
			}
		}
		wp.Close()
	}()

	buffer := make(map[int]fetched)
	nextIdx := 0
	var visitErr error
	for res := range results {
		if visitErr != nil {
			continue // drain
		}
		buffer[res.index] = res
		for {
			item, ok := buffer[nextIdx]
			if !ok {
				break
			}
			delete(buffer, nextIdx)
			nextIdx++

			if item.err != nil {
				if ctx.Err() != nil {
					continue
				}
				stats.FailedTalks++
				c.logger().Warn("skipping talk", "url", links[item.index].URL, "error", item.err)
				continue
			}
			stats.Talks++
			c.logger().Debug("talk fetched", "title", item.talk.Title, "paragraphs", len(item.talk.Paragraphs))
			if err := visit(item.talk); err != nil {
				visitErr = err
				cancel()
				break
			}
		}
	}

	switch {
	case visitErr != nil:
		return visitErr
	case submitErr != nil:
		return fmt.Errorf("submit talk fetch: %w", submitErr)
	}
	return ctx.Err()
}

func (c *Crawler) fetchTalk(ctx context.Context, conf config.Conference, link TalkLink) (Talk, error) {
	body, err := c.Fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return Talk{}, err
	}
	talk, err := ExtractTalk(body, link.URL)
	if err != nil {
		return Talk{}, fmt.Errorf("extract %s: %w", link.URL, err)
	}
	talk.Conference = conf
	if talk.Title == "" {
		talk.Title = link.Title
	}
	return talk, nil
}
